package main

import (
	"encoding/base64"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/computebudget"
	"github.com/code-payments/code-solana-sdk/pkg/solana/memo"
)

type memoResult struct {
	Signature   string `json:"signature"`
	Transaction string `json:"transaction"`
	Sent        bool   `json:"sent"`
}

func (r memoResult) Text() string {
	return fields{
		{"signature", r.Signature},
		{"transaction", r.Transaction},
		{"sent", strconv.FormatBool(r.Sent)},
	}.String()
}

type memoOptions struct {
	blockhash        string
	signMemo         bool
	send             bool
	computeUnitLimit uint32
	computeUnitPrice uint64
}

func newMemoCmd(a *app) *cobra.Command {
	var opts memoOptions

	cmd := &cobra.Command{
		Use:   "memo <text>",
		Short: "Build and sign a memo transaction paid by the configured keypair",
		Long: `Build a memo transaction, sign it with the configured keypair and print it
as base64. With --send the transaction is submitted to the cluster.

The latest blockhash is fetched unless --blockhash is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMemo(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.blockhash, "blockhash", "", "recent blockhash to use instead of fetching one")
	cmd.Flags().BoolVar(&opts.signMemo, "signer", false, "list the payer as a memo signer")
	cmd.Flags().BoolVar(&opts.send, "send", false, "submit the signed transaction")
	cmd.Flags().Uint32Var(&opts.computeUnitLimit, "compute-unit-limit", 0, "request a compute unit limit")
	cmd.Flags().Uint64Var(&opts.computeUnitPrice, "compute-unit-price", 0, "priority fee in micro-lamports per compute unit")
	return cmd
}

func (a *app) runMemo(cmd *cobra.Command, text string, opts memoOptions) error {
	signer, err := a.loadKeypair()
	if err != nil {
		return err
	}

	var instructions []solana.Instruction
	if opts.computeUnitLimit > 0 {
		instructions = append(instructions, computebudget.SetComputeUnitLimit(opts.computeUnitLimit))
	}
	if opts.computeUnitPrice > 0 {
		instructions = append(instructions, computebudget.SetComputeUnitPrice(opts.computeUnitPrice))
	}
	if opts.signMemo {
		instructions = append(instructions, memo.Instruction(text, signer.PublicKey()))
	} else {
		instructions = append(instructions, memo.Instruction(text))
	}

	txn, err := solana.NewTransaction(signer.PublicKey(), instructions...)
	if err != nil {
		return err
	}

	var client solana.Client
	ctx := cmd.Context()
	if opts.send || opts.blockhash == "" {
		var cancel func()
		client, ctx, cancel, err = a.rpc(cmd)
		if err != nil {
			return err
		}
		defer cancel()
	}

	var hash solana.Blockhash
	if opts.blockhash != "" {
		hash, err = solana.BlockhashFromBase58(opts.blockhash)
	} else {
		hash, err = client.GetLatestBlockhash(ctx)
	}
	if err != nil {
		return err
	}
	txn.SetBlockhash(hash)

	if err := txn.Sign(ctx, signer); err != nil {
		return err
	}

	result := memoResult{
		Signature:   txn.Signature().String(),
		Transaction: base64.StdEncoding.EncodeToString(txn.Marshal()),
	}

	log := a.log.WithFields(logrus.Fields{
		"payer":     signer.PublicKey().String(),
		"signature": result.Signature,
	})

	if opts.send {
		if _, err := client.SubmitTransaction(ctx, txn, a.commitment()); err != nil {
			log.WithError(err).Warn("failed to submit memo transaction")
			return err
		}
		result.Sent = true
		log.Info("submitted memo transaction")
	}

	return a.print(cmd, result)
}
