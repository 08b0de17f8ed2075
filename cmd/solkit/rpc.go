package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

const lamportsPerSol = 1_000_000_000

type blockhashResult struct {
	Blockhash string `json:"blockhash"`
}

func (r blockhashResult) Text() string {
	return r.Blockhash
}

func newBlockhashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "blockhash",
		Short: "Fetch the latest blockhash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, ctx, cancel, err := a.rpc(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			hash, err := client.GetLatestBlockhash(ctx)
			if err != nil {
				return err
			}
			return a.print(cmd, blockhashResult{Blockhash: hash.String()})
		},
	}
}

type balanceResult struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	SOL      string `json:"sol"`
}

func (r balanceResult) Text() string {
	return fields{
		{"address", r.Address},
		{"lamports", strconv.FormatUint(r.Lamports, 10)},
		{"sol", r.SOL},
	}.String()
}

func formatSol(lamports uint64) string {
	return strconv.FormatFloat(float64(lamports)/lamportsPerSol, 'f', -1, 64)
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Fetch the lamport balance of an address or the configured keypair",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.resolveAddress(args)
			if err != nil {
				return err
			}

			client, ctx, cancel, err := a.rpc(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			lamports, err := client.GetBalance(ctx, account, a.commitment())
			if errors.Is(err, solana.ErrNoBalance) {
				lamports, err = 0, nil
			}
			if err != nil {
				return err
			}

			return a.print(cmd, balanceResult{
				Address:  account.String(),
				Lamports: lamports,
				SOL:      formatSol(lamports),
			})
		},
	}
}

type airdropResult struct {
	Address   string `json:"address"`
	Lamports  uint64 `json:"lamports"`
	Signature string `json:"signature"`
	Confirmed bool   `json:"confirmed"`
}

func (r airdropResult) Text() string {
	return fields{
		{"address", r.Address},
		{"lamports", strconv.FormatUint(r.Lamports, 10)},
		{"signature", r.Signature},
		{"confirmed", strconv.FormatBool(r.Confirmed)},
	}.String()
}

func newAirdropCmd(a *app) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "airdrop <lamports> [address]",
		Short: "Request an airdrop on a test cluster",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lamports, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid lamports")
			}
			account, err := a.resolveAddress(args[1:])
			if err != nil {
				return err
			}

			client, ctx, cancel, err := a.rpc(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			sig, err := client.RequestAirdrop(ctx, account, lamports, a.commitment())
			if err != nil {
				return err
			}

			log := a.log.WithFields(logrus.Fields{
				"address":   account.String(),
				"signature": sig.String(),
			})
			log.Info("airdrop requested")

			result := airdropResult{
				Address:   account.String(),
				Lamports:  lamports,
				Signature: sig.String(),
			}
			if wait {
				status, err := client.GetSignatureStatus(ctx, sig, a.commitment())
				if err != nil {
					return err
				}
				if status.ErrorResult != nil {
					return status.ErrorResult
				}
				result.Confirmed = true
			}
			return a.print(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the airdrop to reach the configured commitment")
	return cmd
}

// resolveAddress returns the address in args, or the configured keypair's
// public key when args is empty.
func (a *app) resolveAddress(args []string) (solana.PublicKey, error) {
	if len(args) > 0 {
		return solana.PublicKeyFromBase58(args[0])
	}

	signer, err := a.loadKeypair()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return signer.PublicKey(), nil
}
