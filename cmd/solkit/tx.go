package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/computebudget"
	"github.com/code-payments/code-solana-sdk/pkg/solana/ed25519"
	"github.com/code-payments/code-solana-sdk/pkg/solana/memo"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
	"github.com/code-payments/code-solana-sdk/pkg/solana/token"
)

type instructionResult struct {
	Program  string   `json:"program"`
	Accounts []string `json:"accounts"`
	Data     string   `json:"data"`
	Decoded  string   `json:"decoded,omitempty"`
}

type txResult struct {
	Signatures         []string             `json:"signatures"`
	SignaturesVerified bool                 `json:"signatures_verified"`
	Version            string               `json:"version"`
	Header             solana.MessageHeader `json:"header"`
	Accounts           []string             `json:"accounts"`
	RecentBlockhash    string               `json:"recent_blockhash"`
	Instructions       []instructionResult  `json:"instructions"`
	LookupTables       int                  `json:"lookup_tables,omitempty"`
}

func (r txResult) Text() string {
	var sb strings.Builder
	sb.WriteString(fields{
		{"version", r.Version},
		{"blockhash", r.RecentBlockhash},
		{"header", fmt.Sprintf("%d signers, %d readonly signed, %d readonly unsigned",
			r.Header.NumSignatures, r.Header.NumReadonlySigned, r.Header.NumReadonlyUnsigned)},
		{"verified", fmt.Sprint(r.SignaturesVerified)},
	}.String())

	sb.WriteString("\nsignatures:")
	for i, s := range r.Signatures {
		fmt.Fprintf(&sb, "\n  %d: %s", i, s)
	}
	sb.WriteString("\naccounts:")
	for i, k := range r.Accounts {
		fmt.Fprintf(&sb, "\n  %d: %s", i, k)
	}
	sb.WriteString("\ninstructions:")
	for i, ix := range r.Instructions {
		fmt.Fprintf(&sb, "\n  %d: %s", i, ix.Program)
		if ix.Decoded != "" {
			fmt.Fprintf(&sb, "\n     %s", ix.Decoded)
		} else {
			fmt.Fprintf(&sb, "\n     accounts %v data %s", ix.Accounts, ix.Data)
		}
	}
	return sb.String()
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Work with serialized transactions",
	}

	var encoding string
	decode := &cobra.Command{
		Use:   "decode <transaction>",
		Short: "Decode a wire format transaction and describe its instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := decodeTransactionBytes(args[0], encoding)
			if err != nil {
				return err
			}

			txn, err := solana.ParseTransaction(raw)
			if err != nil {
				return err
			}

			result := describeTransaction(txn)
			a.log.WithField("instructions", len(result.Instructions)).Debug("decoded transaction")
			return a.print(cmd, result)
		},
	}
	decode.Flags().StringVar(&encoding, "encoding", "auto", "input encoding: auto, base64 or base58")

	cmd.AddCommand(decode)
	return cmd
}

func decodeTransactionBytes(s, encoding string) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch encoding {
	case "base64":
		b, err := base64.StdEncoding.DecodeString(s)
		return b, errors.Wrap(err, "invalid base64")
	case "base58":
		b, err := base58.Decode(s)
		return b, errors.Wrap(err, "invalid base58")
	case "auto", "":
		if b, err := base64.StdEncoding.DecodeString(s); err == nil {
			if _, err := solana.ParseTransaction(b); err == nil {
				return b, nil
			}
		}
		b, err := base58.Decode(s)
		if err != nil {
			return nil, errors.New("transaction is neither base64 nor base58")
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown encoding %q", encoding)
	}
}

func describeTransaction(txn solana.Transaction) txResult {
	m := txn.Message
	result := txResult{
		SignaturesVerified: txn.VerifySignatures() == nil,
		Version:            m.Version.String(),
		Header:             m.Header,
		RecentBlockhash:    m.RecentBlockhash.String(),
		LookupTables:       len(m.AddressTableLookups),
	}

	for _, s := range txn.Signatures {
		result.Signatures = append(result.Signatures, s.String())
	}
	for _, k := range m.Accounts {
		result.Accounts = append(result.Accounts, k.String())
	}

	for i, ix := range m.Instructions {
		described := instructionResult{
			Program: accountName(m, int(ix.ProgramIndex)),
			Data:    hex.EncodeToString(ix.Data),
			Decoded: describeInstruction(m, i),
		}
		for _, idx := range ix.Accounts {
			described.Accounts = append(described.Accounts, accountName(m, int(idx)))
		}
		result.Instructions = append(result.Instructions, described)
	}
	return result
}

func accountName(m solana.Message, index int) string {
	if index < len(m.Accounts) {
		return m.Accounts[index].String()
	}
	return fmt.Sprintf("lookup#%d", index-len(m.Accounts))
}

// describeInstruction renders the instruction at index when one of the known
// programs can decode it.
func describeInstruction(m solana.Message, index int) string {
	ix := m.Instructions[index]
	if int(ix.ProgramIndex) >= len(m.Accounts) {
		return ""
	}

	switch m.Accounts[ix.ProgramIndex] {
	case memo.ProgramKey, memo.ProgramKeyV1:
		if d, err := memo.DecompileMemo(m, index); err == nil {
			return fmt.Sprintf("memo %q signers %v", d.Data, d.Signers)
		}
	case system.ProgramKey:
		if d, err := system.DecompileTransfer(m, index); err == nil {
			return fmt.Sprintf("system transfer %d lamports %s -> %s", d.Lamports, d.From, d.To)
		}
		if d, err := system.DecompileCreateAccount(m, index); err == nil {
			return fmt.Sprintf("system create account %s funded by %s, %d lamports, %d bytes, owner %s",
				d.Address, d.Funder, d.Lamports, d.Size, d.Owner)
		}
		if d, err := system.DecompileAdvanceNonce(m, index); err == nil {
			return fmt.Sprintf("system advance nonce %s by %s", d.Nonce, d.Authority)
		}
	case computebudget.ProgramKey:
		return describeBudget(ix.Data)
	case ed25519.ProgramKey:
		if d, err := ed25519.DecompileInstruction(m, index); err == nil {
			return fmt.Sprintf("ed25519 verify %s over %d bytes, valid %v", d.PublicKey, len(d.Message), d.Verify())
		}
	case token.ProgramKey:
		if d, err := token.DecompileTransfer(m, index); err == nil {
			return fmt.Sprintf("token transfer %d %s -> %s owner %s", d.Amount, d.Source, d.Destination, d.Owner)
		}
		if d, err := token.DecompileTransferChecked(m, index); err == nil {
			return fmt.Sprintf("token transfer %d (decimals %d) of %s %s -> %s owner %s",
				d.Amount, d.Decimals, d.Mint, d.Source, d.Destination, d.Owner)
		}
		if d, err := token.DecompileMintTo(m, index); err == nil {
			return fmt.Sprintf("token mint %d of %s to %s", d.Amount, d.Mint, d.Destination)
		}
		if d, err := token.DecompileCloseAccount(m, index); err == nil {
			return fmt.Sprintf("token close %s -> %s owner %s", d.Account, d.Destination, d.Owner)
		}
	case token.AssociatedTokenAccountProgramKey:
		if d, err := token.DecompileCreateAssociatedAccount(m, index); err == nil {
			return fmt.Sprintf("create associated account %s for %s mint %s", d.Address, d.Owner, d.Mint)
		}
		if d, err := token.DecompileCreateAssociatedAccountIdempotent(m, index); err == nil {
			return fmt.Sprintf("create associated account %s for %s mint %s (idempotent)", d.Address, d.Owner, d.Mint)
		}
	}
	return ""
}

func describeBudget(data []byte) string {
	if v, err := computebudget.ParseSetComputeUnitLimitIxnData(data); err == nil {
		return fmt.Sprintf("compute unit limit %d", v)
	}
	if v, err := computebudget.ParseSetComputeUnitPriceIxnData(data); err == nil {
		return fmt.Sprintf("compute unit price %d micro-lamports", v)
	}
	if v, err := computebudget.ParseRequestHeapFrameIxnData(data); err == nil {
		return fmt.Sprintf("heap frame %d bytes", v)
	}
	if v, err := computebudget.ParseSetLoadedAccountsDataSizeLimitIxnData(data); err == nil {
		return fmt.Sprintf("loaded accounts data size limit %d bytes", v)
	}
	return ""
}
