package main

import (
	"encoding/binary"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/token"
)

type pubkeyResult struct {
	Address string `json:"address"`
	Hex     string `json:"hex"`
	OnCurve bool   `json:"on_curve"`
	Keypair string `json:"keypair,omitempty"`
}

func newPubkeyResult(k solana.PublicKey) pubkeyResult {
	return pubkeyResult{
		Address: k.String(),
		Hex:     hex.EncodeToString(k.Bytes()),
		OnCurve: k.IsOnCurve(),
	}
}

func (r pubkeyResult) Text() string {
	f := fields{
		{"address", r.Address},
		{"hex", r.Hex},
		{"on curve", strconv.FormatBool(r.OnCurve)},
	}
	if r.Keypair != "" {
		f = append(f, [2]string{"keypair", r.Keypair})
	}
	return f.String()
}

func newPubkeyCmd(a *app) *cobra.Command {
	var (
		generate bool
		outfile  string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "pubkey [address]",
		Short: "Inspect an address, the configured keypair, or generate a new keypair",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if generate {
				return a.generateKeypair(cmd, outfile, force)
			}

			if len(args) == 1 {
				k, err := solana.PublicKeyFromBase58(args[0])
				if err != nil {
					return err
				}
				return a.print(cmd, newPubkeyResult(k))
			}

			signer, err := a.loadKeypair()
			if err != nil {
				return err
			}
			return a.print(cmd, newPubkeyResult(signer.PublicKey()))
		},
	}

	cmd.Flags().BoolVar(&generate, "new", false, "generate a new keypair")
	cmd.Flags().StringVar(&outfile, "outfile", "", "where to write the generated keypair")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing keypair file")
	return cmd
}

func (a *app) generateKeypair(cmd *cobra.Command, outfile string, force bool) error {
	if outfile == "" {
		return errors.New("--new requires --outfile")
	}
	if _, err := os.Stat(outfile); err == nil && !force {
		return errors.Errorf("%s already exists, use --force to overwrite", outfile)
	}

	signer, err := solana.GenerateKeypairSigner()
	if err != nil {
		return err
	}

	b, err := signer.MarshalKeypairJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outfile, b, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", outfile)
	}

	a.log.WithField("address", signer.PublicKey().String()).Info("generated keypair")

	result := newPubkeyResult(signer.PublicKey())
	result.Keypair = outfile
	return a.print(cmd, result)
}

type pdaResult struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

func (r pdaResult) Text() string {
	return fields{
		{"address", r.Address},
		{"bump", strconv.Itoa(int(r.Bump))},
	}.String()
}

func newPDACmd(a *app) *cobra.Command {
	var bump int

	cmd := &cobra.Command{
		Use:   "pda <program> [seed...]",
		Short: "Derive a program address",
		Long: `Derive a program address from a program id and seeds.

Seeds default to utf-8 strings. A prefix selects another encoding:
  str:<text>  hex:<bytes>  base58:<bytes>  pubkey:<address>
  u8:<n>  u16:<n>  u32:<n>  u64:<n>  (little endian)

Without --bump the canonical bump is searched from 255 down.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid program")
			}

			seeds := make([][]byte, 0, len(args)-1)
			for _, s := range args[1:] {
				seed, err := parseSeed(s)
				if err != nil {
					return err
				}
				seeds = append(seeds, seed)
			}

			if bump < 0 {
				pda, err := solana.FindProgramAddress(program, seeds...)
				if err != nil {
					return err
				}
				return a.print(cmd, pdaResult{Address: pda.String(), Bump: pda.Nonce})
			}

			if bump > 255 {
				return errors.Errorf("bump %d out of range", bump)
			}
			address, err := solana.CreateProgramAddress(program, append(seeds, []byte{byte(bump)})...)
			if err != nil {
				return err
			}
			return a.print(cmd, pdaResult{Address: address.String(), Bump: uint8(bump)})
		},
	}

	cmd.Flags().IntVar(&bump, "bump", -1, "create the address with this bump instead of searching")
	return cmd
}

func parseSeed(s string) ([]byte, error) {
	kind, value := "str", s
	if i := strings.IndexByte(s, ':'); i > 0 {
		kind, value = s[:i], s[i+1:]
	}

	switch kind {
	case "str":
		return []byte(value), nil
	case "hex":
		b, err := hex.DecodeString(value)
		return b, errors.Wrapf(err, "invalid hex seed %q", value)
	case "base58":
		b, err := base58.Decode(value)
		return b, errors.Wrapf(err, "invalid base58 seed %q", value)
	case "pubkey":
		k, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return nil, err
		}
		return k.Bytes(), nil
	case "u8", "u16", "u32", "u64":
		bits, _ := strconv.Atoi(kind[1:])
		n, err := strconv.ParseUint(value, 10, bits)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s seed", kind)
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, n)
		return b[:bits/8], nil
	default:
		// An unknown prefix is part of a plain string seed.
		return []byte(s), nil
	}
}

func newATACmd(a *app) *cobra.Command {
	var tokenProgram string

	cmd := &cobra.Command{
		Use:   "ata <wallet> <mint>",
		Short: "Derive an associated token account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid wallet")
			}
			mint, err := solana.PublicKeyFromBase58(args[1])
			if err != nil {
				return errors.Wrap(err, "invalid mint")
			}
			program, err := solana.PublicKeyFromBase58(tokenProgram)
			if err != nil {
				return errors.Wrap(err, "invalid token program")
			}

			pda, err := token.GetAssociatedAccountForProgram(wallet, mint, program)
			if err != nil {
				return err
			}
			return a.print(cmd, pdaResult{Address: pda.String(), Bump: pda.Nonce})
		},
	}

	cmd.Flags().StringVar(&tokenProgram, "token-program", token.ProgramKey.String(), "token program that owns the mint")
	return cmd
}
