package main

import (
	"encoding/hex"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-solana-sdk/pkg/solana/num"
)

type numResult struct {
	Bits         int     `json:"bits"`
	Decimal      string  `json:"decimal"`
	Hex          string  `json:"hex"`
	LittleEndian string  `json:"little_endian"`
	Float        float64 `json:"float"`
}

func newU128Result(u num.U128) numResult {
	return numResult{
		Bits:         num.U128Bits,
		Decimal:      u.String(),
		Hex:          hex.EncodeToString(u.BigEndian()),
		LittleEndian: hex.EncodeToString(u.LittleEndian()),
		Float:        u.Float64(),
	}
}

func newU256Result(u num.U256) numResult {
	return numResult{
		Bits:         num.U256Bits,
		Decimal:      u.String(),
		Hex:          hex.EncodeToString(u.BigEndian()),
		LittleEndian: hex.EncodeToString(u.LittleEndian()),
		Float:        u.Float64(),
	}
}

func (r numResult) Text() string {
	return fields{
		{"bits", strconv.Itoa(r.Bits)},
		{"decimal", r.Decimal},
		{"hex", r.Hex},
		{"little endian", r.LittleEndian},
		{"float", strconv.FormatFloat(r.Float, 'g', -1, 64)},
	}.String()
}

func newNumCmd(a *app) *cobra.Command {
	var (
		bits      int
		multibase bool
		mul       string
		div       uint64
	)

	cmd := &cobra.Command{
		Use:   "num <value>",
		Short: "Parse and convert unsigned 128 and 256 bit integers",
		Long: `Parse an unsigned integer and print its decimal, hex and little endian forms.

Values are decimal unless --multibase is set, in which case the first
character selects the base ('9' decimal, 'f' hex, 'z' base58btc, ...).
--mul and --div apply to the parsed value, in that order. Multiplying
two 128 bit values yields the full 256 bit product.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch bits {
			case num.U128Bits:
				u, err := parseU128(args[0], multibase)
				if err != nil {
					return err
				}
				if div == 0 && cmd.Flags().Changed("div") {
					return num.ErrDivisionByZero
				}

				if mul == "" {
					if div > 0 {
						if u, err = u.DivUint64(div); err != nil {
							return err
						}
					}
					return a.print(cmd, newU128Result(u))
				}

				o, err := parseU128(mul, multibase)
				if err != nil {
					return errors.Wrap(err, "invalid --mul")
				}
				product := u.Mul(o)
				if div > 0 {
					if product, err = product.DivUint64(div); err != nil {
						return err
					}
				}
				return a.print(cmd, newU256Result(product))

			case num.U256Bits:
				u, err := parseU256(args[0], multibase)
				if err != nil {
					return err
				}
				if div == 0 && cmd.Flags().Changed("div") {
					return num.ErrDivisionByZero
				}

				if mul != "" {
					o, err := parseU256(mul, multibase)
					if err != nil {
						return errors.Wrap(err, "invalid --mul")
					}
					if u, err = u.Mul(o); err != nil {
						return err
					}
				}
				if div > 0 {
					if u, err = u.DivUint64(div); err != nil {
						return err
					}
				}
				return a.print(cmd, newU256Result(u))

			default:
				return errors.Errorf("unsupported width %d, use 128 or 256", bits)
			}
		},
	}

	cmd.Flags().IntVar(&bits, "bits", num.U128Bits, "integer width: 128 or 256")
	cmd.Flags().BoolVar(&multibase, "multibase", false, "parse values as multibase strings")
	cmd.Flags().StringVar(&mul, "mul", "", "multiply by this value")
	cmd.Flags().Uint64Var(&div, "div", 0, "divide by this value, truncating")
	return cmd
}

func parseU128(s string, multibase bool) (num.U128, error) {
	if multibase {
		return num.U128FromMultibase(s)
	}
	return num.ParseU128(s)
}

func parseU256(s string, multibase bool) (num.U256, error) {
	if multibase {
		return num.U256FromMultibase(s)
	}
	return num.ParseU256(s)
}
