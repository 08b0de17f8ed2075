package num

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

// marshalWide lays out a little-endian value for f: raw bytes for the binary
// formats, a quoted decimal string for text.
func marshalWide(f codec.Format, le []byte) ([]byte, error) {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		out := make([]byte, len(le))
		copy(out, le)
		return out, nil
	case codec.FormatJSON, codec.FormatUnknown:
		return codec.QuoteString(formatDecimal(le)), nil
	}
	return nil, errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}

func unmarshalWide(f codec.Format, b, dst []byte, maxDecimal string) error {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return codec.DecodeExact(dst, b)
	case codec.FormatJSON:
		s, err := codec.UnquoteString(b)
		if err != nil {
			return err
		}
		return parseDecimal(dst, s, maxDecimal)
	case codec.FormatUnknown:
		if s, err := codec.UnquoteString(b); err == nil {
			if err := parseDecimal(dst, s, maxDecimal); err == nil {
				return nil
			}
		}
		return codec.DecodeExact(dst, b)
	}
	return errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}
