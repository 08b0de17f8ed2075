// Package num implements the fixed width unsigned integers used by on-chain
// programs: 128 and 256 bit values stored as little-endian byte arrays.
package num

import (
	"math/bits"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

var (
	ErrOverflow       = errors.New("value overflows type")
	ErrDivisionByZero = errors.New("division by zero")
)

// base10Marker is the multibase prefix for decimal strings. The base10
// codec below always emits and expects it.
const base10Marker = byte(multibase.Base10)

// normalizeDecimal strips numeric literal decorations and validates s
// against the width described by maxDecimal. The result has no leading
// zeros, except for "0" itself.
func normalizeDecimal(s, maxDecimal string) (string, error) {
	s = strings.ReplaceAll(s, "_", "")
	if n := len(s); n > 0 && (s[n-1] == 'n' || s[n-1] == 'u') {
		s = s[:n-1]
	}

	if len(s) == 0 {
		return "", errors.Wrap(codec.ErrInvalidFormat, "empty decimal string")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", errors.Wrapf(codec.ErrInvalidFormat, "invalid digit %q at %d", s[i], i)
		}
	}
	if len(s) > len(maxDecimal) {
		return "", errors.Wrapf(codec.ErrInvalidFormat, "more than %d digits", len(maxDecimal))
	}
	if len(s) == len(maxDecimal) && s > maxDecimal {
		return "", errors.Wrapf(ErrOverflow, "%s exceeds %s", s, maxDecimal)
	}

	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return s, nil
}

// decodeBase10 converts a marker-prefixed decimal string into big-endian
// bytes. Each leading '0' digit becomes a leading zero byte.
func decodeBase10(s string) ([]byte, error) {
	if len(s) == 0 || s[0] != base10Marker {
		return nil, errors.Wrap(codec.ErrInvalidFormat, "missing base10 marker")
	}
	digits := s[1:]

	var zeros int
	for zeros < len(digits) && digits[zeros] == '0' {
		zeros++
	}

	// little-endian accumulator
	acc := make([]byte, 0, len(digits))
	for i := zeros; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return nil, errors.Wrapf(codec.ErrInvalidFormat, "invalid digit %q", c)
		}

		carry := int(c - '0')
		for j := range acc {
			carry += int(acc[j]) * 10
			acc[j] = byte(carry)
			carry >>= 8
		}
		for carry > 0 {
			acc = append(acc, byte(carry))
			carry >>= 8
		}
	}

	out := make([]byte, zeros+len(acc))
	for i, b := range acc {
		out[len(out)-1-i] = b
	}
	return out, nil
}

// encodeBase10 is the inverse of decodeBase10.
func encodeBase10(b []byte) string {
	var zeros int
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	// little-endian decimal digits
	digits := make([]byte, 0, len(b)*3)
	for _, v := range b[zeros:] {
		carry := int(v)
		for i := range digits {
			carry += int(digits[i]) << 8
			digits[i] = byte(carry % 10)
			carry /= 10
		}
		for carry > 0 {
			digits = append(digits, byte(carry%10))
			carry /= 10
		}
	}

	var sb strings.Builder
	sb.Grow(1 + zeros + len(digits))
	sb.WriteByte(base10Marker)
	for i := 0; i < zeros; i++ {
		sb.WriteByte('0')
	}
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte('0' + digits[i])
	}
	return sb.String()
}

// parseDecimal fills dst (little-endian) from a decimal string.
func parseDecimal(dst []byte, s, maxDecimal string) error {
	s, err := normalizeDecimal(s, maxDecimal)
	if err != nil {
		return err
	}

	be, err := decodeBase10(string(base10Marker) + s)
	if err != nil {
		return err
	}
	if len(be) > len(dst) {
		return errors.Wrapf(ErrOverflow, "%d bytes do not fit in %d", len(be), len(dst))
	}

	for i := range dst {
		dst[i] = 0
	}
	for i, v := range be {
		dst[len(be)-1-i] = v
	}
	return nil
}

// formatDecimal renders little-endian bytes as a canonical decimal string.
func formatDecimal(le []byte) string {
	if isZero(le) {
		return "0"
	}

	s := encodeBase10(reverse(le))[1:]
	return strings.TrimLeft(s, "0")
}

// divideDecimal performs schoolbook long division of a decimal string by d.
// d must be non-zero.
func divideDecimal(s string, d uint64) string {
	var sb strings.Builder
	var rem uint64
	for i := 0; i < len(s); i++ {
		// rem < d, so the running value fits a 128-bit dividend whose high
		// word is below d, as bits.Div64 requires.
		hi, lo := bits.Mul64(rem, 10)
		var carry uint64
		lo, carry = bits.Add64(lo, uint64(s[i]-'0'), 0)
		hi += carry

		var q uint64
		q, rem = bits.Div64(hi, lo, d)
		if q != 0 || sb.Len() > 0 {
			sb.WriteByte('0' + byte(q))
		}
	}

	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}

// fromMultibase decodes s into big-endian bytes. Decimal strings are handled
// here since go-multibase has no base10 codec.
func fromMultibase(s string) (be []byte, decimal string, err error) {
	if len(s) == 0 {
		return nil, "", errors.Wrap(codec.ErrInvalidFormat, "empty multibase string")
	}
	if s[0] == base10Marker {
		return nil, s[1:], nil
	}

	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, "", errors.Wrapf(codec.ErrInvalidFormat, "multibase: %v", err)
	}
	return data, "", nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// compareLE compares two equal length little-endian values.
func compareLE(a, b []byte) int {
	for i := len(a) - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// fillLE copies src into dst. Big-endian input is right-aligned by
// reversing it first.
func fillLE(dst, src []byte, bigEndian bool) error {
	if len(src) > len(dst) {
		return errors.Wrapf(codec.ErrInvalidLength, "%d bytes exceed %d", len(src), len(dst))
	}
	if bigEndian {
		src = reverse(src)
	}
	copy(dst, src)
	return nil
}
