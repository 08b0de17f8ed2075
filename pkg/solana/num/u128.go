package num

import (
	"encoding/binary"
	"math"

	"github.com/holiman/uint256"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const (
	U128Size = 16
	U128Bits = U128Size * 8

	U128MaxDecimal = "340282366920938463463374607431768211455"
)

var (
	MinU128 = U128{}
	MaxU128 = U128{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// U128 is an unsigned 128-bit integer in little-endian byte order, the same
// layout Borsh uses for u128.
type U128 [U128Size]byte

// ParseU128 parses a decimal string. Underscores and a single trailing 'n'
// or 'u' are ignored.
func ParseU128(s string) (U128, error) {
	var u U128
	if err := parseDecimal(u[:], s, U128MaxDecimal); err != nil {
		return U128{}, err
	}
	return u, nil
}

// MustParseU128 is ParseU128 for constants.
func MustParseU128(s string) U128 {
	u, err := ParseU128(s)
	if err != nil {
		panic(err)
	}
	return u
}

func U128FromUint64(v uint64) U128 {
	var u U128
	binary.LittleEndian.PutUint64(u[:8], v)
	return u
}

// U128FromBigEndian accepts up to 16 bytes, most significant first.
func U128FromBigEndian(b []byte) (U128, error) {
	var u U128
	if err := fillLE(u[:], b, true); err != nil {
		return U128{}, err
	}
	return u, nil
}

// U128FromLittleEndian accepts up to 16 bytes, least significant first.
func U128FromLittleEndian(b []byte) (U128, error) {
	var u U128
	if err := fillLE(u[:], b, false); err != nil {
		return U128{}, err
	}
	return u, nil
}

// U128FromMultibase decodes a multibase string. Decimal ('9' prefix) is
// parsed as a number; other bases are treated as big-endian bytes.
func U128FromMultibase(s string) (U128, error) {
	be, decimal, err := fromMultibase(s)
	if err != nil {
		return U128{}, err
	}
	if be == nil {
		return ParseU128(decimal)
	}
	return U128FromBigEndian(be)
}

func (u U128) IsZero() bool {
	return u == U128{}
}

func (u U128) LittleEndian() []byte {
	out := make([]byte, U128Size)
	copy(out, u[:])
	return out
}

func (u U128) BigEndian() []byte {
	return reverse(u[:])
}

func (u U128) Uint64() uint64 {
	return binary.LittleEndian.Uint64(u[:8])
}

func (u U128) Int64() int64 {
	return int64(u.Uint64())
}

func (u U128) Int32() int32 {
	return int32(u.Uint64())
}

func (u U128) Int16() int16 {
	return int16(u.Uint64())
}

func (u U128) Int8() int8 {
	return int8(u.Uint64())
}

// Float64 is hi*2^64 + lo. Precision is lost above 2^53.
func (u U128) Float64() float64 {
	lo := binary.LittleEndian.Uint64(u[:8])
	hi := binary.LittleEndian.Uint64(u[8:])
	return float64(hi)*math.Exp2(64) + float64(lo)
}

// Float32 overflows to +Inf for values above math.MaxFloat32.
func (u U128) Float32() float32 {
	return float32(u.Float64())
}

// Cmp returns -1, 0 or +1.
func (u U128) Cmp(o U128) int {
	return compareLE(u[:], o[:])
}

func (u U128) String() string {
	return formatDecimal(u[:])
}

// DivUint64 returns u / d, truncated.
func (u U128) DivUint64(d uint64) (U128, error) {
	if d == 0 {
		return U128{}, ErrDivisionByZero
	}
	return ParseU128(divideDecimal(u.String(), d))
}

// Mul returns the full 256-bit product.
func (u U128) Mul(o U128) U256 {
	z := new(uint256.Int).Mul(u.toUint256(), o.toUint256())
	return u256FromInt(z)
}

// U256 widens u.
func (u U128) U256() U256 {
	var w U256
	copy(w[:], u[:])
	return w
}

func (u U128) toUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(u.BigEndian())
}

func (u U128) MarshalFormat(f codec.Format) ([]byte, error) {
	return marshalWide(f, u[:])
}

func (u *U128) UnmarshalFormat(f codec.Format, b []byte) error {
	var tmp U128
	if err := unmarshalWide(f, b, tmp[:], U128MaxDecimal); err != nil {
		return err
	}
	*u = tmp
	return nil
}

func (u U128) MarshalJSON() ([]byte, error) {
	return u.MarshalFormat(codec.FormatJSON)
}

func (u *U128) UnmarshalJSON(b []byte) error {
	return u.UnmarshalFormat(codec.FormatJSON, b)
}
