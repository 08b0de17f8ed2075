package num

import (
	"encoding/binary"
	"math"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const (
	U256Size = 32
	U256Bits = U256Size * 8

	U256MaxDecimal = "115792089237316195423570985008687907853269984665640564039457584007913129639935"
)

var (
	MinU256 = U256{}
	MaxU256 = U256{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// U256 is an unsigned 256-bit integer in little-endian byte order.
type U256 [U256Size]byte

func ParseU256(s string) (U256, error) {
	var u U256
	if err := parseDecimal(u[:], s, U256MaxDecimal); err != nil {
		return U256{}, err
	}
	return u, nil
}

func MustParseU256(s string) U256 {
	u, err := ParseU256(s)
	if err != nil {
		panic(err)
	}
	return u
}

func U256FromUint64(v uint64) U256 {
	var u U256
	binary.LittleEndian.PutUint64(u[:8], v)
	return u
}

func U256FromBigEndian(b []byte) (U256, error) {
	var u U256
	if err := fillLE(u[:], b, true); err != nil {
		return U256{}, err
	}
	return u, nil
}

func U256FromLittleEndian(b []byte) (U256, error) {
	var u U256
	if err := fillLE(u[:], b, false); err != nil {
		return U256{}, err
	}
	return u, nil
}

func U256FromMultibase(s string) (U256, error) {
	be, decimal, err := fromMultibase(s)
	if err != nil {
		return U256{}, err
	}
	if be == nil {
		return ParseU256(decimal)
	}
	return U256FromBigEndian(be)
}

func u256FromInt(z *uint256.Int) U256 {
	be := z.Bytes32()
	var u U256
	for i, v := range be {
		u[U256Size-1-i] = v
	}
	return u
}

func (u U256) IsZero() bool {
	return u == U256{}
}

func (u U256) LittleEndian() []byte {
	out := make([]byte, U256Size)
	copy(out, u[:])
	return out
}

func (u U256) BigEndian() []byte {
	return reverse(u[:])
}

func (u U256) Uint64() uint64 {
	return binary.LittleEndian.Uint64(u[:8])
}

func (u U256) Int64() int64 {
	return int64(u.Uint64())
}

func (u U256) Int32() int32 {
	return int32(u.Uint64())
}

func (u U256) Int16() int16 {
	return int16(u.Uint64())
}

func (u U256) Int8() int8 {
	return int8(u.Uint64())
}

// Float64 folds all four 64-bit limbs, most significant first.
func (u U256) Float64() float64 {
	var f float64
	for i := 3; i >= 0; i-- {
		f = f*math.Exp2(64) + float64(binary.LittleEndian.Uint64(u[i*8:]))
	}
	return f
}

func (u U256) Float32() float32 {
	return float32(u.Float64())
}

func (u U256) Cmp(o U256) int {
	return compareLE(u[:], o[:])
}

func (u U256) String() string {
	return formatDecimal(u[:])
}

func (u U256) DivUint64(d uint64) (U256, error) {
	if d == 0 {
		return U256{}, ErrDivisionByZero
	}
	return ParseU256(divideDecimal(u.String(), d))
}

// Mul fails with ErrOverflow when the product needs more than 256 bits.
func (u U256) Mul(o U256) (U256, error) {
	z, overflow := new(uint256.Int).MulOverflow(u.toUint256(), o.toUint256())
	if overflow {
		return U256{}, errors.Wrapf(ErrOverflow, "%s * %s", u, o)
	}
	return u256FromInt(z), nil
}

// U128 truncates u to its low 128 bits.
func (u U256) U128() U128 {
	var n U128
	copy(n[:], u[:U128Size])
	return n
}

func (u U256) toUint256() *uint256.Int {
	return new(uint256.Int).SetBytes(u.BigEndian())
}

func (u U256) MarshalFormat(f codec.Format) ([]byte, error) {
	return marshalWide(f, u[:])
}

func (u *U256) UnmarshalFormat(f codec.Format, b []byte) error {
	var tmp U256
	if err := unmarshalWide(f, b, tmp[:], U256MaxDecimal); err != nil {
		return err
	}
	*u = tmp
	return nil
}

func (u U256) MarshalJSON() ([]byte, error) {
	return u.MarshalFormat(codec.FormatJSON)
}

func (u *U256) UnmarshalJSON(b []byte) error {
	return u.UnmarshalFormat(codec.FormatJSON, b)
}
