// Package binary holds little-endian put/get helpers for fixed-layout
// instruction data and account state. Every helper writes or reads at the
// start of the given slice and advances offset by the field's width.
package binary

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

var ErrShortBuffer = errors.New("buffer too short")

func PutKey32(dst []byte, src solana.PublicKey, offset *int) {
	copy(dst, src[:])
	*offset += solana.PublicKeySize
}

// PutOptionalKey32 writes an option tag of optionSize bytes followed by the
// key. A nil key leaves the tag and key bytes zeroed.
func PutOptionalKey32(dst []byte, src *solana.PublicKey, offset *int, optionSize int) {
	if src != nil {
		dst[0] = 1
		copy(dst[optionSize:], src[:])
	}

	*offset += optionSize + solana.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint16(dst []byte, v uint16, offset *int) {
	binary.LittleEndian.PutUint16(dst, v)
	*offset += 2
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	*offset += 1
}

func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize int) {
	if v != nil {
		dst[0] = 1
		binary.LittleEndian.PutUint64(dst[optionSize:], *v)
	}
	*offset += optionSize + 8
}

func GetKey32(src []byte, dst *solana.PublicKey, offset *int) {
	copy(dst[:], src)
	*offset += solana.PublicKeySize
}

// GetOptionalKey32 reads a key behind an option tag of optionSize bytes. dst
// is left nil when the tag is unset.
func GetOptionalKey32(src []byte, dst **solana.PublicKey, offset *int, optionSize int) {
	if src[0] == 1 {
		var key solana.PublicKey
		copy(key[:], src[optionSize:])
		*dst = &key
	}
	*offset += optionSize + solana.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint16(src []byte, dst *uint16, offset *int) {
	*dst = binary.LittleEndian.Uint16(src)
	*offset += 2
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[0] != 0
	*offset += 1
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	if src[0] == 1 {
		val := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &val
	}
	*offset += optionSize + 8
}

// CheckLen returns ErrShortBuffer unless b holds at least n bytes.
func CheckLen(b []byte, n int) error {
	if len(b) < n {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", n, len(b))
	}
	return nil
}
