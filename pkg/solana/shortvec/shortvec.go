// Package shortvec implements the compact-u16 length prefix used by the
// transaction wire format: seven bits per byte, low bits first, at most three
// bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedSize is the longest valid encoding.
const MaxEncodedSize = 3

var (
	ErrLenOverflow  = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrNonCanonical = errors.New("non-canonical shortvec encoding")
)

// Size returns the number of bytes EncodeLen writes for len.
func Size(len int) int {
	n := 1
	for len >>= 7; len > 0; len >>= 7 {
		n++
	}
	return n
}

// AppendLen appends the encoding of len to dst.
func AppendLen(dst []byte, len int) ([]byte, error) {
	if len < 0 || len > math.MaxUint16 {
		return dst, errors.Wrapf(ErrLenOverflow, "%d", len)
	}

	for {
		b := byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			return append(dst, b), nil
		}
		dst = append(dst, b|0x80)
	}
}

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	buf, err := AppendLen(make([]byte, 0, MaxEncodedSize), len)
	if err != nil {
		return 0, err
	}
	return w.Write(buf)
}

// DecodeLen decodes a shortvec encoded len from the reader. Encodings with a
// redundant trailing zero byte, or with more than three bytes, are rejected.
func DecodeLen(r io.Reader) (int, error) {
	var val int
	var b [1]byte

	for i := 0; ; i++ {
		if i == MaxEncodedSize {
			return 0, errors.Errorf("invalid size: more than %d bytes", MaxEncodedSize)
		}

		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, errors.Wrap(err, "failed to read shortvec byte")
		}

		elem := int(b[0] & 0x7f)
		if i > 0 && b[0] == 0 {
			return 0, ErrNonCanonical
		}

		val |= elem << (i * 7)
		if b[0]&0x80 == 0 {
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, errors.Wrapf(ErrLenOverflow, "%d", val)
	}
	return val, nil
}
