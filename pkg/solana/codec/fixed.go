package codec

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// EncodeFixed writes exactly n raw bytes. There is no length prefix; the
// reader must know n.
func EncodeFixed(w io.Writer, b []byte, n int) error {
	if len(b) != n {
		return errors.Wrapf(ErrInvalidLength, "expected %d bytes, got %d", n, len(b))
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "failed to write fixed bytes")
	}
	return nil
}

// DecodeFixed reads exactly n raw bytes.
func DecodeFixed(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrapf(ErrInvalidLength, "expected %d bytes: %v", n, err)
	}
	return b, nil
}

// DecodeExact copies src into dst, failing unless the lengths match. It is
// the whole-buffer form of DecodeFixed used by UnmarshalFormat
// implementations.
func DecodeExact(dst, src []byte) error {
	if len(src) != len(dst) {
		return errors.Wrapf(ErrInvalidLength, "expected %d bytes, got %d", len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// QuoteString renders s as a JSON string literal.
func QuoteString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

// UnquoteString parses a JSON string literal.
func UnquoteString(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", errors.Wrapf(ErrInvalidFormat, "expected a json string: %v", err)
	}
	return s, nil
}
