// Package codec selects between the compact binary encodings (Borsh and the
// transaction wire format) and the JSON text encoding of SDK values.
package codec

import (
	"encoding/json"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidLength = errors.New("invalid length")
	ErrUnknownFormat = errors.New("unknown format")
)

// Format identifies the encoder or decoder a value is being run through.
type Format uint8

const (
	// FormatUnknown is used by generic callers that cannot name the codec.
	// Values try their text form first and fall back to binary.
	FormatUnknown Format = iota
	FormatBorsh
	FormatWire
	FormatJSON
)

// IsBinary reports whether values should be laid out as raw bytes.
func (f Format) IsBinary() bool {
	return f == FormatBorsh || f == FormatWire
}

func (f Format) String() string {
	switch f {
	case FormatUnknown:
		return "unknown"
	case FormatBorsh:
		return "borsh"
	case FormatWire:
		return "wire"
	case FormatJSON:
		return "json"
	}
	return "invalid"
}

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "unknown":
		return FormatUnknown, nil
	case "borsh":
		return FormatBorsh, nil
	case "wire":
		return FormatWire, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatUnknown, errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// Marshaler is implemented by values that lay themselves out differently
// depending on the active format.
type Marshaler interface {
	MarshalFormat(f Format) ([]byte, error)
}

// Unmarshaler is the decoding counterpart of Marshaler.
type Unmarshaler interface {
	UnmarshalFormat(f Format, b []byte) error
}

// Marshal encodes v for the given format. Values implementing Marshaler make
// the decision themselves; anything else goes through borsh for binary
// formats and encoding/json for text.
func Marshal(f Format, v interface{}) ([]byte, error) {
	if m, ok := v.(Marshaler); ok {
		return m.MarshalFormat(f)
	}

	switch f {
	case FormatBorsh, FormatWire:
		b, err := borsh.Serialize(v)
		if err != nil {
			return nil, errors.Wrap(err, "borsh serialize")
		}
		return b, nil
	case FormatJSON:
		return json.Marshal(v)
	case FormatUnknown:
		if b, err := json.Marshal(v); err == nil {
			return b, nil
		}
		return borsh.Serialize(v)
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%d", f)
}

// Unmarshal decodes b into v, which must be a pointer.
func Unmarshal(f Format, b []byte, v interface{}) error {
	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalFormat(f, b)
	}

	switch f {
	case FormatBorsh, FormatWire:
		return errors.Wrap(borsh.Deserialize(v, b), "borsh deserialize")
	case FormatJSON:
		return json.Unmarshal(b, v)
	case FormatUnknown:
		if err := json.Unmarshal(b, v); err == nil {
			return nil
		}
		return errors.Wrap(borsh.Deserialize(v, b), "borsh deserialize")
	}
	return errors.Wrapf(ErrUnknownFormat, "%d", f)
}
