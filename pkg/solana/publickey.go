package solana

import (
	"bytes"
	"crypto/ed25519"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const PublicKeySize = ed25519.PublicKeySize

// Key is anything that can stand in for an account address.
type Key interface {
	Length() int
	Bytes() []byte
	Address() string
}

// KeyEqual compares raw key bytes, so keys of different concrete types are
// equal when their contents match.
func KeyEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// PublicKey is a 32 byte Solana account address.
type PublicKey [PublicKeySize]byte

// NewPublicKey fails unless b is exactly 32 bytes.
func NewPublicKey(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != PublicKeySize {
		return k, errors.Wrapf(codec.ErrInvalidLength, "public key must be %d bytes, got %d", PublicKeySize, len(b))
	}
	copy(k[:], b)
	return k, nil
}

func PublicKeyFromBase58(s string) (PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, errors.Wrapf(err, "invalid base58 public key %q", s)
	}
	return NewPublicKey(b)
}

// MustPublicKey decodes a base58 constant and panics on failure.
func MustPublicKey(s string) PublicKey {
	k, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return k
}

func PublicKeyFromEd25519(pub ed25519.PublicKey) (PublicKey, error) {
	return NewPublicKey(pub)
}

func (k PublicKey) Length() int {
	return PublicKeySize
}

func (k PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, k[:])
	return b
}

func (k PublicKey) Address() string {
	return base58.Encode(k[:])
}

func (k PublicKey) String() string {
	return k.Address()
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func (k PublicKey) Equals(o Key) bool {
	return KeyEqual(k, o)
}

// IsOnCurve reports whether k decodes to an Ed25519 point, meaning a private
// key may exist for it.
func (k PublicKey) IsOnCurve() bool {
	return isOnCurve(k[:])
}

func (k PublicKey) ToEd25519() ed25519.PublicKey {
	return ed25519.PublicKey(k.Bytes())
}

func (k PublicKey) MarshalFormat(f codec.Format) ([]byte, error) {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return k.Bytes(), nil
	case codec.FormatJSON, codec.FormatUnknown:
		return codec.QuoteString(k.Address()), nil
	}
	return nil, errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}

func (k *PublicKey) UnmarshalFormat(f codec.Format, b []byte) error {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return codec.DecodeExact(k[:], b)
	case codec.FormatJSON:
		return k.unmarshalQuoted(b)
	case codec.FormatUnknown:
		if err := k.unmarshalQuoted(b); err == nil {
			return nil
		}
		return codec.DecodeExact(k[:], b)
	}
	return errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}

func (k *PublicKey) unmarshalQuoted(b []byte) error {
	s, err := codec.UnquoteString(b)
	if err != nil {
		return err
	}
	return k.UnmarshalText([]byte(s))
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.Address()), nil
}

func (k *PublicKey) UnmarshalText(b []byte) error {
	parsed, err := PublicKeyFromBase58(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return k.MarshalFormat(codec.FormatJSON)
}

func (k *PublicKey) UnmarshalJSON(b []byte) error {
	return k.UnmarshalFormat(codec.FormatJSON, b)
}

var isOnCurve = func(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
