// Package anchor encodes instructions and accounts for programs built with
// the Anchor framework. Every payload starts with an 8 byte discriminator,
// the first bytes of sha256("<namespace>:<name>"), followed by the Borsh
// encoded arguments.
package anchor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const DiscriminatorSize = 8

const (
	GlobalNamespace  = "global"
	AccountNamespace = "account"
	EventNamespace   = "event"
)

var ErrDiscriminatorMismatch = errors.New("discriminator mismatch")

type Discriminator [DiscriminatorSize]byte

// NewDiscriminator hashes "<namespace>:<name>".
func NewDiscriminator(namespace, name string) Discriminator {
	h := sha256.Sum256([]byte(namespace + ":" + name))

	var d Discriminator
	copy(d[:], h[:DiscriminatorSize])
	return d
}

// InstructionDiscriminator is the discriminator of a method in the global
// namespace.
func InstructionDiscriminator(name string) Discriminator {
	return NewDiscriminator(GlobalNamespace, name)
}

// AccountDiscriminator prefixes account data. Anchor hashes the struct name,
// so name is usually CamelCase.
func AccountDiscriminator(name string) Discriminator {
	return NewDiscriminator(AccountNamespace, name)
}

func (d Discriminator) Bytes() []byte {
	return append([]byte(nil), d[:]...)
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}

// Serializer writes and reads one discriminated payload shape.
type Serializer struct {
	Discriminator Discriminator
}

// NewInstructionSerializer uses the global namespace.
func NewInstructionSerializer(name string) Serializer {
	return Serializer{Discriminator: InstructionDiscriminator(name)}
}

func NewSerializer(namespace, name string) Serializer {
	return Serializer{Discriminator: NewDiscriminator(namespace, name)}
}

// Marshal returns the discriminator followed by the Borsh encoding of args.
// A nil args encodes the discriminator alone.
func (s Serializer) Marshal(args interface{}) ([]byte, error) {
	out := append([]byte(nil), s.Discriminator[:]...)
	if args == nil {
		return out, nil
	}

	b, err := codec.Marshal(codec.FormatBorsh, args)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s arguments", s.Discriminator)
	}
	return append(out, b...), nil
}

// Unmarshal checks the discriminator and decodes the remainder into args.
func (s Serializer) Unmarshal(data []byte, args interface{}) error {
	if len(data) < DiscriminatorSize {
		return errors.Wrapf(codec.ErrInvalidLength, "%d bytes", len(data))
	}
	if !bytes.Equal(data[:DiscriminatorSize], s.Discriminator[:]) {
		return errors.Wrapf(ErrDiscriminatorMismatch, "expected %s, got %x", s.Discriminator, data[:DiscriminatorSize])
	}
	if args == nil {
		return nil
	}
	return codec.Unmarshal(codec.FormatBorsh, data[DiscriminatorSize:], args)
}

// Matches reports whether data starts with the discriminator.
func (s Serializer) Matches(data []byte) bool {
	return bytes.HasPrefix(data, s.Discriminator[:])
}

// NewInstruction builds an instruction calling method name on program.
func NewInstruction(program solana.PublicKey, name string, args interface{}, accounts ...solana.AccountMeta) (solana.Instruction, error) {
	data, err := NewInstructionSerializer(name).Marshal(args)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(program, data, accounts...), nil
}

// DecodeInstruction resolves the instruction at index against program and
// decodes its arguments for method name.
func DecodeInstruction(m solana.Message, index int, program solana.PublicKey, name string, args interface{}) (solana.Instruction, error) {
	i, err := m.ResolveInstruction(index, program)
	if err != nil {
		return i, err
	}

	s := NewInstructionSerializer(name)
	if !s.Matches(i.Data) {
		return i, solana.ErrIncorrectInstruction
	}
	return i, s.Unmarshal(i.Data, args)
}

// DecodeAccount decodes account data of the named Anchor account type.
func DecodeAccount(name string, data []byte, v interface{}) error {
	return NewSerializer(AccountNamespace, name).Unmarshal(data, v)
}
