package solana

import (
	"crypto/sha256"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrOnCurve is returned when a derived address has a matching private key.
	ErrOnCurve = errors.New("derived address is on the ed25519 curve")

	// ErrNoValidAddress is returned when every bump produces an on-curve address.
	ErrNoValidAddress = errors.New("unable to find a valid program address")
)

var (
	programHashCtor = sha256.New
)

// ProgramDerivedAddress is an off-curve address along with the bump seed that
// produced it.
type ProgramDerivedAddress struct {
	PublicKey
	Nonce uint8
}

// NewProgramDerivedAddress wraps a known address and bump. The address must
// be off-curve.
func NewProgramDerivedAddress(b []byte, nonce uint8) (ProgramDerivedAddress, error) {
	k, err := NewPublicKey(b)
	if err != nil {
		return ProgramDerivedAddress{}, err
	}
	if k.IsOnCurve() {
		return ProgramDerivedAddress{}, errors.Wrap(ErrOnCurve, k.String())
	}
	return ProgramDerivedAddress{PublicKey: k, Nonce: nonce}, nil
}

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrOnCurve is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program Key, seeds ...[]byte) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, errors.Wrapf(ErrTooManySeeds, "%d > %d", len(seeds), MaxSeeds)
	}
	if program == nil || program.Length() != PublicKeySize {
		return PublicKey{}, errors.Wrap(codec.ErrInvalidLength, "program id")
	}

	h := programHashCtor()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return PublicKey{}, errors.Wrapf(ErrMaxSeedLengthExceeded, "seed %d is %d bytes", i, len(s))
		}

		if _, err := h.Write(s); err != nil {
			return PublicKey{}, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program.Bytes(), []byte(pdaMarker)} {
		if _, err := h.Write(v); err != nil {
			return PublicKey{}, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub PublicKey
	copy(pub[:], h.Sum(nil))

	// Following the Solana SDK, we want to _reject_ the generated public key
	// if it's a valid compressed EdwardsPoint.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if isOnCurve(pub[:]) {
		return PublicKey{}, ErrOnCurve
	}

	return pub, nil
}

// FindProgramAddress mirrors the implementation of the Solana SDK's
// FindProgramAddress. Bumps are tried from 255 down to 0 and the first
// off-curve result is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddress(program Key, seeds ...[]byte) (ProgramDerivedAddress, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	bumpSeed := []byte{0}
	withBump[len(seeds)] = bumpSeed

	for bump := math.MaxUint8; bump >= 0; bump-- {
		bumpSeed[0] = byte(bump)

		pub, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return ProgramDerivedAddress{PublicKey: pub, Nonce: byte(bump)}, nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return ProgramDerivedAddress{}, err
		}
	}

	return ProgramDerivedAddress{}, ErrNoValidAddress
}
