package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

var (
	// ErrSignerMismatch is returned when a signer is not one of the message's
	// required signers.
	ErrSignerMismatch = errors.New("signer is not a required signer")

	// ErrPayloadIsMessage is returned when an off-chain payload would also be
	// a valid transaction message.
	ErrPayloadIsMessage = errors.New("payload is a transaction message")
)

// Signer produces Ed25519 signatures for a single key. Implementations may
// be remote, so signing takes a context.
type Signer interface {
	PublicKey() PublicKey
	SignPayload(ctx context.Context, payload []byte) (Signature, error)
}

// KeypairSigner signs with an in-memory private key.
type KeypairSigner struct {
	pub  PublicKey
	priv ed25519.PrivateKey
}

func NewKeypairSigner(priv ed25519.PrivateKey) (*KeypairSigner, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(codec.ErrInvalidLength, "private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}

	pub, err := PublicKeyFromEd25519(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &KeypairSigner{pub: pub, priv: priv}, nil
}

func GenerateKeypairSigner() (*KeypairSigner, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return NewKeypairSigner(priv)
}

// KeypairSignerFromJSON parses the keypair file format written by the Solana
// CLI: a JSON array of the 64 private key bytes.
func KeypairSignerFromJSON(b []byte) (*KeypairSigner, error) {
	var raw []int
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(codec.ErrInvalidFormat, "keypair must be a json byte array")
	}

	priv := make(ed25519.PrivateKey, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(codec.ErrInvalidFormat, "keypair byte %d out of range", i)
		}
		priv[i] = byte(v)
	}

	signer, err := NewKeypairSigner(priv)
	if err != nil {
		return nil, err
	}

	// The file carries the public key too; make sure it matches.
	if !bytes.Equal(signer.pub[:], priv[32:]) {
		return nil, errors.Wrap(codec.ErrInvalidFormat, "keypair public key does not match private key")
	}
	return signer, nil
}

// MarshalKeypairJSON writes the key in the format read by
// KeypairSignerFromJSON.
func (s *KeypairSigner) MarshalKeypairJSON() ([]byte, error) {
	raw := make([]int, len(s.priv))
	for i, b := range s.priv {
		raw[i] = int(b)
	}
	return json.Marshal(raw)
}

func (s *KeypairSigner) PublicKey() PublicKey {
	return s.pub
}

func (s *KeypairSigner) SignPayload(_ context.Context, payload []byte) (Signature, error) {
	var sig Signature
	copy(sig[:], ed25519.Sign(s.priv, payload))
	return sig, nil
}

// Sign signs the message with each signer. Every signer must be one of the
// message's required signers; slots are resolved before any signing starts
// and filled concurrently.
func (t *Transaction) Sign(ctx context.Context, signers ...Signer) error {
	required := t.Message.Signers()

	slots := make([]int, len(signers))
	claimed := make(map[int]bool, len(signers))
	for i, s := range signers {
		slot := -1
		for j, k := range required {
			if k == s.PublicKey() {
				slot = j
				break
			}
		}
		if slot < 0 {
			return errors.Wrap(ErrSignerMismatch, s.PublicKey().String())
		}
		if claimed[slot] {
			return errors.Errorf("duplicate signer %s", s.PublicKey())
		}

		claimed[slot] = true
		slots[i] = slot
	}

	if len(t.Signatures) != len(required) {
		t.Signatures = make([]Signature, len(required))
	}

	message := t.Message.Marshal()

	sigs := make([]Signature, len(signers))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range signers {
		i, s := i, s
		g.Go(func() error {
			sig, err := s.SignPayload(ctx, message)
			if err != nil {
				return errors.Wrapf(err, "failed to sign with %s", s.PublicKey())
			}
			sigs[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, slot := range slots {
		t.Signatures[slot] = sigs[i]
	}
	return nil
}

// SignTransaction wraps m in a transaction signed by a single signer. Other
// signature slots stay zeroed.
func SignTransaction(ctx context.Context, signer Signer, m Message) (Transaction, error) {
	txn := NewUnsignedTransaction(m)
	if err := txn.Sign(ctx, signer); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// SignOffChainMessage signs an arbitrary payload. Payloads that decode as a
// transaction message are refused so that a signature produced here can
// never authorize a transaction.
func SignOffChainMessage(ctx context.Context, signer Signer, payload []byte) (Signature, error) {
	if _, err := ParseMessage(payload); err == nil {
		return Signature{}, ErrPayloadIsMessage
	}
	return signer.SignPayload(ctx, payload)
}
