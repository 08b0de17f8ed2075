package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

type Signature [ed25519.SignatureSize]byte

func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, errors.Wrapf(err, "invalid base58 signature %q", s)
	}
	if err := codec.DecodeExact(sig[:], b); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) IsZero() bool {
	return s == Signature{}
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(b []byte) error {
	parsed, err := SignatureFromBase58(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Signature) MarshalFormat(f codec.Format) ([]byte, error) {
	if f.IsBinary() {
		return append([]byte(nil), s[:]...), nil
	}
	return codec.QuoteString(s.String()), nil
}

func (s *Signature) UnmarshalFormat(f codec.Format, b []byte) error {
	if f.IsBinary() {
		return codec.DecodeExact(s[:], b)
	}

	str, err := codec.UnquoteString(b)
	if err == nil {
		err = s.UnmarshalText([]byte(str))
	}
	if err != nil && f == codec.FormatUnknown {
		return codec.DecodeExact(s[:], b)
	}
	return err
}

// Transaction pairs a message with one signature slot per required signer.
type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewUnsignedTransaction returns a transaction with zero filled signature
// slots for m.
func NewUnsignedTransaction(m Message) Transaction {
	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// NewTransaction compiles a legacy transaction with payer as the fee payer.
// The blockhash is left zeroed for SetBlockhash.
func NewTransaction(payer PublicKey, instructions ...Instruction) (Transaction, error) {
	m, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(instructions...).
		Build()
	if err != nil {
		return Transaction{}, err
	}
	return NewUnsignedTransaction(m), nil
}

// Signature returns the first signature, which identifies the transaction.
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

// SetBlockhash replaces the blockhash. Existing signatures are invalidated
// and cleared.
func (t *Transaction) SetBlockhash(bh Blockhash) {
	if t.Message.RecentBlockhash == bh {
		return
	}
	t.Message.RecentBlockhash = bh
	for i := range t.Signatures {
		t.Signatures[i] = Signature{}
	}
}

// VerifySignatures checks every signature slot against its signer.
func (t *Transaction) VerifySignatures() error {
	signers := t.Message.Signers()
	if len(signers) != len(t.Signatures) {
		return errors.Errorf("%d signatures for %d signers", len(t.Signatures), len(signers))
	}

	message := t.Message.Marshal()
	for i, signer := range signers {
		if !ed25519.Verify(signer.ToEd25519(), message, t.Signatures[i][:]) {
			return errors.Errorf("invalid signature %d for %s", i, signer)
		}
	}
	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, s))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.Version))
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadonlyUnsigned: %d\n", t.Message.Header.NumReadonlyUnsigned))
	sb.WriteString(fmt.Sprintf("    NumReadonlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, a))
	}
	sb.WriteString(fmt.Sprintf("  Recent Blockhash: %s\n", t.Message.RecentBlockhash))
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	if len(t.Message.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for _, lookup := range t.Message.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("    %s:\n", lookup.PublicKey))
			sb.WriteString(fmt.Sprintf("      Writable Indexes: %v\n", lookup.WritableIndexes))
			sb.WriteString(fmt.Sprintf("      Readonly Indexes: %v\n", lookup.ReadonlyIndexes))
		}
	}
	return sb.String()
}

type jsonTransaction struct {
	Signatures []Signature `json:"signatures"`
	Message    Message     `json:"message"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	sigs := t.Signatures
	if sigs == nil {
		sigs = []Signature{}
	}
	return json.Marshal(jsonTransaction{Signatures: sigs, Message: t.Message})
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var in jsonTransaction
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if len(in.Signatures) != int(in.Message.Header.NumSignatures) {
		return errors.Errorf("%d signatures for %d required signers", len(in.Signatures), in.Message.Header.NumSignatures)
	}
	t.Signatures = in.Signatures
	t.Message = in.Message
	return nil
}

func (t Transaction) MarshalFormat(f codec.Format) ([]byte, error) {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return t.Marshal(), nil
	case codec.FormatJSON, codec.FormatUnknown:
		return json.Marshal(t)
	}
	return nil, errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}

func (t *Transaction) UnmarshalFormat(f codec.Format, b []byte) error {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return t.Unmarshal(b)
	case codec.FormatJSON:
		return json.Unmarshal(b, t)
	case codec.FormatUnknown:
		if err := json.Unmarshal(b, t); err == nil {
			return nil
		}
		return t.Unmarshal(b)
	}
	return errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}
