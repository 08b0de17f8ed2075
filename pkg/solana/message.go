package solana

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232

	// MaxMessageVersion is the largest version number the tag byte can carry.
	MaxMessageVersion = 0x7f

	versionPrefixMask = 0x80
)

type Blockhash [sha256.Size]byte

func BlockhashFromBase58(s string) (Blockhash, error) {
	var h Blockhash
	b, err := base58.Decode(s)
	if err != nil {
		return h, errors.Wrapf(err, "invalid base58 blockhash %q", s)
	}
	if err := codec.DecodeExact(h[:], b); err != nil {
		return h, err
	}
	return h, nil
}

func (h Blockhash) String() string {
	return base58.Encode(h[:])
}

func (h Blockhash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Blockhash) UnmarshalText(b []byte) error {
	parsed, err := BlockhashFromBase58(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Blockhash) MarshalFormat(f codec.Format) ([]byte, error) {
	if f.IsBinary() {
		return append([]byte(nil), h[:]...), nil
	}
	return codec.QuoteString(h.String()), nil
}

func (h *Blockhash) UnmarshalFormat(f codec.Format, b []byte) error {
	if f.IsBinary() {
		return codec.DecodeExact(h[:], b)
	}

	s, err := codec.UnquoteString(b)
	if err == nil {
		err = h.UnmarshalText([]byte(s))
	}
	if err != nil && f == codec.FormatUnknown {
		return codec.DecodeExact(h[:], b)
	}
	return err
}

// MessageVersion tags a message as legacy or versioned. Versioned messages
// are stored as their version number plus one so that the zero value is
// legacy.
type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

// NewMessageVersion returns the tag for versioned message n.
func NewMessageVersion(n uint8) (MessageVersion, error) {
	if n > MaxMessageVersion {
		return 0, errors.Errorf("message version %d exceeds %d", n, MaxMessageVersion)
	}
	return MessageVersion(n + 1), nil
}

func (v MessageVersion) IsVersioned() bool {
	return v != MessageVersionLegacy
}

// Number is the on-wire version number. Only meaningful when IsVersioned.
func (v MessageVersion) Number() uint8 {
	if v == MessageVersionLegacy {
		return 0
	}
	return uint8(v) - 1
}

func (v MessageVersion) String() string {
	if v == MessageVersionLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", v.Number())
}

func (v MessageVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *MessageVersion) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "legacy" {
		*v = MessageVersionLegacy
		return nil
	}

	var n uint8
	if _, err := fmt.Sscanf(s, "v%d", &n); err != nil {
		return errors.Errorf("invalid message version %q", s)
	}
	parsed, err := NewMessageVersion(n)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type MessageHeader struct {
	NumSignatures       byte `json:"numRequiredSignatures"`
	NumReadonlySigned   byte `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsigned byte `json:"numReadonlyUnsignedAccounts"`
}

type MessageAddressTableLookup struct {
	PublicKey       PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

type jsonAddressTableLookup struct {
	AccountKey      PublicKey `json:"accountKey"`
	WritableIndexes []int     `json:"writableIndexes"`
	ReadonlyIndexes []int     `json:"readonlyIndexes"`
}

func (l MessageAddressTableLookup) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonAddressTableLookup{
		AccountKey:      l.PublicKey,
		WritableIndexes: indexInts(l.WritableIndexes),
		ReadonlyIndexes: indexInts(l.ReadonlyIndexes),
	})
}

func (l *MessageAddressTableLookup) UnmarshalJSON(b []byte) error {
	var in jsonAddressTableLookup
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	writable, err := indexBytes(in.WritableIndexes)
	if err != nil {
		return err
	}
	readonly, err := indexBytes(in.ReadonlyIndexes)
	if err != nil {
		return err
	}

	*l = MessageAddressTableLookup{
		PublicKey:       in.AccountKey,
		WritableIndexes: writable,
		ReadonlyIndexes: readonly,
	}
	return nil
}

// Message is either a legacy or a versioned transaction message. Address
// table lookups are only carried by versioned messages.
//
// Accounts[:Header.NumSignatures] are the signers, writable signers first.
// The fee payer is Accounts[0].
type Message struct {
	Version             MessageVersion
	Header              MessageHeader
	Accounts            []PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// FeePayer returns the first account, if any.
func (m Message) FeePayer() (PublicKey, bool) {
	if len(m.Accounts) == 0 || m.Header.NumSignatures == 0 {
		return PublicKey{}, false
	}
	return m.Accounts[0], true
}

// Signers returns the accounts that must sign, in signature order.
func (m Message) Signers() []PublicKey {
	n := int(m.Header.NumSignatures)
	if n > len(m.Accounts) {
		n = len(m.Accounts)
	}
	return append([]PublicKey(nil), m.Accounts[:n]...)
}

// AccountIndex returns the position of k in the static account list, or -1.
func (m Message) AccountIndex(k PublicKey) int {
	for i, a := range m.Accounts {
		if a == k {
			return i
		}
	}
	return -1
}

func (m Message) IsSigner(index int) bool {
	return index >= 0 && index < int(m.Header.NumSignatures)
}

// IsWritable applies the header's counts to a static account index.
func (m Message) IsWritable(index int) bool {
	if index < 0 || index >= len(m.Accounts) {
		return false
	}

	numSigners := int(m.Header.NumSignatures)
	if index < numSigners {
		return index < numSigners-int(m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadonlyUnsigned)
}

type jsonMessage struct {
	Version             MessageVersion              `json:"version"`
	Header              MessageHeader               `json:"header"`
	AccountKeys         []PublicKey                 `json:"accountKeys"`
	RecentBlockhash     Blockhash                   `json:"recentBlockhash"`
	Instructions        []CompiledInstruction       `json:"instructions"`
	AddressTableLookups []MessageAddressTableLookup `json:"addressTableLookups,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMessage{
		Version:             m.Version,
		Header:              m.Header,
		AccountKeys:         m.Accounts,
		RecentBlockhash:     m.RecentBlockhash,
		Instructions:        m.Instructions,
		AddressTableLookups: m.AddressTableLookups,
	})
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var in jsonMessage
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if !in.Version.IsVersioned() && len(in.AddressTableLookups) > 0 {
		return errors.New("legacy messages cannot carry address table lookups")
	}

	*m = Message{
		Version:             in.Version,
		Header:              in.Header,
		Accounts:            in.AccountKeys,
		RecentBlockhash:     in.RecentBlockhash,
		Instructions:        in.Instructions,
		AddressTableLookups: in.AddressTableLookups,
	}
	return m.validate()
}

func (m Message) MarshalFormat(f codec.Format) ([]byte, error) {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return m.Marshal(), nil
	case codec.FormatJSON, codec.FormatUnknown:
		return json.Marshal(m)
	}
	return nil, errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}

func (m *Message) UnmarshalFormat(f codec.Format, b []byte) error {
	switch f {
	case codec.FormatBorsh, codec.FormatWire:
		return m.Unmarshal(b)
	case codec.FormatJSON:
		return json.Unmarshal(b, m)
	case codec.FormatUnknown:
		if err := json.Unmarshal(b, m); err == nil {
			return nil
		}
		return m.Unmarshal(b)
	}
	return errors.Wrapf(codec.ErrUnknownFormat, "%d", f)
}
