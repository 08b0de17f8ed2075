package solana

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
	"github.com/code-payments/code-solana-sdk/pkg/solana/shortvec"
)

var ErrTrailingBytes = errors.New("unexpected trailing bytes")

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	t.Message.encode(b)

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewReader(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	sigs := make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, sigs[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	var m Message
	if err := m.decode(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes after transaction", buf.Len())
	}
	if len(sigs) != int(m.Header.NumSignatures) {
		return errors.Errorf("%d signatures for %d required signers", len(sigs), m.Header.NumSignatures)
	}

	t.Signatures = sigs
	t.Message = m
	return nil
}

// Marshal returns the wire encoding of m. These are the bytes that get
// signed.
func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)
	m.encode(b)
	return b.Bytes()
}

func (m Message) encode(b *bytes.Buffer) {
	if m.Version.IsVersioned() {
		_ = b.WriteByte(versionPrefixMask | m.Version.Number())
	}

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadonlyUnsigned)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a[:])
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	if !m.Version.IsVersioned() {
		return
	}

	_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
	for _, lookup := range m.AddressTableLookups {
		_, _ = b.Write(lookup.PublicKey[:])

		_, _ = shortvec.EncodeLen(b, len(lookup.WritableIndexes))
		_, _ = b.Write(lookup.WritableIndexes)

		_, _ = shortvec.EncodeLen(b, len(lookup.ReadonlyIndexes))
		_, _ = b.Write(lookup.ReadonlyIndexes)
	}
}

// Unmarshal decodes a complete wire encoded message.
func (m *Message) Unmarshal(b []byte) error {
	buf := bytes.NewReader(b)

	var decoded Message
	if err := decoded.decode(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes after message", buf.Len())
	}

	*m = decoded
	return nil
}

// decode picks the layout from the high bit of the first byte. A legacy
// message starts with its signature count, which never has that bit set.
func (m *Message) decode(r *bytes.Reader) error {
	first, err := r.ReadByte()
	if err != nil {
		return errors.Wrap(err, "failed to read message prefix")
	}

	if first&versionPrefixMask == 0 {
		_ = r.UnreadByte()
		return m.decodeLegacy(r)
	}
	return m.decodeVersioned(first&^versionPrefixMask, r)
}

func (m *Message) decodeLegacy(r *bytes.Reader) error {
	*m = Message{Version: MessageVersionLegacy}
	if err := m.decodeBody(r); err != nil {
		return err
	}
	return m.validate()
}

func (m *Message) decodeVersioned(n uint8, r *bytes.Reader) error {
	version, err := NewMessageVersion(n)
	if err != nil {
		return err
	}
	if version != MessageVersion0 {
		return errors.Errorf("unsupported message version %s", version)
	}

	*m = Message{Version: version}
	if err := m.decodeBody(r); err != nil {
		return err
	}

	lookupLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read address table lookup len")
	}
	m.AddressTableLookups = make([]MessageAddressTableLookup, lookupLen)
	for i := range m.AddressTableLookups {
		lookup := &m.AddressTableLookups[i]

		key, err := codec.DecodeFixed(r, PublicKeySize)
		if err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] key", i)
		}
		copy(lookup.PublicKey[:], key)

		if lookup.WritableIndexes, err = readShortvecBytes(r); err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] writable indexes", i)
		}
		if lookup.ReadonlyIndexes, err = readShortvecBytes(r); err != nil {
			return errors.Wrapf(err, "failed to read address table lookup[%d] readonly indexes", i)
		}
	}

	return m.validate()
}

// decodeBody reads everything between the version prefix and the address
// table lookups.
func (m *Message) decodeBody(r *bytes.Reader) (err error) {
	// Header
	if m.Header.NumSignatures, err = r.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = r.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadonlyUnsigned, err = r.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		if _, err = io.ReadFull(r, m.Accounts[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Recent block hash
	if _, err = io.ReadFull(r, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(r)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		if c.ProgramIndex, err = r.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if c.Accounts, err = readShortvecBytes(r); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}
		if c.Data, err = readShortvecBytes(r); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	return nil
}

// validate checks the header counts and every index against the accounts
// the message can address, including those loaded from lookup tables.
func (m Message) validate() error {
	numAccounts := len(m.Accounts)
	if int(m.Header.NumSignatures) > numAccounts {
		return errors.Errorf("header requires %d signatures but has %d accounts", m.Header.NumSignatures, numAccounts)
	}
	if m.Header.NumReadonlySigned > m.Header.NumSignatures {
		return errors.Errorf("readonly signers %d exceed signers %d", m.Header.NumReadonlySigned, m.Header.NumSignatures)
	}
	if int(m.Header.NumReadonlyUnsigned) > numAccounts-int(m.Header.NumSignatures) {
		return errors.Errorf("readonly unsigned %d exceed unsigned accounts", m.Header.NumReadonlyUnsigned)
	}

	addressable := numAccounts
	for _, lookup := range m.AddressTableLookups {
		addressable += len(lookup.WritableIndexes) + len(lookup.ReadonlyIndexes)
	}

	for i, c := range m.Instructions {
		// Programs must be static accounts.
		if int(c.ProgramIndex) >= numAccounts {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}
		for _, index := range c.Accounts {
			if int(index) >= addressable {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}
	}

	return nil
}

func readShortvecBytes(r *bytes.Reader) ([]byte, error) {
	n, err := shortvec.DecodeLen(r)
	if err != nil {
		return nil, err
	}
	if n > r.Len() {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "need %d bytes, have %d", n, r.Len())
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseMessage decodes a wire encoded message.
func ParseMessage(b []byte) (Message, error) {
	var m Message
	if err := m.Unmarshal(b); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ParseTransaction decodes a wire encoded transaction.
func ParseTransaction(b []byte) (Transaction, error) {
	var t Transaction
	if err := t.Unmarshal(b); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
