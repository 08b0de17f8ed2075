package solana

import (
	"bytes"
	"encoding/base64"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memoProgram = MustPublicKey("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

func TestMessageBuilder_Memo(t *testing.T) {
	raw, err := base64.RawStdEncoding.DecodeString("XJy50755nz75BGthIrxe7XIQ9WkcMxgIOCmqEM30qq4")
	require.NoError(t, err)
	account, err := NewPublicKey(raw)
	require.NoError(t, err)

	data := []byte("hello world ")
	m, err := NewMessageBuilder().
		SetFeePayer(account).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(memoProgram, data, NewReadonlyAccountMeta(account, true))).
		Build()
	require.NoError(t, err)

	var expected bytes.Buffer
	expected.Write([]byte{1, 0, 1, 2})
	expected.Write(account[:])
	expected.Write(memoProgram[:])
	expected.Write(make([]byte, 32))
	expected.Write([]byte{1, 1, 1, 0, 12})
	expected.Write(data)

	assert.Equal(t, expected.Bytes(), m.Marshal())

	payer, ok := m.FeePayer()
	require.True(t, ok)
	assert.Equal(t, account, payer)
	assert.Equal(t, []PublicKey{account}, m.Signers())
	assert.True(t, m.IsSigner(0))
	assert.True(t, m.IsWritable(0))
	assert.False(t, m.IsSigner(1))
	assert.False(t, m.IsWritable(1))
	assert.Equal(t, 1, m.AccountIndex(memoProgram))
	assert.Equal(t, -1, m.AccountIndex(PublicKey{9}))

	decoded, err := ParseMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestMessageBuilder_MemoWritableSigner(t *testing.T) {
	raw, err := base64.RawStdEncoding.DecodeString("XJy50755nz75BGthIrxe7XIQ9WkcMxgIOCmqEM30qq4")
	require.NoError(t, err)
	account, err := NewPublicKey(raw)
	require.NoError(t, err)

	// No explicit fee payer: the writable signer becomes the payer.
	data := []byte("hello world ")
	m, err := NewMessageBuilder().
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(memoProgram, data, NewAccountMeta(account, true))).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 0, 1, 2}, m.Marshal()[:4])
	assert.Equal(t, MessageHeader{NumSignatures: 1, NumReadonlySigned: 0, NumReadonlyUnsigned: 1}, m.Header)
	assert.Equal(t, []PublicKey{account, memoProgram}, m.Accounts)
	require.Len(t, m.Instructions, 1)
	assert.EqualValues(t, 1, m.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{0}, m.Instructions[0].Accounts)
	assert.Equal(t, data, m.Instructions[0].Data)

	payer, ok := m.FeePayer()
	require.True(t, ok)
	assert.Equal(t, account, payer)
}

func TestMessageBuilder_FeePayerDedupe(t *testing.T) {
	keys := generateSigners(t, 3)
	payer, other, program := keys[0].PublicKey(), keys[1].PublicKey(), keys[2].PublicKey()

	// The payer appears as a readonly non-signer; it still ends up first as
	// a writable signer, exactly once.
	m, err := NewMessageBuilder().
		SetRecentBlockhash(Blockhash{1}).
		AddInstruction(NewInstruction(program, nil, NewAccountMeta(other, false), NewReadonlyAccountMeta(payer, false))).
		SetFeePayer(payer).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []PublicKey{payer, other, program}, m.Accounts)
	assert.Equal(t, MessageHeader{NumSignatures: 1, NumReadonlySigned: 0, NumReadonlyUnsigned: 1}, m.Header)
	assert.Equal(t, []byte{1, 0}, m.Instructions[0].Accounts)
}

func TestMessageBuilder_FirstSeenOrder(t *testing.T) {
	keys := generateSigners(t, 5)
	payer := keys[0].PublicKey()
	program := keys[1].PublicKey()

	var (
		a = PublicKey{0xff}
		b = PublicKey{0x01}
		c = PublicKey{0x80}
	)

	m, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(
			program,
			[]byte{1},
			NewReadonlyAccountMeta(a, false),
			NewReadonlyAccountMeta(b, false),
			NewReadonlyAccountMeta(c, false),
		)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []PublicKey{payer, a, b, c, program}, m.Accounts)
	assert.EqualValues(t, 4, m.Header.NumReadonlyUnsigned)
}

func TestMessageBuilder_ProgramAsAccount(t *testing.T) {
	keys := generateSigners(t, 2)
	payer, program := keys[0].PublicKey(), keys[1].PublicKey()

	m, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, nil, NewAccountMeta(program, false))).
		Build()
	require.NoError(t, err)

	// A program referenced as a writable account is not appended again.
	assert.Equal(t, []PublicKey{payer, program}, m.Accounts)
	assert.EqualValues(t, 0, m.Header.NumReadonlyUnsigned)
	assert.Equal(t, byte(1), m.Instructions[0].ProgramIndex)
}

func TestMessageBuilder_InstructionDataCopied(t *testing.T) {
	keys := generateSigners(t, 2)
	data := []byte{1, 2, 3}

	m, err := NewMessageBuilder().
		SetFeePayer(keys[0].PublicKey()).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(keys[1].PublicKey(), data)).
		Build()
	require.NoError(t, err)

	data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, m.Instructions[0].Data)
}

func TestMessageBuilder_Errors(t *testing.T) {
	keys := generateSigners(t, 2)
	payer, program := keys[0].PublicKey(), keys[1].PublicKey()

	_, err := NewMessageBuilder().SetFeePayer(payer).Build()
	assert.Equal(t, ErrMissingBlockhash, err)

	// Without a fee payer there must be a writable signer.
	_, err = NewMessageBuilder().
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, nil, NewReadonlyAccountMeta(payer, true))).
		Build()
	assert.Equal(t, ErrNoFeePayer, err)

	m, err := NewMessageBuilder().
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, nil, NewAccountMeta(payer, true))).
		Build()
	require.NoError(t, err)
	assert.Equal(t, payer, m.Accounts[0])

	var metas []AccountMeta
	for i := 0; i < 256; i++ {
		var k PublicKey
		k[0], k[1] = byte(i), 1
		metas = append(metas, NewReadonlyAccountMeta(k, false))
	}
	_, err = NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, nil, metas...)).
		Build()
	assert.True(t, errors.Is(err, ErrTooManyAccounts))
}

func TestMessageBuilder_InstructionTooLarge(t *testing.T) {
	keys := generateSigners(t, 2)
	payer, program := keys[0].PublicKey(), keys[1].PublicKey()

	_, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, make([]byte, 70000))).
		Build()
	assert.True(t, errors.Is(err, ErrInstructionTooLarge))

	metas := make([]AccountMeta, math.MaxUint16+1)
	for i := range metas {
		metas[i] = NewReadonlyAccountMeta(payer, false)
	}
	_, err = NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, nil, metas...)).
		Build()
	assert.True(t, errors.Is(err, ErrInstructionTooLarge))

	// The largest data length a compact-u16 prefix can carry still round trips.
	m, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{}).
		AddInstruction(NewInstruction(program, make([]byte, math.MaxUint16))).
		Build()
	require.NoError(t, err)

	decoded, err := ParseMessage(m.Marshal())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestMessageBuilder_Versioned(t *testing.T) {
	keys := generateSigners(t, 2)

	builder := NewMessageBuilder().
		SetFeePayer(keys[0].PublicKey()).
		SetRecentBlockhash(Blockhash{7}).
		AddInstruction(NewInstruction(keys[1].PublicKey(), []byte{1}))

	legacy, err := builder.Build()
	require.NoError(t, err)

	m, err := builder.BuildVersioned(0)
	require.NoError(t, err)
	assert.Equal(t, MessageVersion0, m.Version)

	encoded := m.Marshal()
	assert.Equal(t, byte(0x80), encoded[0])
	assert.Equal(t, legacy.Marshal(), encoded[1:len(encoded)-1])
	assert.Equal(t, byte(0), encoded[len(encoded)-1])

	decoded, err := ParseMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, MessageVersion0, decoded.Version)
	assert.Equal(t, encoded, decoded.Marshal())

	// Only v0 can be decoded.
	v1, err := builder.BuildVersioned(1)
	require.NoError(t, err)
	_, err = ParseMessage(v1.Marshal())
	assert.Error(t, err)

	_, err = builder.BuildVersioned(MaxMessageVersion + 1)
	assert.Error(t, err)
}

func TestMessage_ResolveInstruction(t *testing.T) {
	keys := generateSigners(t, 3)
	payer, source, dest := keys[0].PublicKey(), keys[1].PublicKey(), keys[2].PublicKey()

	ix := NewInstruction(
		memoProgram,
		[]byte{1, 2, 3},
		NewAccountMeta(source, true),
		NewReadonlyAccountMeta(dest, false),
	)
	m, err := NewMessageBuilder().
		SetFeePayer(payer).
		SetRecentBlockhash(Blockhash{1}).
		AddInstruction(ix).
		Build()
	require.NoError(t, err)

	resolved, err := m.ResolveInstruction(0, memoProgram)
	require.NoError(t, err)
	assert.Equal(t, ix, resolved)

	_, err = m.ResolveInstruction(0, payer)
	assert.ErrorIs(t, err, ErrIncorrectProgram)

	_, err = m.ResolveInstruction(1, memoProgram)
	assert.Error(t, err)
	_, err = m.ResolveInstruction(-1, memoProgram)
	assert.Error(t, err)

	m.Instructions[0].Accounts = append(m.Instructions[0].Accounts, 200)
	_, err = m.ResolveInstruction(0, memoProgram)
	assert.Error(t, err)
}
