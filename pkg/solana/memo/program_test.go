package memo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

func TestInstruction(t *testing.T) {
	i := Instruction("hello, world!")
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "hello, world!", string(i.Data))

	signer := generateKey(t)
	i = Instruction("signed", signer)
	assert.Equal(t, []solana.AccountMeta{solana.NewAccountMeta(signer, true)}, i.Accounts)
}

func TestInstruction_Message(t *testing.T) {
	account := generateKey(t)

	tx, err := solana.NewTransaction(account, Instruction("hello world ", account))
	require.NoError(t, err)

	m := tx.Message
	assert.Equal(t, []solana.PublicKey{account, ProgramKey}, m.Accounts)
	assert.Equal(t, solana.MessageHeader{NumSignatures: 1, NumReadonlyUnsigned: 1}, m.Header)
	require.Len(t, m.Instructions, 1)
	assert.Equal(t, []byte{0}, m.Instructions[0].Accounts)
	assert.EqualValues(t, 1, m.Instructions[0].ProgramIndex)
}

func TestDecompile(t *testing.T) {
	payer := generateKey(t)
	tx, err := solana.NewTransaction(payer, Instruction("hello, world", payer))
	require.NoError(t, err)

	i, err := DecompileMemo(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(i.Data))
	assert.Equal(t, []solana.PublicKey{payer}, i.Signers)

	_, err = DecompileMemo(tx.Message, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	tx.Message.Accounts[1] = generateKey(t)
	_, err = DecompileMemo(tx.Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestDecompile_V1(t *testing.T) {
	payer := generateKey(t)
	tx, err := solana.NewTransaction(payer, solana.NewInstruction(ProgramKeyV1, []byte("legacy")))
	require.NoError(t, err)

	i, err := DecompileMemo(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(i.Data))
	assert.Empty(t, i.Signers)
}

func TestDecompile_Invalid(t *testing.T) {
	payer := generateKey(t)
	other := generateKey(t)

	tx, err := solana.NewTransaction(payer, solana.NewInstruction(ProgramKey, []byte{0xff, 0xfe}))
	require.NoError(t, err)
	_, err = DecompileMemo(tx.Message, 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	tx, err = solana.NewTransaction(payer, solana.NewInstruction(ProgramKey, []byte("x"), solana.NewReadonlyAccountMeta(other, false)))
	require.NoError(t, err)
	_, err = DecompileMemo(tx.Message, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a signer")
}

func generateKey(t *testing.T) solana.PublicKey {
	signer, err := solana.GenerateKeypairSigner()
	require.NoError(t, err)
	return signer.PublicKey()
}
