package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet := solana.MustPublicKey("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	mint := solana.MustPublicKey("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	addr := solana.MustPublicKey("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")

	actual, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.Equal(t, addr, actual)

	pda, err := GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
	require.NoError(t, err)
	assert.Equal(t, addr, pda.PublicKey)
	assert.False(t, pda.IsOnCurve())
}

func TestCreateAssociatedAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	expectedAddr, err := GetAssociatedAccount(keys[1], keys[2])
	require.NoError(t, err)

	instruction, addr, err := CreateAssociatedTokenAccount(keys[0], keys[1], keys[2])
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)

	assertCreateAccounts(t, instruction)
	assert.Equal(t, []byte{commandCreate}, instruction.Data)

	decompiled, err := DecompileCreateAssociatedAccount(newMessage(t, keys[0], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Subsidizer)
	assert.Equal(t, addr, decompiled.Address)
	assert.Equal(t, keys[1], decompiled.Owner)
	assert.Equal(t, keys[2], decompiled.Mint)

	_, err = DecompileCreateAssociatedAccountIdempotent(newMessage(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	// Empty data is the legacy encoding of Create.
	instruction.Data = nil
	_, err = DecompileCreateAssociatedAccount(newMessage(t, keys[0], instruction), 0)
	require.NoError(t, err)

	instruction.Accounts[1].PublicKey = keys[2]
	_, err = DecompileCreateAssociatedAccount(newMessage(t, keys[0], instruction), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "associated account mismatch")

	instruction.Accounts[5].PublicKey = keys[2]
	_, err = DecompileCreateAssociatedAccount(newMessage(t, keys[0], instruction), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token program key mismatch")
}

func TestCreateAssociatedAccountIdempotent(t *testing.T) {
	keys := generateKeys(t, 3)

	expectedAddr, err := GetAssociatedAccount(keys[1], keys[2])
	require.NoError(t, err)

	instruction, addr, err := CreateAssociatedTokenAccountIdempotent(keys[0], keys[1], keys[2])
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)

	assertCreateAccounts(t, instruction)
	assert.Equal(t, []byte{commandCreateIdempotent}, instruction.Data)

	decompiled, err := DecompileCreateAssociatedAccountIdempotent(newMessage(t, keys[0], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Subsidizer)
	assert.Equal(t, keys[1], decompiled.Owner)
	assert.Equal(t, keys[2], decompiled.Mint)

	_, err = DecompileCreateAssociatedAccount(newMessage(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func assertCreateAccounts(t *testing.T, instruction solana.Instruction) {
	assert.Equal(t, AssociatedTokenAccountProgramKey, instruction.Program)
	require.Len(t, instruction.Accounts, 7)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	for i := 2; i < len(instruction.Accounts); i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
		assert.False(t, instruction.Accounts[i].IsWritable)
	}

	assert.Equal(t, system.ProgramKey, instruction.Accounts[4].PublicKey)
	assert.Equal(t, ProgramKey, instruction.Accounts[5].PublicKey)
	assert.Equal(t, system.RentSysVar, instruction.Accounts[6].PublicKey)
}
