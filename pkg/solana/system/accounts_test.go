package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

func TestNonceAccount_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 1)

	expected := NonceAccount{
		Version:   NonceVersion1,
		State:     NonceStateInitialized,
		Authority: keys[0],
		Blockhash: solana.Blockhash{1, 2, 3},
		FeeCalculator: FeeCalculator{
			LamportsPerSignature: 5000,
		},
	}

	b := expected.Marshal()
	require.Len(t, b, NonceAccountSize)
	assert.Equal(t, []byte{1, 0, 0, 0, 1, 0, 0, 0}, b[:8])

	var actual NonceAccount
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, expected, actual)

	account, err := GetNonceAccount(solana.AccountInfo{Data: b, Owner: ProgramKey})
	require.NoError(t, err)
	assert.Equal(t, expected, *account)

	value, err := GetNonceValueFromAccount(solana.AccountInfo{Data: b, Owner: ProgramKey})
	require.NoError(t, err)
	assert.Equal(t, expected.Blockhash, value)
}

func TestNonceAccount_Invalid(t *testing.T) {
	var account NonceAccount
	assert.ErrorIs(t, account.Unmarshal(make([]byte, 79)), ErrInvalidAccountSize)
	assert.ErrorIs(t, account.Unmarshal(make([]byte, NonceAccountSize)), ErrInvalidAccountVersion)

	_, err := GetNonceAccount(solana.AccountInfo{Data: make([]byte, NonceAccountSize), Owner: RentSysVar})
	assert.ErrorIs(t, err, ErrInvalidAccountOwner)
}
