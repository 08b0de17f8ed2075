package token

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

type fakeSolanaClient struct {
	solana.Client

	accounts map[solana.PublicKey]solana.AccountInfo
	err      error
}

func (f *fakeSolanaClient) GetAccountInfo(_ context.Context, account solana.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	if f.err != nil {
		return solana.AccountInfo{}, f.err
	}
	info, ok := f.accounts[account]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func TestClient_GetAccount(t *testing.T) {
	keys := generateKeys(t, 5)
	mint, owner, valid, otherMint, wrongOwner := keys[0], keys[1], keys[2], keys[3], keys[4]

	account := Account{Mint: mint, Owner: owner, Amount: 42, State: AccountStateInitialized}
	foreign := Account{Mint: otherMint, Owner: owner, State: AccountStateInitialized}

	sc := &fakeSolanaClient{accounts: map[solana.PublicKey]solana.AccountInfo{
		valid:      {Data: account.Marshal(), Owner: ProgramKey},
		otherMint:  {Data: foreign.Marshal(), Owner: ProgramKey},
		wrongOwner: {Data: account.Marshal(), Owner: owner},
		owner:      {Data: []byte{1, 2, 3}, Owner: ProgramKey},
	}}
	c := NewClient(sc, mint)
	assert.Equal(t, mint, c.Token())

	ctx := context.Background()

	actual, err := c.GetAccount(ctx, valid, solana.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, account, *actual)

	_, err = c.GetAccount(ctx, otherMint, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = c.GetAccount(ctx, wrongOwner, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = c.GetAccount(ctx, owner, solana.CommitmentConfirmed)
	assert.Equal(t, ErrInvalidTokenAccount, err)

	_, err = c.GetAccount(ctx, mint, solana.CommitmentConfirmed)
	assert.Equal(t, ErrAccountNotFound, err)

	sc.err = errors.New("unavailable")
	_, err = c.GetAccount(ctx, valid, solana.CommitmentConfirmed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestClient_GetMint(t *testing.T) {
	keys := generateKeys(t, 2)
	mint, authority := keys[0], keys[1]

	state := Mint{MintAuthority: &authority, Supply: 10, Decimals: 2, IsInitialized: true}
	sc := &fakeSolanaClient{accounts: map[solana.PublicKey]solana.AccountInfo{
		mint: {Data: state.Marshal(), Owner: ProgramKey},
	}}

	actual, err := NewClient(sc, mint).GetMint(context.Background(), solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, state, *actual)

	_, err = NewClient(sc, authority).GetMint(context.Background(), solana.CommitmentFinalized)
	assert.Equal(t, ErrAccountNotFound, err)

	state.IsInitialized = false
	sc.accounts[mint] = solana.AccountInfo{Data: state.Marshal(), Owner: ProgramKey}
	_, err = NewClient(sc, mint).GetMint(context.Background(), solana.CommitmentFinalized)
	assert.Equal(t, ErrInvalidMint, err)
}
