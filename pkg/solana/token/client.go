package token

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates the mint account is missing its token state.
	ErrInvalidMint = errors.New("invalid mint")
)

// Client provides utilities for accessing token accounts for a given token.
type Client struct {
	log   *logrus.Entry
	sc    solana.Client
	token solana.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc solana.Client, token solana.PublicKey) *Client {
	return &Client{
		log:   logrus.StandardLogger().WithField("type", "solana/token/client"),
		sc:    sc,
		token: token,
	}
}

func (c *Client) Token() solana.PublicKey {
	return c.token
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(ctx context.Context, accountID solana.PublicKey, commitment solana.Commitment) (*Account, error) {
	log := c.log.WithField("account", accountID.String())

	accountInfo, err := c.sc.GetAccountInfo(ctx, accountID, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if accountInfo.Owner != ProgramKey {
		log.WithField("owner", accountInfo.Owner.String()).Debug("account not owned by token program")
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) {
		return nil, ErrInvalidTokenAccount
	}
	if account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	if c.token != account.Mint {
		log.WithField("mint", account.Mint.String()).Debug("account belongs to a different mint")
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetMint returns the state of the client's mint.
func (c *Client) GetMint(ctx context.Context, commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.sc.GetAccountInfo(ctx, c.token, commitment)
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if accountInfo.Owner != ProgramKey {
		return nil, ErrInvalidMint
	}

	var mint Mint
	if err := mint.Unmarshal(accountInfo.Data); err != nil {
		return nil, errors.Wrap(ErrInvalidMint, err.Error())
	}
	if !mint.IsInitialized {
		return nil, ErrInvalidMint
	}
	return &mint, nil
}
