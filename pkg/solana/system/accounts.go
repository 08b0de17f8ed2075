package system

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

type NonceVersion uint32

type NonceState uint32

const (
	NonceAccountSize = 80
)

const (
	NonceVersion0 NonceVersion = iota
	NonceVersion1
)

const (
	NonceStateUninitialized NonceState = iota
	NonceStateInitialized
)

var (
	ErrInvalidAccountSize    = errors.New("invalid nonce account size")
	ErrInvalidAccountVersion = errors.New("invalid nonce account version")
	ErrInvalidAccountOwner   = errors.New("nonce account not owned by the system program")
)

// https://github.com/solana-labs/solana/blob/da00b39f4f92fb16417bd2d8bd218a04a34527b8/sdk/program/src/nonce/state/current.rs#L8
type NonceAccount struct {
	Version       NonceVersion
	State         NonceState
	Authority     solana.PublicKey
	Blockhash     solana.Blockhash
	FeeCalculator FeeCalculator
}

type FeeCalculator struct {
	LamportsPerSignature uint64
}

func (obj NonceAccount) Marshal() []byte {
	res := make([]byte, NonceAccountSize)

	var offset int
	binary.PutUint32(res[offset:], uint32(obj.Version), &offset)
	binary.PutUint32(res[offset:], uint32(obj.State), &offset)
	binary.PutKey32(res[offset:], obj.Authority, &offset)
	binary.PutKey32(res[offset:], solana.PublicKey(obj.Blockhash), &offset)

	binary.PutUint64(res[offset:], obj.FeeCalculator.LamportsPerSignature, &offset)

	return res
}

func (obj *NonceAccount) Unmarshal(data []byte) error {
	if len(data) != NonceAccountSize {
		return errors.Wrapf(ErrInvalidAccountSize, "%d", len(data))
	}

	var (
		offset         int
		version, state uint32
		blockhash      solana.PublicKey
	)

	binary.GetUint32(data[offset:], &version, &offset)
	binary.GetUint32(data[offset:], &state, &offset)
	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetKey32(data[offset:], &blockhash, &offset)

	binary.GetUint64(data[offset:], &obj.FeeCalculator.LamportsPerSignature, &offset)

	obj.Version = NonceVersion(version)
	obj.State = NonceState(state)
	obj.Blockhash = solana.Blockhash(blockhash)

	if obj.Version != NonceVersion1 {
		return ErrInvalidAccountVersion
	}

	return nil
}

// GetNonceAccount decodes the nonce account behind info, checking its owner.
func GetNonceAccount(info solana.AccountInfo) (*NonceAccount, error) {
	if info.Owner != ProgramKey {
		return nil, ErrInvalidAccountOwner
	}

	var account NonceAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return nil, err
	}
	return &account, nil
}
