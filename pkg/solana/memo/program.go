package memo

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// ProgramKey is the address of the memo program (v2).
//
// Current key: MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr
var ProgramKey = solana.MustPublicKey("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// ProgramKeyV1 is the deprecated memo program. It ignores signer accounts.
//
// Current key: Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo
var ProgramKeyV1 = solana.MustPublicKey("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")

var ErrInvalidUTF8 = errors.New("memo is not valid utf-8")

// Instruction publishes data as a memo. Every signer must sign the
// transaction for the memo to be accepted.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/entrypoint.rs
func Instruction(data string, signers ...solana.PublicKey) solana.Instruction {
	accounts := make([]solana.AccountMeta, len(signers))
	for i, signer := range signers {
		accounts[i] = solana.NewAccountMeta(signer, true)
	}

	return solana.NewInstruction(
		ProgramKey,
		[]byte(data),
		accounts...,
	)
}

type DecompiledMemo struct {
	Data    []byte
	Signers []solana.PublicKey
}

// DecompileMemo accepts instructions for either memo program version.
func DecompileMemo(m solana.Message, index int) (*DecompiledMemo, error) {
	i, err := m.ResolveInstruction(index, ProgramKey)
	if errors.Is(err, solana.ErrIncorrectProgram) {
		i, err = m.ResolveInstruction(index, ProgramKeyV1)
	}
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(i.Data) {
		return nil, ErrInvalidUTF8
	}

	decompiled := &DecompiledMemo{Data: i.Data}
	for _, a := range i.Accounts {
		if !a.IsSigner {
			return nil, errors.Errorf("memo account %s is not a signer", a.PublicKey)
		}
		decompiled.Signers = append(decompiled.Signers, a.PublicKey)
	}
	return decompiled, nil
}
