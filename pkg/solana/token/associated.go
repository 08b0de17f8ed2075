package token

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = solana.MustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

const (
	commandCreate byte = iota
	commandCreateIdempotent
)

// GetAssociatedAccount returns the associated account address for an SPL token.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := GetAssociatedAccountForProgram(wallet, mint, ProgramKey)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return addr.PublicKey, nil
}

// GetAssociatedAccountForProgram derives the associated account of wallet
// for a mint owned by tokenProgram, along with its bump.
func GetAssociatedAccountForProgram(wallet, mint, tokenProgram solana.PublicKey) (solana.ProgramDerivedAddress, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet[:],
		tokenProgram[:],
		mint[:],
	)
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/0639953c7dd0f5228c3ceda3ba68fece3b46ff1d/associated-token-account/program/src/lib.rs#L54
func CreateAssociatedTokenAccount(subsidizer, wallet, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	return createAssociatedTokenAccount(commandCreate, subsidizer, wallet, mint)
}

// CreateAssociatedTokenAccountIdempotent succeeds when the account already
// exists with the same owner and mint.
func CreateAssociatedTokenAccountIdempotent(subsidizer, wallet, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	return createAssociatedTokenAccount(commandCreateIdempotent, subsidizer, wallet, mint)
}

func createAssociatedTokenAccount(command byte, subsidizer, wallet, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	addr, err := GetAssociatedAccount(wallet, mint)
	if err != nil {
		return solana.Instruction{}, solana.PublicKey{}, err
	}

	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{command},
		solana.NewAccountMeta(subsidizer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
		solana.NewReadonlyAccountMeta(ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Subsidizer solana.PublicKey
	Address    solana.PublicKey
	Owner      solana.PublicKey
	Mint       solana.PublicKey
}

// DecompileCreateAssociatedAccount also accepts the legacy empty data form.
func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	return decompileCreateAssociatedAccount(m, index, commandCreate)
}

func DecompileCreateAssociatedAccountIdempotent(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	return decompileCreateAssociatedAccount(m, index, commandCreateIdempotent)
}

func decompileCreateAssociatedAccount(m solana.Message, index int, command byte) (*DecompiledCreateAssociatedAccount, error) {
	i, err := m.ResolveInstruction(index, AssociatedTokenAccountProgramKey)
	if err != nil {
		return nil, err
	}

	switch {
	case len(i.Data) == 0 && command == commandCreate:
	case len(i.Data) == 1 && i.Data[0] == command:
	default:
		return nil, solana.ErrIncorrectInstruction
	}

	if len(i.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 7)
	}
	if i.Accounts[4].PublicKey != system.ProgramKey {
		return nil, errors.Errorf("system program key mismatch")
	}
	if i.Accounts[5].PublicKey != ProgramKey {
		return nil, errors.Errorf("token program key mismatch")
	}
	if i.Accounts[6].PublicKey != system.RentSysVar {
		return nil, errors.Errorf("rent sysvar mismatch")
	}

	expected, err := GetAssociatedAccount(i.Accounts[2].PublicKey, i.Accounts[3].PublicKey)
	if err != nil {
		return nil, err
	}
	if expected != i.Accounts[1].PublicKey {
		return nil, errors.Errorf("associated account mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Subsidizer: i.Accounts[0].PublicKey,
		Address:    i.Accounts[1].PublicKey,
		Owner:      i.Accounts[2].PublicKey,
		Mint:       i.Accounts[3].PublicKey,
	}, nil
}
