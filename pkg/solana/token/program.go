package token

import (
	"math"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = solana.MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo
	CommandBurn
	CommandCloseAccount
	CommandFreezeAccount
	CommandThawAccount
	CommandTransferChecked
	CommandApproveChecked
	CommandMintToChecked
	CommandBurnChecked

	CommandUnknown = Command(math.MaxUint8)
)

// Custom errors returned by the token program.
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

type AuthorityType byte

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountHolder
	AuthorityTypeCloseAccount
)

type commandArgs struct {
	Command Command
}

type amountArgs struct {
	Command Command
	Amount  uint64
}

type checkedAmountArgs struct {
	Command  Command
	Amount   uint64
	Decimals uint8
}

type initializeMintArgs struct {
	Command         Command
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

type setAuthorityArgs struct {
	Command      Command
	Type         AuthorityType
	NewAuthority *solana.PublicKey
}

// encode lays out fixed instruction arguments. The argument structs only hold
// borsh-supported kinds, so a failure is a programming error.
func encode(args interface{}) []byte {
	b, err := borsh.Serialize(args)
	if err != nil {
		panic(errors.Wrap(err, "token: invalid instruction layout"))
	}
	return b
}

// decode reads instruction arguments and rejects data of any other size.
func decode(data []byte, size int, args interface{}) error {
	if len(data) != size {
		return errors.Errorf("invalid instruction data size: %d", len(data))
	}
	return errors.Wrap(borsh.Deserialize(args, data), "invalid instruction data")
}

// GetCommand returns the command of the token instruction at index.
func GetCommand(m solana.Message, index int) (Command, error) {
	i, err := m.ResolveInstruction(index, ProgramKey)
	if err != nil {
		return CommandUnknown, err
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// resolve loads the token instruction at index, checking the command and
// that at least minAccounts accounts are present. Multisig variants carry
// extra signer accounts.
func resolve(m solana.Message, index int, command Command, minAccounts int) (solana.Instruction, error) {
	i, err := m.ResolveInstruction(index, ProgramKey)
	if err != nil {
		return i, err
	}
	if len(i.Data) == 0 || Command(i.Data[0]) != command {
		return i, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) < minAccounts {
		return i, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	return i, nil
}

func withSigners(accounts []solana.AccountMeta, signers []solana.PublicKey) []solana.AccountMeta {
	for _, s := range signers {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(s, true))
	}
	return accounts
}

func signerKeys(accounts []solana.AccountMeta) []solana.PublicKey {
	if len(accounts) == 0 {
		return nil
	}
	keys := make([]solana.PublicKey, len(accounts))
	for i, a := range accounts {
		keys[i] = a.PublicKey
	}
	return keys
}

// InitializeMint initializes a new mint. The mint account must already be
// allocated with MintSize bytes and owned by the token program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L22-L39
func InitializeMint(mint, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey, decimals uint8) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	return solana.NewInstruction(
		ProgramKey,
		encode(initializeMintArgs{
			Command:         CommandInitializeMint,
			Decimals:        decimals,
			MintAuthority:   mintAuthority,
			FreezeAuthority: freezeAuthority,
		}),
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
	Decimals        uint8
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := resolve(m, index, CommandInitializeMint, 2)
	if err != nil {
		return nil, err
	}
	if i.Accounts[1].PublicKey != system.RentSysVar {
		return nil, errors.Errorf("invalid rent program")
	}

	size := 1 + 1 + solana.PublicKeySize + 1
	if len(i.Data) > size {
		size += solana.PublicKeySize
	}

	var args initializeMintArgs
	if err := decode(i.Data, size, &args); err != nil {
		return nil, err
	}

	return &DecompiledInitializeMint{
		Mint:            i.Accounts[0].PublicKey,
		MintAuthority:   args.MintAuthority,
		FreezeAuthority: args.FreezeAuthority,
		Decimals:        args.Decimals,
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner/multisignature.
	//   3. `[]` Rent sysvar
	return solana.NewInstruction(
		ProgramKey,
		encode(commandArgs{Command: CommandInitializeAccount}),
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeAccount struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
}

func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	i, err := resolve(m, index, CommandInitializeAccount, 4)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if i.Accounts[3].PublicKey != system.RentSysVar {
		return nil, errors.Errorf("invalid rent program")
	}

	return &DecompiledInitializeAccount{
		Account: i.Accounts[0].PublicKey,
		Mint:    i.Accounts[1].PublicKey,
		Owner:   i.Accounts[2].PublicKey,
	}, nil
}

// SetAuthority sets a new authority of a mint or account. A nil newAuthority
// removes the authority.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L128-L139
func SetAuthority(account, currentAuthority solana.PublicKey, newAuthority *solana.PublicKey, authorityType AuthorityType, signers ...solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[signer]` The current authority of the mint or account.
	//
	//   * Multisignature authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[]` The mint's or account's multisignature authority.
	//   2. ..2+M `[signer]` M signer accounts
	return solana.NewInstruction(
		ProgramKey,
		encode(setAuthorityArgs{
			Command:      CommandSetAuthority,
			Type:         authorityType,
			NewAuthority: newAuthority,
		}),
		withSigners([]solana.AccountMeta{
			solana.NewAccountMeta(account, false),
			solana.NewReadonlyAccountMeta(currentAuthority, len(signers) == 0),
		}, signers)...,
	)
}

type DecompiledSetAuthority struct {
	Account          solana.PublicKey
	CurrentAuthority solana.PublicKey
	NewAuthority     *solana.PublicKey
	Type             AuthorityType
	Signers          []solana.PublicKey
}

func DecompileSetAuthority(m solana.Message, index int) (*DecompiledSetAuthority, error) {
	i, err := resolve(m, index, CommandSetAuthority, 2)
	if err != nil {
		return nil, err
	}
	if len(i.Data) < 3 {
		return nil, errors.Errorf("invalid data size: %d (expect at least 3)", len(i.Data))
	}

	size := 3
	if i.Data[2] == 1 {
		size += solana.PublicKeySize
	}

	var args setAuthorityArgs
	if err := decode(i.Data, size, &args); err != nil {
		return nil, err
	}

	return &DecompiledSetAuthority{
		Account:          i.Accounts[0].PublicKey,
		CurrentAuthority: i.Accounts[1].PublicKey,
		NewAuthority:     args.NewAuthority,
		Type:             args.Type,
		Signers:          signerKeys(i.Accounts[2:]),
	}, nil
}

// Transfer moves tokens between accounts of the same mint. Passing signers
// makes owner a multisig account.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, dest, owner solana.PublicKey, amount uint64, signers ...solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The source account's owner/delegate.
	//
	//   * Multisignature owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[]` The source account's multisignature owner/delegate.
	//   3. ..3+M `[signer]` M signer accounts.
	return solana.NewInstruction(
		ProgramKey,
		encode(amountArgs{Command: CommandTransfer, Amount: amount}),
		withSigners([]solana.AccountMeta{
			solana.NewAccountMeta(source, false),
			solana.NewAccountMeta(dest, false),
			solana.NewReadonlyAccountMeta(owner, len(signers) == 0),
		}, signers)...,
	)
}

type DecompiledTransfer struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
	Amount      uint64
	Signers     []solana.PublicKey
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := resolve(m, index, CommandTransfer, 3)
	if err != nil {
		return nil, err
	}

	var args amountArgs
	if err := decode(i.Data, 9, &args); err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		Source:      i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
		Amount:      args.Amount,
		Signers:     signerKeys(i.Accounts[3:]),
	}, nil
}

// TransferChecked is Transfer with the mint and its decimals asserted by the
// program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L230-L252
func TransferChecked(source, mint, dest, owner solana.PublicKey, amount uint64, decimals uint8, signers ...solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[signer]` The source account's owner/delegate.
	//
	//   * Multisignature owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[]` The source account's multisignature owner/delegate.
	//   4. ..4+M `[signer]` M signer accounts.
	return solana.NewInstruction(
		ProgramKey,
		encode(checkedAmountArgs{Command: CommandTransferChecked, Amount: amount, Decimals: decimals}),
		withSigners([]solana.AccountMeta{
			solana.NewAccountMeta(source, false),
			solana.NewReadonlyAccountMeta(mint, false),
			solana.NewAccountMeta(dest, false),
			solana.NewReadonlyAccountMeta(owner, len(signers) == 0),
		}, signers)...,
	)
}

type DecompiledTransferChecked struct {
	Source      solana.PublicKey
	Mint        solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
	Amount      uint64
	Decimals    uint8
	Signers     []solana.PublicKey
}

func DecompileTransferChecked(m solana.Message, index int) (*DecompiledTransferChecked, error) {
	i, err := resolve(m, index, CommandTransferChecked, 4)
	if err != nil {
		return nil, err
	}

	var args checkedAmountArgs
	if err := decode(i.Data, 10, &args); err != nil {
		return nil, err
	}

	return &DecompiledTransferChecked{
		Source:      i.Accounts[0].PublicKey,
		Mint:        i.Accounts[1].PublicKey,
		Destination: i.Accounts[2].PublicKey,
		Owner:       i.Accounts[3].PublicKey,
		Amount:      args.Amount,
		Decimals:    args.Decimals,
		Signers:     signerKeys(i.Accounts[4:]),
	}, nil
}

// MintTo mints new tokens to dest, signed by the mint authority.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L155
func MintTo(mint, dest, mintAuthority solana.PublicKey, amount uint64, signers ...solana.PublicKey) solana.Instruction {
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	return solana.NewInstruction(
		ProgramKey,
		encode(amountArgs{Command: CommandMintTo, Amount: amount}),
		withSigners([]solana.AccountMeta{
			solana.NewAccountMeta(mint, false),
			solana.NewAccountMeta(dest, false),
			solana.NewReadonlyAccountMeta(mintAuthority, len(signers) == 0),
		}, signers)...,
	)
}

type DecompiledMintTo struct {
	Mint          solana.PublicKey
	Destination   solana.PublicKey
	MintAuthority solana.PublicKey
	Amount        uint64
	Signers       []solana.PublicKey
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, err := resolve(m, index, CommandMintTo, 3)
	if err != nil {
		return nil, err
	}

	var args amountArgs
	if err := decode(i.Data, 9, &args); err != nil {
		return nil, err
	}

	return &DecompiledMintTo{
		Mint:          i.Accounts[0].PublicKey,
		Destination:   i.Accounts[1].PublicKey,
		MintAuthority: i.Accounts[2].PublicKey,
		Amount:        args.Amount,
		Signers:       signerKeys(i.Accounts[3:]),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L183-L197
func CloseAccount(account, dest, owner solana.PublicKey, signers ...solana.PublicKey) solana.Instruction {
	// Close an account by transferring all its SOL to the destination account.
	// Non-native accounts may only be closed if its token amount is zero.
	//
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The account's owner.
	//
	//   * Multisignature owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[]` The account's multisignature owner.
	//   3. ..3+M `[signer]` M signer accounts.
	return solana.NewInstruction(
		ProgramKey,
		encode(commandArgs{Command: CommandCloseAccount}),
		withSigners([]solana.AccountMeta{
			solana.NewAccountMeta(account, false),
			solana.NewAccountMeta(dest, false),
			solana.NewReadonlyAccountMeta(owner, len(signers) == 0),
		}, signers)...,
	)
}

type DecompiledCloseAccount struct {
	Account     solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
	Signers     []solana.PublicKey
}

func DecompileCloseAccount(m solana.Message, index int) (*DecompiledCloseAccount, error) {
	i, err := resolve(m, index, CommandCloseAccount, 3)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}

	return &DecompiledCloseAccount{
		Account:     i.Accounts[0].PublicKey,
		Destination: i.Accounts[1].PublicKey,
		Owner:       i.Accounts[2].PublicKey,
		Signers:     signerKeys(i.Accounts[3:]),
	}, nil
}
