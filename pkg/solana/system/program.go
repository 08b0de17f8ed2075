package system

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// ProgramKey is the system program, 11111111111111111111111111111111.
var ProgramKey = solana.PublicKey{}

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
	// nolint:varcheck,deadcode,unused
	commandCreateAccountWithSeed
	commandAdvanceNonceAccount
	commandWithdrawNonceAccount
	commandInitializeNonceAccount
	commandAuthorizeNonceAccount
	commandAllocate
	// nolint:varcheck,deadcode,unused
	commandAllocateWithSeed
	// nolint:varcheck,deadcode,unused
	commandAssignWithSeed
	// nolint:varcheck,deadcode,unused
	commandTransferWithSeed
)

func newCommandData(command uint32, size int) ([]byte, int) {
	data := make([]byte, 4+size)
	var offset int
	binary.PutUint32(data, command, &offset)
	return data, offset
}

// resolve loads the instruction at index and checks its command and exact
// data size.
func resolve(m solana.Message, index int, command uint32, dataSize int) (solana.Instruction, error) {
	i, err := m.ResolveInstruction(index, ProgramKey)
	if err != nil {
		return i, err
	}

	if len(i.Data) < 4 {
		return i, solana.ErrIncorrectInstruction
	}
	var actual uint32
	var offset int
	binary.GetUint32(i.Data, &actual, &offset)
	if actual != command {
		return i, solana.ErrIncorrectInstruction
	}
	if len(i.Data) != dataSize {
		return i, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return i, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner solana.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data, offset := newCommandData(commandCreateAccount, 2*8+solana.PublicKeySize)
	binary.PutUint64(data[offset:], lamports, &offset)
	binary.PutUint64(data[offset:], size, &offset)
	binary.PutKey32(data[offset:], owner, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  solana.PublicKey
	Address solana.PublicKey

	Lamports uint64
	Size     uint64
	Owner    solana.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := resolve(m, index, commandCreateAccount, 52)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledCreateAccount{
		Funder:  i.Accounts[0].PublicKey,
		Address: i.Accounts[1].PublicKey,
	}

	offset := 4
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	binary.GetUint64(i.Data[offset:], &v.Size, &offset)
	binary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	return v, nil
}

// Assign returns an instruction changing the owning program of account.
func Assign(account, owner solana.PublicKey) solana.Instruction {
	//   0. [WRITE, SIGNER] Assigned account public key
	data, offset := newCommandData(commandAssign, solana.PublicKeySize)
	binary.PutKey32(data[offset:], owner, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(account, true),
	)
}

// Allocate returns an instruction setting the data size of account.
func Allocate(account solana.PublicKey, size uint64) solana.Instruction {
	//   0. [WRITE, SIGNER] New account
	data, offset := newCommandData(commandAllocate, 8)
	binary.PutUint64(data[offset:], size, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(account, true),
	)
}

// Transfer moves lamports from a system owned account.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L80-L84
func Transfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data, offset := newCommandData(commandTransfer, 8)
	binary.PutUint64(data[offset:], lamports, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := resolve(m, index, commandTransfer, 12)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledTransfer{
		From: i.Accounts[0].PublicKey,
		To:   i.Accounts[1].PublicKey,
	}
	offset := 4
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L113-L119
func AdvanceNonce(nonce, authority solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE, SIGNER] Nonce account
	///   1. [] RecentBlockhashes sysvar
	///   2. [SIGNER] Nonce authority
	data, _ := newCommandData(commandAdvanceNonceAccount, 0)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledAdvanceNonce struct {
	Nonce     solana.PublicKey
	Authority solana.PublicKey
}

func DecompileAdvanceNonce(m solana.Message, index int) (*DecompiledAdvanceNonce, error) {
	i, err := resolve(m, index, commandAdvanceNonceAccount, 4)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if i.Accounts[1].PublicKey != RecentBlockhashesSysVar {
		return nil, errors.Errorf("invalid RecentBlockhashesSysVar")
	}

	return &DecompiledAdvanceNonce{
		Nonce:     i.Accounts[0].PublicKey,
		Authority: i.Accounts[2].PublicKey,
	}, nil
}

// GetNonceValueFromAccount returns the nonce value of a nonce account.
//
// Layout references:
// https://github.com/solana-labs/solana/blob/d7b9aca87b0327266cde4f0116113a4203642130/web3.js/src/nonce-account.js#L16-L22
// https://github.com/solana-labs/solana/blob/a4956844bdd081e7b90508066c579f29be306ce7/sdk/program/src/nonce/state/current.rs#L26
func GetNonceValueFromAccount(info solana.AccountInfo) (val solana.Blockhash, err error) {
	if len(info.Data) != NonceAccountSize {
		return val, errors.Errorf("invalid nonce account size: %d", len(info.Data))
	}
	if info.Owner != ProgramKey {
		return val, errors.Errorf("invalid nonce account (not owned by sys program)")
	}

	// (4)     u32: version
	// (4)     u32: state
	// (32) pubKey: authority
	// (32) pubkey: blockhash/value
	start := 4 + 4 + solana.PublicKeySize
	copy(val[:], info.Data[start:start+solana.PublicKeySize])
	return val, nil
}

// WithdrawNonce returns an instruction to withdraw funds from a nonce account
//
// The `uint64` parameter is the lamports to withdraw, which must leave the
// account balance above the rent exempt reserve or at zero.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L131
func WithdrawNonce(nonce, auth, recipient solana.PublicKey, lamports uint64) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [WRITE] Recipient account
	///   2. [] RecentBlockhashes sysvar
	///   3. [] Rent sysvar
	///   4. [SIGNER] Nonce authority
	data, offset := newCommandData(commandWithdrawNonceAccount, 8)
	binary.PutUint64(data[offset:], lamports, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(nonce, false),
		solana.NewAccountMeta(recipient, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(RentSysVar, false),
		solana.NewReadonlyAccountMeta(auth, true),
	)
}

type DecompiledWithdrawNonce struct {
	Nonce     solana.PublicKey
	Auth      solana.PublicKey
	Recipient solana.PublicKey
	Amount    uint64
}

func DecompileWithdrawNonce(m solana.Message, index int) (*DecompiledWithdrawNonce, error) {
	i, err := resolve(m, index, commandWithdrawNonceAccount, 12)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 5 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if i.Accounts[2].PublicKey != RecentBlockhashesSysVar {
		return nil, errors.Errorf("invalid RecentBlockhashesSysVar")
	}
	if i.Accounts[3].PublicKey != RentSysVar {
		return nil, errors.Errorf("invalid RentSysVar")
	}

	v := &DecompiledWithdrawNonce{
		Nonce:     i.Accounts[0].PublicKey,
		Recipient: i.Accounts[1].PublicKey,
		Auth:      i.Accounts[4].PublicKey,
	}
	offset := 4
	binary.GetUint64(i.Data[offset:], &v.Amount, &offset)
	return v, nil
}

// InitializeNonce returns an instruction to change the state of an Uninitalized nonce account to Initialized, setting the nonce value
//
// The `Pubkey` parameter specifies the entity authorized to execute nonce
// instruction on the account
//
// No signatures are required to execute this instruction, enabling derived
// nonce account addresses
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L146
func InitializeNonce(nonce, auth solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [] RecentBlockhashes sysvar
	///   2. [] Rent sysvar
	data, offset := newCommandData(commandInitializeNonceAccount, solana.PublicKeySize)
	binary.PutKey32(data[offset:], auth, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(RentSysVar, false),
	)
}

type DecompiledInitializeNonce struct {
	Nonce     solana.PublicKey
	Authority solana.PublicKey
}

func DecompileInitializeNonce(m solana.Message, index int) (*DecompiledInitializeNonce, error) {
	i, err := resolve(m, index, commandInitializeNonceAccount, 4+solana.PublicKeySize)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if i.Accounts[1].PublicKey != RecentBlockhashesSysVar {
		return nil, errors.Errorf("invalid RecentBlockhashesSysVar")
	}
	if i.Accounts[2].PublicKey != RentSysVar {
		return nil, errors.Errorf("invalid RentSysVar")
	}

	v := &DecompiledInitializeNonce{
		Nonce: i.Accounts[0].PublicKey,
	}
	offset := 4
	binary.GetKey32(i.Data[offset:], &v.Authority, &offset)
	return v, nil
}

// AuthorizeNonce returns an instruction to change the entity authorized to
// execute nonce instructions on the account. The current authority signs.
func AuthorizeNonce(nonce, authority, newAuthority solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [SIGNER] Nonce authority
	data, offset := newCommandData(commandAuthorizeNonceAccount, solana.PublicKeySize)
	binary.PutKey32(data[offset:], newAuthority, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledAuthorizeNonce struct {
	Nonce        solana.PublicKey
	Authority    solana.PublicKey
	NewAuthority solana.PublicKey
}

func DecompileAuthorizeNonce(m solana.Message, index int) (*DecompiledAuthorizeNonce, error) {
	i, err := resolve(m, index, commandAuthorizeNonceAccount, 4+solana.PublicKeySize)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	v := &DecompiledAuthorizeNonce{
		Nonce:     i.Accounts[0].PublicKey,
		Authority: i.Accounts[1].PublicKey,
	}
	offset := 4
	binary.GetKey32(i.Data[offset:], &v.NewAuthority, &offset)
	return v, nil
}
