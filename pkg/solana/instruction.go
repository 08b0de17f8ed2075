package solana

import (
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction represents an instruction that has been compiled into a transaction.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}

type jsonCompiledInstruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
}

// MarshalJSON uses the RPC layout: account indices as numbers, data as base58.
func (c CompiledInstruction) MarshalJSON() ([]byte, error) {
	out := jsonCompiledInstruction{
		ProgramIDIndex: int(c.ProgramIndex),
		Accounts:       make([]int, len(c.Accounts)),
		Data:           base58.Encode(c.Data),
	}
	for i, a := range c.Accounts {
		out.Accounts[i] = int(a)
	}
	return json.Marshal(out)
}

func (c *CompiledInstruction) UnmarshalJSON(b []byte) error {
	var in jsonCompiledInstruction
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	if in.ProgramIDIndex < 0 || in.ProgramIDIndex > 255 {
		return errors.Errorf("program index out of range: %d", in.ProgramIDIndex)
	}

	accounts, err := indexBytes(in.Accounts)
	if err != nil {
		return err
	}

	data, err := decodeBase58Data(in.Data)
	if err != nil {
		return err
	}

	*c = CompiledInstruction{
		ProgramIndex: byte(in.ProgramIDIndex),
		Accounts:     accounts,
		Data:         data,
	}
	return nil
}

func indexBytes(in []int) ([]byte, error) {
	out := make([]byte, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("account index out of range: %d", v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func indexInts(in []byte) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// decodeBase58Data is base58.Decode with "" meaning no data.
func decodeBase58Data(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 data")
	}
	return b, nil
}

// ResolveInstruction expands the compiled instruction at index back into an
// Instruction, checking that it targets program. Account flags come from the
// message header. Accounts loaded through lookup tables cannot be resolved.
func (m Message) ResolveInstruction(index int, program PublicKey) (Instruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return Instruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	c := m.Instructions[index]
	if int(c.ProgramIndex) >= len(m.Accounts) {
		return Instruction{}, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}
	if m.Accounts[c.ProgramIndex] != program {
		return Instruction{}, ErrIncorrectProgram
	}

	accounts := make([]AccountMeta, len(c.Accounts))
	for i, a := range c.Accounts {
		if int(a) >= len(m.Accounts) {
			return Instruction{}, errors.Errorf("account index %d is not a static account", a)
		}
		accounts[i] = AccountMeta{
			PublicKey:  m.Accounts[a],
			IsSigner:   m.IsSigner(int(a)),
			IsWritable: m.IsWritable(int(a)),
		}
	}

	return Instruction{
		Program:  program,
		Accounts: accounts,
		Data:     append([]byte(nil), c.Data...),
	}, nil
}
