package solana

import (
	"math"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
)

// maxAccounts is bounded by the single byte account indices.
const maxAccounts = math.MaxUint8 + 1

var (
	ErrMissingBlockhash = errors.New("missing recent blockhash")
	ErrNoFeePayer       = errors.New("no fee payer")
	ErrTooManyAccounts  = errors.New("too many accounts")

	// ErrInstructionTooLarge is returned when an instruction's data or
	// account list does not fit a compact-u16 length prefix.
	ErrInstructionTooLarge = errors.New("instruction too large")
)

// MessageBuilder collects instructions for a single message. The zero value
// is ready to use; validation happens in Build.
type MessageBuilder struct {
	Instructions []Instruction
	Blockhash    *Blockhash
	FeePayer     *PublicKey
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

func (b *MessageBuilder) AddInstruction(instructions ...Instruction) *MessageBuilder {
	b.Instructions = append(b.Instructions, instructions...)
	return b
}

func (b *MessageBuilder) SetFeePayer(payer PublicKey) *MessageBuilder {
	b.FeePayer = &payer
	return b
}

func (b *MessageBuilder) SetRecentBlockhash(hash Blockhash) *MessageBuilder {
	b.Blockhash = &hash
	return b
}

// Build compiles a legacy message.
func (b *MessageBuilder) Build() (Message, error) {
	return b.compile(MessageVersionLegacy)
}

// BuildVersioned compiles a versioned message without address table lookups.
func (b *MessageBuilder) BuildVersioned(n uint8) (Message, error) {
	version, err := NewMessageVersion(n)
	if err != nil {
		return Message{}, err
	}
	return b.compile(version)
}

type accountRole struct {
	signer   bool
	writable bool
}

// compile orders accounts as writable signers, readonly signers, writable
// non-signers, readonly non-signers and finally programs not otherwise
// referenced. Within each group accounts keep the order they were first
// seen, with the fee payer seen first. Roles are widened across references,
// never narrowed.
func (b *MessageBuilder) compile(version MessageVersion) (Message, error) {
	if b.Blockhash == nil {
		return Message{}, ErrMissingBlockhash
	}
	if len(b.Instructions) > math.MaxUint16 {
		return Message{}, errors.Wrapf(ErrInstructionTooLarge, "%d instructions", len(b.Instructions))
	}
	for i, ix := range b.Instructions {
		if len(ix.Data) > math.MaxUint16 {
			return Message{}, errors.Wrapf(ErrInstructionTooLarge, "instruction %d has %d data bytes", i, len(ix.Data))
		}
		if len(ix.Accounts) > math.MaxUint16 {
			return Message{}, errors.Wrapf(ErrInstructionTooLarge, "instruction %d has %d accounts", i, len(ix.Accounts))
		}
	}

	roles := linkedhashmap.New()
	record := func(key PublicKey, signer, writable bool) {
		if v, found := roles.Get(key); found {
			role := v.(*accountRole)
			role.signer = role.signer || signer
			role.writable = role.writable || writable
			return
		}
		roles.Put(key, &accountRole{signer: signer, writable: writable})
	}

	if b.FeePayer != nil {
		record(*b.FeePayer, true, true)
	}
	for _, ix := range b.Instructions {
		for _, a := range ix.Accounts {
			record(a.PublicKey, a.IsSigner, a.IsWritable)
		}
	}

	programs := linkedhashmap.New()
	for _, ix := range b.Instructions {
		if _, found := roles.Get(ix.Program); !found {
			programs.Put(ix.Program, struct{}{})
		}
	}

	var writableSigners, readonlySigners, writable, readonly []PublicKey
	for _, k := range roles.Keys() {
		key := k.(PublicKey)
		v, _ := roles.Get(key)
		role := v.(*accountRole)

		switch {
		case role.signer && role.writable:
			writableSigners = append(writableSigners, key)
		case role.signer:
			readonlySigners = append(readonlySigners, key)
		case role.writable:
			writable = append(writable, key)
		default:
			readonly = append(readonly, key)
		}
	}

	if len(writableSigners) == 0 {
		return Message{}, ErrNoFeePayer
	}

	total := roles.Size() + programs.Size()
	if total > maxAccounts {
		return Message{}, errors.Wrapf(ErrTooManyAccounts, "%d > %d", total, maxAccounts)
	}
	numSigners := len(writableSigners) + len(readonlySigners)
	if numSigners > math.MaxUint8 {
		return Message{}, errors.Wrapf(ErrTooManyAccounts, "%d signers", numSigners)
	}

	accounts := make([]PublicKey, 0, total)
	accounts = append(accounts, writableSigners...)
	accounts = append(accounts, readonlySigners...)
	accounts = append(accounts, writable...)
	accounts = append(accounts, readonly...)
	for _, k := range programs.Keys() {
		accounts = append(accounts, k.(PublicKey))
	}

	indexes := make(map[PublicKey]byte, len(accounts))
	for i, a := range accounts {
		indexes[a] = byte(i)
	}

	m := Message{
		Version: version,
		Header: MessageHeader{
			NumSignatures:     byte(numSigners),
			NumReadonlySigned: byte(len(readonlySigners)),
			// Programs appended above are always readonly non-signers.
			NumReadonlyUnsigned: byte(len(readonly) + programs.Size()),
		},
		Accounts:        accounts,
		RecentBlockhash: *b.Blockhash,
		Instructions:    make([]CompiledInstruction, len(b.Instructions)),
	}

	for i, ix := range b.Instructions {
		c := CompiledInstruction{
			ProgramIndex: indexes[ix.Program],
			Accounts:     make([]byte, len(ix.Accounts)),
			Data:         append([]byte(nil), ix.Data...),
		}
		for j, a := range ix.Accounts {
			c.Accounts[j] = indexes[a.PublicKey]
		}
		m.Instructions[i] = c
	}

	return m, nil
}
