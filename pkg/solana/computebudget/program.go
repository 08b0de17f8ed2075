// Package computebudget builds instructions for the compute budget program,
// which sets per-transaction compute and fee parameters.
package computebudget

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = solana.MustPublicKey("ComputeBudget111111111111111111111111111111")

const (
	// nolint:varcheck,deadcode,unused
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
	commandSetLoadedAccountsDataSizeLimit
)

var (
	ErrInvalidLength      = errors.New("invalid length")
	ErrInvalidInstruction = errors.New("invalid instruction")
)

func newCommandData(command uint8, size int) ([]byte, int) {
	data := make([]byte, 1+size)
	var offset int
	binary.PutUint8(data, command, &offset)
	return data, offset
}

// RequestHeapFrame requests a heap of the given size in bytes. The runtime
// requires a multiple of 1024.
func RequestHeapFrame(bytes uint32) solana.Instruction {
	data, offset := newCommandData(commandRequestHeapFrame, 4)
	binary.PutUint32(data[offset:], bytes, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data, offset := newCommandData(commandSetComputeUnitLimit, 4)
	binary.PutUint32(data[offset:], computeUnitLimit, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute
// unit.
func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data, offset := newCommandData(commandSetComputeUnitPrice, 8)
	binary.PutUint64(data[offset:], computeUnitPrice, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetLoadedAccountsDataSizeLimit(bytes uint32) solana.Instruction {
	data, offset := newCommandData(commandSetLoadedAccountsDataSizeLimit, 4)
	binary.PutUint32(data[offset:], bytes, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func parseUint32(data []byte, command uint8) (uint32, error) {
	if len(data) != 5 {
		return 0, ErrInvalidLength
	}
	if data[0] != command {
		return 0, ErrInvalidInstruction
	}

	var v uint32
	offset := 1
	binary.GetUint32(data[offset:], &v, &offset)
	return v, nil
}

func ParseRequestHeapFrameIxnData(data []byte) (uint32, error) {
	return parseUint32(data, commandRequestHeapFrame)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	return parseUint32(data, commandSetComputeUnitLimit)
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, ErrInvalidLength
	}
	if data[0] != commandSetComputeUnitPrice {
		return 0, ErrInvalidInstruction
	}

	var v uint64
	offset := 1
	binary.GetUint64(data[offset:], &v, &offset)
	return v, nil
}

func ParseSetLoadedAccountsDataSizeLimitIxnData(data []byte) (uint32, error) {
	return parseUint32(data, commandSetLoadedAccountsDataSizeLimit)
}

// Budget is the compute budget requested by a message.
type Budget struct {
	ComputeUnitLimit            *uint32
	ComputeUnitPrice            *uint64
	HeapFrameBytes              *uint32
	LoadedAccountsDataSizeLimit *uint32
}

// DecompileBudget collects every compute budget instruction in m. A
// parameter set more than once is rejected, as the runtime does.
func DecompileBudget(m solana.Message) (*Budget, error) {
	var budget Budget
	for index := range m.Instructions {
		i, err := m.ResolveInstruction(index, ProgramKey)
		if errors.Is(err, solana.ErrIncorrectProgram) {
			continue
		} else if err != nil {
			return nil, err
		}
		if len(i.Data) == 0 {
			return nil, errors.Wrapf(ErrInvalidInstruction, "instruction %d", index)
		}

		switch i.Data[0] {
		case commandRequestHeapFrame:
			err = setOnce(&budget.HeapFrameBytes, i.Data, ParseRequestHeapFrameIxnData)
		case commandSetComputeUnitLimit:
			err = setOnce(&budget.ComputeUnitLimit, i.Data, ParseSetComputeUnitLimitIxnData)
		case commandSetComputeUnitPrice:
			err = setOnce(&budget.ComputeUnitPrice, i.Data, ParseSetComputeUnitPriceIxnData)
		case commandSetLoadedAccountsDataSizeLimit:
			err = setOnce(&budget.LoadedAccountsDataSizeLimit, i.Data, ParseSetLoadedAccountsDataSizeLimitIxnData)
		default:
			err = ErrInvalidInstruction
		}
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", index)
		}
	}
	return &budget, nil
}

func setOnce[T any](dst **T, data []byte, parse func([]byte) (T, error)) error {
	if *dst != nil {
		return errors.New("duplicate instruction")
	}
	v, err := parse(data)
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}
