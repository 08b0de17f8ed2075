package solana

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorAccountInUse             TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountLoadedTwice       TransactionErrorKey = "AccountLoadedTwice"
	TransactionErrorAccountNotFound          TransactionErrorKey = "AccountNotFound"
	TransactionErrorProgramAccountNotFound   TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorInsufficientFundsForFee  TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorInvalidAccountForFee     TransactionErrorKey = "InvalidAccountForFee"
	TransactionErrorDuplicateSignature       TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound        TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError         TransactionErrorKey = "InstructionError"
	TransactionErrorMissingSignatureForFee   TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorInvalidAccountIndex      TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure         TransactionErrorKey = "SignatureFailure"
	TransactionErrorSanitizeFailure          TransactionErrorKey = "SanitizeFailure"
	TransactionErrorUnsupportedVersion       TransactionErrorKey = "UnsupportedVersion"
	TransactionErrorInvalidWritableAccount   TransactionErrorKey = "InvalidWritableAccount"
	TransactionErrorInsufficientFundsForRent TransactionErrorKey = "InsufficientFundsForRent"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall       InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorMaxSeedLengthExceeded     InstructionErrorKey = "MaxSeedLengthExceeded"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index  int
	Key    InstructionErrorKey
	Custom *CustomError
}

func (i InstructionError) Error() string {
	if i.Custom != nil {
		return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, *i.Custom)
	}
	return fmt.Sprintf("Error processing Instruction %d: %s", i.Index, i.Key)
}

// Unwrap exposes the program's custom error code to errors.As.
func (i InstructionError) Unwrap() error {
	if i.Custom != nil {
		return *i.Custom
	}
	return nil
}

func (i InstructionError) MarshalJSON() ([]byte, error) {
	if i.Custom != nil {
		return json.Marshal([]interface{}{i.Index, map[string]uint32{string(InstructionErrorCustom): uint32(*i.Custom)}})
	}
	return json.Marshal([]interface{}{i.Index, i.Key})
}

func (i *InstructionError) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return errors.Wrap(err, "unexpected instruction error format")
	}
	if len(tuple) != 2 {
		return errors.Errorf("expected 2 entries in InstructionError tuple, got %d", len(tuple))
	}

	var parsed InstructionError
	if err := json.Unmarshal(tuple[0], &parsed.Index); err != nil {
		return errors.Wrap(err, "non numeric index in InstructionError tuple")
	}

	key, inner, err := decodeErrorEnum(tuple[1])
	if err != nil {
		return errors.Wrap(err, "invalid instruction error")
	}
	parsed.Key = InstructionErrorKey(key)

	if parsed.Key == InstructionErrorCustom {
		var code uint32
		if err := json.Unmarshal(inner, &code); err != nil {
			return errors.Wrap(err, "invalid custom error code")
		}
		custom := CustomError(code)
		parsed.Custom = &custom
	}

	*i = parsed
	return nil
}

// TransactionError contains the transaction error details.
type TransactionError struct {
	Key         TransactionErrorKey
	Instruction *InstructionError

	raw json.RawMessage
}

func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{Key: key}
}

func NewInstructionTransactionError(err InstructionError) *TransactionError {
	return &TransactionError{Key: TransactionErrorInstructionError, Instruction: &err}
}

// ParseTransactionError parses the JSON error returned from the "err" field
// in various RPC methods. A null value yields a nil error.
func ParseTransactionError(raw json.RawMessage) (*TransactionError, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	key, inner, err := decodeErrorEnum(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction error")
	}

	txErr := &TransactionError{
		Key: TransactionErrorKey(key),
		raw: append(json.RawMessage(nil), raw...),
	}
	if txErr.Key == TransactionErrorInstructionError {
		var ie InstructionError
		if err := json.Unmarshal(inner, &ie); err != nil {
			return nil, errors.Wrap(err, "failed to parse instruction error")
		}
		txErr.Instruction = &ie
	}
	return txErr, nil
}

// ParseRPCError extracts the transaction error carried in the data of an RPC
// error, such as a failed preflight simulation.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil || err.Data == nil {
		return nil, nil
	}

	b, marshalErr := json.Marshal(err.Data)
	if marshalErr != nil {
		return nil, errors.Wrap(marshalErr, "failed to re-encode rpc error data")
	}

	var data struct {
		Err json.RawMessage `json:"err"`
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, "expected map type")
	}
	return ParseTransactionError(data.Err)
}

func (t TransactionError) Error() string {
	if t.Instruction != nil {
		return t.Instruction.Error()
	}
	return string(t.Key)
}

func (t TransactionError) Unwrap() error {
	if t.Instruction != nil {
		return *t.Instruction
	}
	return nil
}

// MarshalJSON reproduces the RPC representation.
func (t TransactionError) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	if t.Instruction != nil {
		return json.Marshal(map[string]InstructionError{string(TransactionErrorInstructionError): *t.Instruction})
	}
	return json.Marshal(t.Key)
}

// decodeErrorEnum decodes a serde enum: either a bare "Variant" string or a
// single entry {"Variant": value} object.
func decodeErrorEnum(b []byte) (string, json.RawMessage, error) {
	var key string
	if err := json.Unmarshal(b, &key); err == nil {
		return key, nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", nil, errors.New("unhandled error type")
	}
	if len(obj) != 1 {
		return "", nil, errors.Errorf("expected a single variant, got %d", len(obj))
	}

	for k, v := range obj {
		return k, v, nil
	}
	return "", nil, nil
}
