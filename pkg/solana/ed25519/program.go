package ed25519

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// Ed25519SigVerify111111111111111111111111111
var ProgramKey = solana.MustPublicKey("Ed25519SigVerify111111111111111111111111111")

const (
	headerSize      = 16
	publicKeyOffset = headerSize
	signatureOffset = publicKeyOffset + solana.PublicKeySize
	messageOffset   = signatureOffset + ed25519.SignatureSize

	// CurrentInstruction points the verifier at the instruction's own data.
	CurrentInstruction = math.MaxUint16
)

var ErrMessageTooLong = errors.New("message too long")

// Instruction signs message with privateKey and returns a verification
// instruction carrying the key, signature and message inline.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs#L32
func Instruction(privateKey ed25519.PrivateKey, message []byte) (solana.Instruction, error) {
	publicKey, err := solana.PublicKeyFromEd25519(privateKey.Public().(ed25519.PublicKey))
	if err != nil {
		return solana.Instruction{}, err
	}

	var signature solana.Signature
	copy(signature[:], ed25519.Sign(privateKey, message))

	return InstructionWithPublicKey(publicKey, message, signature, nil)
}

// InstructionFromSigner is Instruction for keys held behind a Signer.
func InstructionFromSigner(ctx context.Context, signer solana.Signer, message []byte) (solana.Instruction, error) {
	signature, err := signer.SignPayload(ctx, message)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to sign message")
	}
	return InstructionWithPublicKey(signer.PublicKey(), message, signature, nil)
}

// InstructionWithPublicKey builds a verification instruction from a detached
// signature. A nil instructionIndex refers to this instruction's own data;
// otherwise all offsets are read from the instruction at that index.
//
// Layout:
//
//	[u8 num_signatures][u8 padding]
//	[u16 signature_offset][u16 signature_instruction_index]
//	[u16 public_key_offset][u16 public_key_instruction_index]
//	[u16 message_data_offset][u16 message_data_size]
//	[u16 message_instruction_index]
//	[32 public key][64 signature][message]
func InstructionWithPublicKey(publicKey solana.PublicKey, message []byte, signature solana.Signature, instructionIndex *uint16) (solana.Instruction, error) {
	if len(message) > math.MaxUint16 {
		return solana.Instruction{}, errors.Wrapf(ErrMessageTooLong, "%d bytes", len(message))
	}

	index := uint16(CurrentInstruction)
	if instructionIndex != nil {
		index = *instructionIndex
	}

	data := make([]byte, messageOffset+len(message))

	var offset int
	binary.PutUint8(data[offset:], 1, &offset) // num_signatures
	binary.PutUint8(data[offset:], 0, &offset) // padding
	binary.PutUint16(data[offset:], signatureOffset, &offset)
	binary.PutUint16(data[offset:], index, &offset)
	binary.PutUint16(data[offset:], publicKeyOffset, &offset)
	binary.PutUint16(data[offset:], index, &offset)
	binary.PutUint16(data[offset:], messageOffset, &offset)
	binary.PutUint16(data[offset:], uint16(len(message)), &offset)
	binary.PutUint16(data[offset:], index, &offset)

	binary.PutKey32(data[offset:], publicKey, &offset)
	copy(data[offset:], signature[:])
	offset += len(signature)
	copy(data[offset:], message)

	return solana.NewInstruction(
		ProgramKey,
		data,
	), nil
}

type DecompiledSignature struct {
	PublicKey        solana.PublicKey
	Signature        solana.Signature
	Message          []byte
	InstructionIndex uint16
}

// Verify checks the signature against the public key and message.
func (d *DecompiledSignature) Verify() bool {
	return ed25519.Verify(d.PublicKey.ToEd25519(), d.Message, d.Signature[:])
}

// DecompileInstruction parses a single-signature verification instruction
// whose key, signature and message live in its own data, as built by
// InstructionWithPublicKey.
func DecompileInstruction(m solana.Message, index int) (*DecompiledSignature, error) {
	i, err := m.ResolveInstruction(index, ProgramKey)
	if err != nil {
		return nil, err
	}
	if len(i.Accounts) != 0 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < messageOffset {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	var (
		offset                                   int
		numSignatures, padding                   uint8
		sigOffset, sigIndex, keyOffset, keyIndex uint16
		msgOffset, msgSize, msgIndex             uint16
	)
	binary.GetUint8(i.Data[offset:], &numSignatures, &offset)
	binary.GetUint8(i.Data[offset:], &padding, &offset)
	binary.GetUint16(i.Data[offset:], &sigOffset, &offset)
	binary.GetUint16(i.Data[offset:], &sigIndex, &offset)
	binary.GetUint16(i.Data[offset:], &keyOffset, &offset)
	binary.GetUint16(i.Data[offset:], &keyIndex, &offset)
	binary.GetUint16(i.Data[offset:], &msgOffset, &offset)
	binary.GetUint16(i.Data[offset:], &msgSize, &offset)
	binary.GetUint16(i.Data[offset:], &msgIndex, &offset)

	if numSignatures != 1 {
		return nil, errors.Errorf("unsupported number of signatures: %d", numSignatures)
	}
	if sigOffset != signatureOffset || keyOffset != publicKeyOffset || msgOffset != messageOffset {
		return nil, solana.ErrIncorrectInstruction
	}
	if sigIndex != keyIndex || keyIndex != msgIndex {
		return nil, errors.New("mixed instruction indexes are not supported")
	}
	if int(msgOffset)+int(msgSize) != len(i.Data) {
		return nil, errors.Errorf("invalid message size: %d", msgSize)
	}

	v := &DecompiledSignature{
		InstructionIndex: msgIndex,
		Message:          i.Data[msgOffset:],
	}
	binary.GetKey32(i.Data[keyOffset:], &v.PublicKey, &offset)
	copy(v.Signature[:], i.Data[sigOffset:msgOffset])
	return v, nil
}
