package system

import (
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// SystemAccount is the system program's own address.
//
// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount = solana.PublicKey{}

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar = solana.MustPublicKey("SysvarRent111111111111111111111111111111111")

// RecentBlockhashesSysVar points to the system variable "Recent Blockhashes"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/recent_blockhashes.rs#L12-L15
var RecentBlockhashesSysVar = solana.MustPublicKey("SysvarRecentB1ockHashes11111111111111111111")

// InstructionsSysVar exposes the serialized instructions of the running
// transaction to programs such as the ed25519 verifier.
var InstructionsSysVar = solana.MustPublicKey("Sysvar1nstructions1111111111111111111111111")

var ClockSysVar = solana.MustPublicKey("SysvarC1ock11111111111111111111111111111111")
