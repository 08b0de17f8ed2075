package solana

// Program is an on-chain program identified by its address.
type Program interface {
	ProgramID() PublicKey
}

// ProgramKey adapts a bare program address to Program.
type ProgramKey PublicKey

func (p ProgramKey) ProgramID() PublicKey {
	return PublicKey(p)
}

func (p ProgramKey) String() string {
	return PublicKey(p).String()
}

// FindDerivedAddress searches for the canonical PDA of p for the seeds.
func FindDerivedAddress(p Program, seeds ...[]byte) (ProgramDerivedAddress, error) {
	return FindProgramAddress(p.ProgramID(), seeds...)
}

// CreateDerivedAddress derives a PDA of p from seeds that already include the
// bump.
func CreateDerivedAddress(p Program, seeds ...[]byte) (PublicKey, error) {
	return CreateProgramAddress(p.ProgramID(), seeds...)
}
