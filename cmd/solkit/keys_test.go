package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/token"
)

func TestPubkey(t *testing.T) {
	var result pubkeyResult
	executeJSON(t, &result, "pubkey", token.ProgramKey.String())
	assert.Equal(t, token.ProgramKey.String(), result.Address)
	assert.Equal(t, "06ddf6e1d765a193d9cbe146ceeb79ac1cb485ed5f5b37913a8cf5857eff00a9", result.Hex)

	_, err := execute(t, "pubkey", "not-base58!")
	assert.Error(t, err)

	_, err = execute(t, "pubkey")
	assert.Error(t, err)
}

func TestPubkey_New(t *testing.T) {
	file := filepath.Join(t.TempDir(), "id.json")

	_, err := execute(t, "pubkey", "--new")
	assert.Error(t, err)

	var generated pubkeyResult
	executeJSON(t, &generated, "pubkey", "--new", "--outfile", file)
	assert.Equal(t, file, generated.Keypair)
	assert.True(t, generated.OnCurve)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var loaded pubkeyResult
	executeJSON(t, &loaded, "--keypair", file, "pubkey")
	assert.Equal(t, generated.Address, loaded.Address)

	t.Setenv("SOLKIT_KEYPAIR", file)
	executeJSON(t, &loaded, "pubkey")
	assert.Equal(t, generated.Address, loaded.Address)

	_, err = execute(t, "pubkey", "--new", "--outfile", file)
	assert.Error(t, err)

	executeJSON(t, &loaded, "pubkey", "--new", "--outfile", file, "--force")
	assert.NotEqual(t, generated.Address, loaded.Address)
}

func TestPDA(t *testing.T) {
	program := token.AssociatedTokenAccountProgramKey
	wallet := solana.MustPublicKey("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")

	expected, err := solana.FindProgramAddress(program, []byte("vault"), wallet.Bytes(), []byte{1, 0})
	require.NoError(t, err)

	var result pdaResult
	executeJSON(t, &result, "pda", program.String(), "vault", "pubkey:"+wallet.String(), "u16:1")
	assert.Equal(t, expected.String(), result.Address)
	assert.Equal(t, expected.Nonce, result.Bump)

	var created pdaResult
	executeJSON(t, &created, "pda", program.String(), "str:vault", "base58:"+wallet.String(), "hex:0100",
		"--bump", strconv.Itoa(int(expected.Nonce)))
	assert.Equal(t, result, created)

	_, err = execute(t, "pda", program.String(), "--bump", "256")
	assert.Error(t, err)

	_, err = execute(t, "pda", "bad")
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected []byte
	}{
		{"vault", []byte("vault")},
		{"str:hex:00", []byte("hex:00")},
		{"hex:00ff", []byte{0x00, 0xff}},
		{"u8:7", []byte{7}},
		{"u32:258", []byte{2, 1, 0, 0}},
		{"u64:1", []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"other:thing", []byte("other:thing")},
		{":leading", []byte(":leading")},
	} {
		actual, err := parseSeed(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, actual, tc.in)
	}

	for _, in := range []string{"hex:zz", "u8:256", "u16:-1", "base58:0OIl", "pubkey:short"} {
		_, err := parseSeed(in)
		assert.Error(t, err, in)
	}
}

func TestATA(t *testing.T) {
	var result pdaResult
	executeJSON(t, &result, "ata",
		"4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
		"8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
	)
	assert.Equal(t, "H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ", result.Address)

	out, err := execute(t, "ata",
		"4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
		"8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "address: H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")

	_, err = execute(t, "ata", "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	assert.Error(t, err)
}
