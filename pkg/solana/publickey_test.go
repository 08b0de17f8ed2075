package solana

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana/codec"
)

func TestPublicKey_Base58(t *testing.T) {
	k := MustPublicKey("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	assert.Equal(t, "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", k.String())
	assert.Equal(t, k.String(), k.Address())
	assert.Equal(t, PublicKeySize, k.Length())
	assert.False(t, k.IsZero())

	assert.True(t, PublicKey{}.IsZero())
	assert.Equal(t, "11111111111111111111111111111111", PublicKey{}.String())

	for _, invalid := range []string{"", "0OIl", "1111", "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHrMemo"} {
		_, err := PublicKeyFromBase58(invalid)
		assert.Error(t, err, invalid)
	}

	assert.Panics(t, func() { MustPublicKey("short") })
}

func TestPublicKey_Bytes(t *testing.T) {
	_, err := NewPublicKey(make([]byte, 31))
	assert.True(t, errors.Is(err, codec.ErrInvalidLength))

	raw := make([]byte, 32)
	raw[0] = 1
	k, err := NewPublicKey(raw)
	require.NoError(t, err)

	// Bytes returns a copy.
	b := k.Bytes()
	b[0] = 2
	assert.EqualValues(t, 1, k[0])

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	fromEd, err := PublicKeyFromEd25519(pub)
	require.NoError(t, err)
	assert.Equal(t, pub, fromEd.ToEd25519())
	assert.True(t, fromEd.IsOnCurve())
}

func TestPublicKey_Equals(t *testing.T) {
	a := PublicKey{1}
	b := PublicKey{1}
	c := PublicKey{2}

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, a.Equals(ProgramDerivedAddress{PublicKey: a, Nonce: 3}))
	assert.True(t, KeyEqual(nil, nil))
	assert.False(t, KeyEqual(a, nil))
}

func TestPublicKey_Formats(t *testing.T) {
	k := MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	for _, f := range []codec.Format{codec.FormatBorsh, codec.FormatWire} {
		b, err := codec.Marshal(f, k)
		require.NoError(t, err)
		assert.Equal(t, k[:], b)

		var decoded PublicKey
		require.NoError(t, codec.Unmarshal(f, b, &decoded))
		assert.Equal(t, k, decoded)

		assert.Error(t, codec.Unmarshal(f, b[:31], &decoded))
	}

	b, err := codec.Marshal(codec.FormatJSON, k)
	require.NoError(t, err)
	assert.Equal(t, `"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"`, string(b))

	// Unknown accepts either representation.
	for _, in := range [][]byte{b, k[:]} {
		var decoded PublicKey
		require.NoError(t, codec.Unmarshal(codec.FormatUnknown, in, &decoded))
		assert.Equal(t, k, decoded)
	}

	var decoded PublicKey
	assert.Error(t, codec.Unmarshal(codec.FormatJSON, []byte(`"not a key"`), &decoded))
	assert.Error(t, codec.Unmarshal(codec.FormatJSON, []byte(`12`), &decoded))
}

func TestPublicKey_Nested(t *testing.T) {
	type account struct {
		Owner  PublicKey `json:"owner"`
		Amount uint64    `json:"amount"`
	}

	in := account{Owner: MustPublicKey("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"), Amount: 42}

	b, err := codec.Marshal(codec.FormatBorsh, in)
	require.NoError(t, err)
	require.Len(t, b, 40)
	assert.Equal(t, in.Owner[:], b[:32])
	assert.EqualValues(t, 42, binary.LittleEndian.Uint64(b[32:]))

	var out account
	require.NoError(t, codec.Unmarshal(codec.FormatBorsh, b, &out))
	assert.Equal(t, in, out)

	b, err = json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr","amount":42}`, string(b))

	out = account{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}
