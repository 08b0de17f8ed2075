package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Taken from: https://github.com/solana-labs/solana/blob/14339dec0a960e8161d1165b6a8e5cfb73e78f23/sdk/src/transaction.rs#L523
const rustGenerated = "AUc7Cbu+gZalFSGeSFdukHhP7oSGaSdmdNEd5ZokaSysdoMWfIOzjrAbdaBZZuDMAfyNAogAJdrhgVya+jthsgoBAAEDnON0wdcmjhYIDuXvd10F2qEjAyEAJGSe/CGhYbk+WWMBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

// The above example does not have the correct public key encoded in the keypair.
// This is the above example with the correctly generated keypair.
const rustGeneratedAdjusted = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

func TestLegacyTransaction_CrossImpl(t *testing.T) {
	signer, err := NewKeypairSigner(ed25519.PrivateKey{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75, 156, 227, 116, 193, 215, 38, 142, 22, 8,
		14, 229, 239, 119, 93, 5, 218, 161, 35, 3, 33, 0, 36, 100, 158, 252, 33, 161, 97, 185,
		62, 89, 99})
	require.NoError(t, err)

	tx := crossImplTransaction(t, signer)

	generated, err := base64.StdEncoding.DecodeString(rustGenerated)
	require.NoError(t, err)
	assert.Equal(t, generated, tx.Marshal())
}

func TestLegacyTransaction_GenerateValidCrossImpl(t *testing.T) {
	signer, err := NewKeypairSigner(ed25519.NewKeyFromSeed([]byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75}))
	require.NoError(t, err)

	tx := crossImplTransaction(t, signer)
	assert.Equal(t, rustGeneratedAdjusted, base64.StdEncoding.EncodeToString(tx.Marshal()))
	assert.NoError(t, tx.VerifySignatures())

	decoded, err := ParseTransaction(tx.Marshal())
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)
}

func crossImplTransaction(t *testing.T, signer Signer) Transaction {
	programID := PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	to := PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx, err := NewTransaction(
		signer.PublicKey(),
		NewInstruction(
			programID,
			[]byte{1, 2, 3},
			NewAccountMeta(signer.PublicKey(), true),
			NewAccountMeta(to, false),
		),
	)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(context.Background(), signer))
	return tx
}

func TestLegacyTransaction_EmptyAccount(t *testing.T) {
	program := generateSigners(t, 1)[0].PublicKey()
	payer := generateSigners(t, 1)[0]

	tx, err := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			program,
			[]byte{1, 2, 3},
			NewAccountMeta(PublicKey{}, false),
		),
	)
	require.NoError(t, err)
	assert.NoError(t, tx.Sign(context.Background(), payer))

	var rtt Transaction
	assert.NoError(t, rtt.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx, rtt)
}

func TestLegacyTransaction_MarshalRoundTrip(t *testing.T) {
	expected := "AaZAGNONKTsNypCfvwHGipcWmAX/J03VfLQEHgMDSuHz0ktydqlLb7I4tZnX0Yw8KMTbma28M+yiZPaRolOJGgwBAAgQCR2hNbdxjAiYwC9CSEo2Vso3yq8OXlgoCbepyseaRXoIFE8MTz2ZtOsdNl55fj/zi0S+ArjIP4zJ3Y+MC4tKyQu7s1JPy6Hur6YbU0nF+1XBJYwii/dKtLsNFU/pTo19J7jOgutpJBZbNIhC5ppqC/OYlbzW1KqamkV3p+cslAoyBJxvWrSMXX+X0Ih0+sEzarslIYSV0T/NuLFcjpX8S7ajCdht+3+POhvGcGFzDyc4kIgjN/SAdypJM1Grs+eEtzXhQGM4VMy0p0J2CiOH+k2kwfya5F7fSaYXWOi3CJUGp9UXGSxWjuCKhF9z0peIzwNcMUWyGrNE2AYuqUAAAAan1RcZLFxRIYzJTD1K8X9Y2u4Im6H9ROPb2YoAAAAABt324ddloZPZy+FGzut5rBy0he1fWzeROoz1hX7/AKlDDB9w5G7eh4xhLJIgxblM0E4dxW+ZTABRcCVBt2LcH8b6evO+2606PWXzaqvJdDGxu+TC0vbg5HymAgNFL11hDcYoaKd+VYB6HNWIyaKadms+4q7NwH3gjP6RB91LMWUAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAMGRm/lIRcy/+ytunLDm+e8jOW7xfcSayxDmzpAAAAAjJclj04kifG7PRApFI4NgwtaE5na/xCEBI572Nvp+FmMVCZzhQC2pwD9u6aAm8haUDNRSZG/a7c1U/ltYtc+KAUNAwIHAAQEAAAADgAJA+gDAAAAAAAADgAFAkjoAQAPBwADCgsNCQgBAQwLAAUBBAwMBgwMAwlcCAoCAAAAmhMJCgIAAAAAAUgAAABlmEW1THFmZqyjBehuSli5bMSJBNiQMkZcr19LINSM4KF/whE1IayV174tmVwC9MMlQSmG3j6aJVhIDGMUITUNXRMTAAAAAAA="
	decoded, err := base64.StdEncoding.DecodeString(expected)
	require.NoError(t, err)
	var txn Transaction
	require.NoError(t, txn.Unmarshal(decoded))
	assert.Equal(t, decoded, txn.Marshal())
}

func TestLegacyTransaction_MissingBlockhash(t *testing.T) {
	program := generateSigners(t, 1)[0].PublicKey()
	payer := generateSigners(t, 1)[0]

	tx, err := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			program,
			[]byte{1, 2, 3},
			NewAccountMeta(payer.PublicKey(), false),
		),
	)
	require.NoError(t, err)
	assert.NoError(t, tx.Sign(context.Background(), payer))
	assert.Equal(t, Blockhash{}, tx.Message.RecentBlockhash)

	var rtt Transaction
	assert.NoError(t, rtt.Unmarshal(tx.Marshal()))
}

func TestLegacyTransaction_InvalidAccounts(t *testing.T) {
	keys := generateSigners(t, 2)
	tx, err := NewTransaction(
		keys[0].PublicKey(),
		NewInstruction(
			keys[1].PublicKey(),
			nil,
			NewAccountMeta(keys[0].PublicKey(), true),
		),
	)
	require.NoError(t, err)

	tx.Message.Instructions[0].ProgramIndex = 2
	assert.Error(t, tx.Unmarshal(tx.Marshal()))

	tx, err = NewTransaction(
		keys[0].PublicKey(),
		NewInstruction(
			keys[1].PublicKey(),
			nil,
			NewAccountMeta(keys[0].PublicKey(), true),
		),
	)
	require.NoError(t, err)

	tx.Message.Instructions[0].Accounts = []byte{2}
	assert.Error(t, tx.Unmarshal(tx.Marshal()))
}

func TestLegacyTransaction_SingleInstruction(t *testing.T) {
	keys := generateSigners(t, 2)
	payer := keys[0]
	program := keys[1]

	keys = generateSigners(t, 4)
	data := []byte{1, 2, 3}

	tx, err := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			program.PublicKey(),
			data,
			NewReadonlyAccountMeta(keys[0].PublicKey(), true),
			NewReadonlyAccountMeta(keys[1].PublicKey(), false),
			NewAccountMeta(keys[2].PublicKey(), false),
			NewAccountMeta(keys[3].PublicKey(), true),
		),
	)
	require.NoError(t, err)

	// Intentionally sign out of order to ensure ordering is fixed.
	assert.NoError(t, tx.Sign(context.Background(), keys[0], keys[3], payer))

	require.Len(t, tx.Signatures, 3)
	require.Len(t, tx.Message.Accounts, 6)
	assert.EqualValues(t, 3, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 2, tx.Message.Header.NumReadonlyUnsigned)

	message := tx.Message.Marshal()

	assert.True(t, ed25519.Verify(payer.PublicKey().ToEd25519(), message, tx.Signatures[0][:]))
	assert.True(t, ed25519.Verify(keys[3].PublicKey().ToEd25519(), message, tx.Signatures[1][:]))
	assert.True(t, ed25519.Verify(keys[0].PublicKey().ToEd25519(), message, tx.Signatures[2][:]))
	assert.NoError(t, tx.VerifySignatures())

	assert.Equal(t, MessageVersionLegacy, tx.Message.Version)

	assert.Equal(t, payer.PublicKey(), tx.Message.Accounts[0])
	assert.Equal(t, keys[3].PublicKey(), tx.Message.Accounts[1])
	assert.Equal(t, keys[0].PublicKey(), tx.Message.Accounts[2])
	assert.Equal(t, keys[2].PublicKey(), tx.Message.Accounts[3])
	assert.Equal(t, keys[1].PublicKey(), tx.Message.Accounts[4])
	assert.Equal(t, program.PublicKey(), tx.Message.Accounts[5])

	assert.Equal(t, byte(5), tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, data, tx.Message.Instructions[0].Data)
	assert.Equal(t, []byte{2, 4, 3, 1}, tx.Message.Instructions[0].Accounts)
}

func TestLegacyTransaction_DuplicateKeys(t *testing.T) {
	keys := generateSigners(t, 2)
	payer := keys[0]
	program := keys[1]

	keys = generateSigners(t, 4)
	data := []byte{1, 2, 3}

	// Key[0]: ReadOnlySigner -> WritableSigner
	// Key[1]: ReadOnly       -> ReadOnlySigner
	// Key[2]: Writable       -> Writable       (ReadOnly,noop)
	// Key[3]: WritableSigner -> WritableSigner (ReadOnly,noop)

	tx, err := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			program.PublicKey(),
			data,
			NewReadonlyAccountMeta(keys[0].PublicKey(), true),
			NewReadonlyAccountMeta(keys[1].PublicKey(), false),
			NewAccountMeta(keys[2].PublicKey(), false),
			NewAccountMeta(keys[3].PublicKey(), true),
			// Upgrade keys [0] and [1]
			NewAccountMeta(keys[0].PublicKey(), false),
			NewReadonlyAccountMeta(keys[1].PublicKey(), true),
			// 'Downgrade' keys [2] and [3] (noop)
			NewReadonlyAccountMeta(keys[2].PublicKey(), false),
			NewReadonlyAccountMeta(keys[3].PublicKey(), false),
		),
	)
	require.NoError(t, err)

	// Intentionally sign out of order to ensure ordering is fixed.
	assert.NoError(t, tx.Sign(
		context.Background(),
		keys[0],
		keys[1],
		keys[3],
		payer,
	))

	require.Len(t, tx.Signatures, 4)
	require.Len(t, tx.Message.Accounts, 6)
	assert.EqualValues(t, 4, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlyUnsigned)
	assert.NoError(t, tx.VerifySignatures())

	assert.Equal(t, payer.PublicKey(), tx.Message.Accounts[0])
	assert.Equal(t, keys[0].PublicKey(), tx.Message.Accounts[1])
	assert.Equal(t, keys[3].PublicKey(), tx.Message.Accounts[2])
	assert.Equal(t, keys[1].PublicKey(), tx.Message.Accounts[3])
	assert.Equal(t, keys[2].PublicKey(), tx.Message.Accounts[4])
	assert.Equal(t, program.PublicKey(), tx.Message.Accounts[5])

	assert.Equal(t, byte(5), tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, data, tx.Message.Instructions[0].Data)
	assert.Equal(t, []byte{1, 3, 4, 2, 1, 3, 4, 2}, tx.Message.Instructions[0].Accounts)
}

func TestLegacyTransaction_MultiInstruction(t *testing.T) {
	keys := generateSigners(t, 3)
	payer := keys[0]
	program := keys[1]
	program2 := keys[2]

	keys = generateSigners(t, 6)

	data := []byte{1, 2, 3}
	data2 := []byte{3, 4, 5}

	// Key[0]: ReadOnlySigner -> WritableSigner
	// Key[1]: ReadOnly       -> WritableSigner
	// Key[2]: Writable       -> Writable       (ReadOnly,noop)
	// Key[3]: WritableSigner -> WritableSigner (ReadOnly,noop)
	// Key[4]: n/a            -> WritableSigner
	// Key[5]: n/a            -> ReadOnly

	tx, err := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			program2.PublicKey(),
			data,
			NewReadonlyAccountMeta(keys[0].PublicKey(), true),
			NewReadonlyAccountMeta(keys[1].PublicKey(), false),
			NewAccountMeta(keys[2].PublicKey(), false),
			NewAccountMeta(keys[3].PublicKey(), true),
		),
		NewInstruction(
			program.PublicKey(),
			data2,
			// Ensure that keys don't get downgraded in permissions
			NewReadonlyAccountMeta(keys[3].PublicKey(), false),
			NewReadonlyAccountMeta(keys[2].PublicKey(), false),
			// Ensure we can upgrade upgrading works
			NewAccountMeta(keys[0].PublicKey(), false),
			NewAccountMeta(keys[1].PublicKey(), true),
			// Ensure accounts get added
			NewAccountMeta(keys[4].PublicKey(), true),
			NewReadonlyAccountMeta(keys[5].PublicKey(), false),
		),
	)
	require.NoError(t, err)

	assert.NoError(t, tx.Sign(
		context.Background(),
		payer,
		keys[0],
		keys[1],
		keys[3],
		keys[4],
	))

	require.Len(t, tx.Signatures, 5)
	require.Len(t, tx.Message.Accounts, 9)

	assert.EqualValues(t, 5, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 0, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 3, tx.Message.Header.NumReadonlyUnsigned)
	assert.NoError(t, tx.VerifySignatures())

	assert.Equal(t, payer.PublicKey(), tx.Message.Accounts[0])
	assert.Equal(t, keys[0].PublicKey(), tx.Message.Accounts[1])
	assert.Equal(t, keys[1].PublicKey(), tx.Message.Accounts[2])
	assert.Equal(t, keys[3].PublicKey(), tx.Message.Accounts[3])
	assert.Equal(t, keys[4].PublicKey(), tx.Message.Accounts[4])
	assert.Equal(t, keys[2].PublicKey(), tx.Message.Accounts[5])
	assert.Equal(t, keys[5].PublicKey(), tx.Message.Accounts[6])
	assert.Equal(t, program2.PublicKey(), tx.Message.Accounts[7])
	assert.Equal(t, program.PublicKey(), tx.Message.Accounts[8])

	assert.Equal(t, byte(7), tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, data, tx.Message.Instructions[0].Data)
	assert.Equal(t, []byte{1, 2, 5, 3}, tx.Message.Instructions[0].Accounts)

	assert.Equal(t, byte(8), tx.Message.Instructions[1].ProgramIndex)
	assert.Equal(t, data2, tx.Message.Instructions[1].Data)
	assert.Equal(t, []byte{3, 5, 1, 2, 4, 6}, tx.Message.Instructions[1].Accounts)
}

func TestV0Transaction_MarshalRoundTrip(t *testing.T) {
	expected := "Abyp+nvyM7ZEdWoZTeADD5Cz8QJVVjhTr6CnzVj/CX2MwosyMNzT0tVNJ3gIUo8qxW8V+KclAAntCexlsvc2TQiAAQAEBYNezk00yE7eeJ8KVQSTMRnfgqKr2TuCkI2OvY6VqupmBqfVFxksVo7gioRfc9KXiM8DXDFFshqzRNgGLqlAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAMGRm/lIRcy/+ytunLDm+e8jOW7xfcSayxDmzpAAAAAmu3bzcyfl+oHt1b29uzQvgBqO8OA3K6s5S0u4S+oQYqcHxhrhTySMLI0fOjClaCEkXjCshHIi9E63Co6m/5ZfgQCAwcBAAQEAAAAAwAFAkANAwADAAkD6AMAAAAAAAAEBQUGCAkKCgABAgMEBQYHCAkBtCdbdeueeYQHgQ6Wzm4pItAtbgGigO5L8M2bbV6t3zoDAgMAAwQFBg=="
	decoded, err := base64.StdEncoding.DecodeString(expected)
	require.NoError(t, err)
	var txn Transaction
	require.NoError(t, txn.Unmarshal(decoded))
	assert.Equal(t, decoded, txn.Marshal())
}

func TestTransaction_SetBlockhash(t *testing.T) {
	payer := generateSigners(t, 1)[0]
	tx := crossImplTransaction(t, payer)
	require.NoError(t, tx.VerifySignatures())

	signed := tx.Signature()
	tx.SetBlockhash(Blockhash{})
	assert.Equal(t, signed, tx.Signature())

	tx.SetBlockhash(Blockhash{1})
	assert.Equal(t, Blockhash{1}, tx.Message.RecentBlockhash)
	assert.True(t, tx.Signature().IsZero())
	assert.Error(t, tx.VerifySignatures())

	require.NoError(t, tx.Sign(context.Background(), payer))
	assert.NoError(t, tx.VerifySignatures())
	assert.NotEqual(t, signed, tx.Signature())
}

func TestTransaction_SignErrors(t *testing.T) {
	keys := generateSigners(t, 2)
	tx := crossImplTransaction(t, keys[0])

	err := tx.Sign(context.Background(), keys[1])
	assert.True(t, errors.Is(err, ErrSignerMismatch))

	assert.Error(t, tx.Sign(context.Background(), keys[0], keys[0]))

	// A failed sign leaves existing signatures alone, even when the slot
	// count disagrees with the message.
	mismatched := append([]Signature{tx.Signature()}, Signature{7})
	tx.Signatures = mismatched
	err = tx.Sign(context.Background(), keys[1])
	assert.True(t, errors.Is(err, ErrSignerMismatch))
	assert.Equal(t, []Signature{mismatched[0], {7}}, tx.Signatures)
	assert.Error(t, tx.Sign(context.Background(), keys[0], keys[0]))
	assert.Len(t, tx.Signatures, 2)

	require.NoError(t, tx.Sign(context.Background(), keys[0]))
	require.Len(t, tx.Signatures, 1)

	tx.Signatures[0][0] ^= 0xff
	assert.Error(t, tx.VerifySignatures())
}

func TestTransaction_UnmarshalStrict(t *testing.T) {
	tx := crossImplTransaction(t, generateSigners(t, 1)[0])
	encoded := tx.Marshal()

	var decoded Transaction
	err := decoded.Unmarshal(append(append([]byte(nil), encoded...), 0))
	assert.True(t, errors.Is(err, ErrTrailingBytes))

	// Signature count disagrees with the header.
	extra := append([]byte{2}, encoded[1:65]...)
	extra = append(extra, make([]byte, 64)...)
	extra = append(extra, encoded[65:]...)
	assert.Error(t, decoded.Unmarshal(extra))

	for i := 0; i < len(encoded); i++ {
		assert.Error(t, decoded.Unmarshal(encoded[:i]), "truncated at %d", i)
	}
}

func TestTransaction_JSON(t *testing.T) {
	tx := crossImplTransaction(t, generateSigners(t, 1)[0])

	b, err := json.Marshal(tx)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, "signatures")
	assert.Contains(t, raw, "message")

	var decoded Transaction
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, tx, decoded)

	// Missing signatures are rejected.
	var tampered map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &tampered))
	tampered["signatures"] = []string{}
	b, err = json.Marshal(tampered)
	require.NoError(t, err)
	assert.Error(t, json.Unmarshal(b, &decoded))

	assert.Contains(t, tx.String(), tx.Signature().String())
	assert.Contains(t, tx.String(), "Version: legacy")
}

func generateSigners(t *testing.T, amount int) []*KeypairSigner {
	keys := make([]*KeypairSigner, amount)

	for i := 0; i < amount; i++ {
		signer, err := GenerateKeypairSigner()
		require.NoError(t, err)
		keys[i] = signer
	}

	return keys
}
