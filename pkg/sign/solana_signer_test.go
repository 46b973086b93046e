package sign

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSolanaSeed = "0000000000000000000000000000000000000000000000000000000000000001"

func TestSolanaSigner(t *testing.T) {
	t.Run("Initialisation", func(t *testing.T) {
		signer, err := NewSolanaSigner(testSolanaSeed)
		require.NoError(t, err)
		assert.Equal(t, ChainSolana, signer.Chain())
		assert.Equal(t, "ed25519", signer.Alg())
	})

	t.Run("Invalid hex", func(t *testing.T) {
		_, err := NewSolanaSigner("not-hex")
		assert.ErrorContains(t, err, "invalid seed encoding")
	})

	t.Run("Wrong length", func(t *testing.T) {
		_, err := NewSolanaSigner("abcd")
		assert.ErrorContains(t, err, "invalid seed length")
	})
}

func TestSolanaAddress(t *testing.T) {
	signer, err := NewSolanaSigner(testSolanaSeed)
	require.NoError(t, err)

	// The address is the base58 form of the derived public key.
	seed, err := hex.DecodeString(testSolanaSeed)
	require.NoError(t, err)
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	assert.Equal(t, base58.Encode(pub), signer.PublicKey().Address().String())
	assert.Equal(t, []byte(pub), signer.PublicKey().Bytes())
}

func TestSolanaSign(t *testing.T) {
	signer, err := NewSolanaSigner(testSolanaSeed)
	require.NoError(t, err)

	payload := []byte("solana payload")
	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	require.Len(t, []byte(sig), ed25519.SignatureSize)

	pub := ed25519.PublicKey(signer.PublicKey().Bytes())
	assert.True(t, ed25519.Verify(pub, payload, sig))
}
