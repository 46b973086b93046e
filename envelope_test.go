package main

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterSecret = "unit-test-master-secret"

func setupEnvelopeService(t *testing.T) *EnvelopeService {
	t.Helper()
	return NewEnvelopeService(testMasterSecret, false)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	svc := setupEnvelopeService(t)

	tests := []struct {
		name      string
		context   string
		plaintext []byte
	}{
		{"Short payload", "wallet:user-1", []byte("hello")},
		{"Empty payload", "wallet:user-1", []byte{}},
		{"Binary payload", "seed:cardano", []byte{0x00, 0xff, 0x10, 0x80}},
		{"Large payload", "backup", make([]byte, 64*1024)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			env, err := svc.Encrypt(test.context, test.plaintext)
			require.NoError(t, err)
			require.NotEmpty(t, env.CiphertextB64)
			require.NotEmpty(t, env.NonceB64)

			got, err := svc.DecryptEnvelope(test.context, env)
			require.NoError(t, err)
			assert.Equal(t, test.plaintext, got)
		})
	}
}

func TestEnvelopeContextBinding(t *testing.T) {
	svc := setupEnvelopeService(t)
	plaintext := []byte("secret wallet material")

	env, err := svc.Encrypt("context-a", plaintext)
	require.NoError(t, err)

	// The same master secret must not open the envelope under another context.
	_, err = svc.DecryptEnvelope("context-b", env)
	require.Error(t, err)
	ee := AsEnclaveError(err)
	assert.Equal(t, CodeCryptoFailure, ee.Code)

	got, err := svc.DecryptEnvelope("context-a", env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEnvelopeNonceFreshness(t *testing.T) {
	svc := setupEnvelopeService(t)
	plaintext := []byte("identical plaintext")

	first, err := svc.Encrypt("context", plaintext)
	require.NoError(t, err)
	second, err := svc.Encrypt("context", plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, first.NonceB64, second.NonceB64)
	assert.NotEqual(t, first.CiphertextB64, second.CiphertextB64)
}

func TestEnvelopeTamperDetection(t *testing.T) {
	svc := setupEnvelopeService(t)

	env, err := svc.Encrypt("context", []byte("payload"))
	require.NoError(t, err)

	t.Run("Flipped ciphertext byte", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(env.CiphertextB64)
		require.NoError(t, err)
		raw[0] ^= 0x01
		tampered := env
		tampered.CiphertextB64 = base64.StdEncoding.EncodeToString(raw)

		_, err = svc.DecryptEnvelope("context", tampered)
		assert.Error(t, err)
	})

	t.Run("Wrong nonce", func(t *testing.T) {
		nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
		require.NoError(t, err)
		nonce[0] ^= 0x01
		tampered := env
		tampered.NonceB64 = base64.StdEncoding.EncodeToString(nonce)

		_, err = svc.DecryptEnvelope("context", tampered)
		assert.Error(t, err)
	})

	t.Run("Truncated nonce", func(t *testing.T) {
		ciphertext, err := base64.StdEncoding.DecodeString(env.CiphertextB64)
		require.NoError(t, err)
		_, err = svc.Decrypt("context", ciphertext, []byte{0x01, 0x02})
		assert.Error(t, err)
	})
}

func TestEnvelopeFailsClosed(t *testing.T) {
	t.Run("Missing master secret", func(t *testing.T) {
		svc := NewEnvelopeService("", false)

		_, err := svc.Encrypt("context", []byte("data"))
		require.Error(t, err)
		assert.Equal(t, CodeEnclaveDisabled, AsEnclaveError(err).Code)

		_, err = svc.Decrypt("context", []byte("x"), []byte("y"))
		require.Error(t, err)
		assert.Equal(t, CodeEnclaveDisabled, AsEnclaveError(err).Code)
	})

	t.Run("Administratively disabled", func(t *testing.T) {
		svc := NewEnvelopeService(testMasterSecret, true)

		_, err := svc.Encrypt("context", []byte("data"))
		require.Error(t, err)
		assert.Equal(t, CodeEnclaveDisabled, AsEnclaveError(err).Code)
	})
}

func TestEnvelopeDeterministicDerivation(t *testing.T) {
	// Two service instances over the same master secret interoperate.
	a := NewEnvelopeService(testMasterSecret, false)
	b := NewEnvelopeService(testMasterSecret, false)

	env, err := a.Encrypt("shared-context", []byte("cross-instance"))
	require.NoError(t, err)

	got, err := b.DecryptEnvelope("shared-context", env)
	require.NoError(t, err)
	assert.Equal(t, []byte("cross-instance"), got)

	// A different master secret must not.
	c := NewEnvelopeService("another-secret", false)
	_, err = c.DecryptEnvelope("shared-context", env)
	assert.Error(t, err)
}
