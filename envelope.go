package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Envelope is the result of one encryption call. The nonce is freshly random
// per call; reusing a nonce with the same derived key is a correctness violation.
type Envelope struct {
	CiphertextB64 string `json:"ciphertextB64"`
	NonceB64      string `json:"nonceB64"`
}

// EnvelopeService performs context-bound authenticated encryption under a
// process-wide master secret. A per-context key is derived with HKDF-SHA256
// using the context string as the domain-separation label, and the same context
// is additionally bound as AEAD associated data. A ciphertext produced under
// one context never decrypts under another, even with the correct master secret.
type EnvelopeService struct {
	masterSecret []byte
	disabled     bool
}

// NewEnvelopeService creates an envelope service over the given master secret.
// An empty secret or an explicit disable flag makes every call fail closed;
// there is no unkeyed fallback mode.
func NewEnvelopeService(masterSecret string, disabled bool) *EnvelopeService {
	return &EnvelopeService{
		masterSecret: []byte(masterSecret),
		disabled:     disabled,
	}
}

func (s *EnvelopeService) available() error {
	if s == nil || s.disabled {
		return NewConfigError("signing enclave is disabled")
	}
	if len(s.masterSecret) == 0 {
		return NewConfigError("master secret is not configured")
	}
	return nil
}

// deriveKey expands the master secret into a per-context AEAD key.
// Same context and master secret always yield the same key.
func (s *EnvelopeService) deriveKey(context string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.masterSecret, nil, []byte(context))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, NewCryptoError("key derivation failed", err)
	}
	return key, nil
}

// Encrypt seals plaintext under the context-derived key with a fresh random
// nonce. Two encryptions of identical plaintext produce distinct envelopes.
func (s *EnvelopeService) Encrypt(context string, plaintext []byte) (Envelope, error) {
	if err := s.available(); err != nil {
		return Envelope{}, err
	}
	key, err := s.deriveKey(context)
	if err != nil {
		return Envelope{}, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Envelope{}, NewCryptoError("cipher init failed", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, NewCryptoError("nonce generation failed", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, []byte(context))
	return Envelope{
		CiphertextB64: base64.StdEncoding.EncodeToString(ciphertext),
		NonceB64:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens a ciphertext previously sealed under the same context.
// A context, nonce, or ciphertext mismatch fails with a crypto error rather
// than ever returning corrupted plaintext.
func (s *EnvelopeService) Decrypt(context string, ciphertext, nonce []byte) ([]byte, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	key, err := s.deriveKey(context)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, NewCryptoError("cipher init failed", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, NewCryptoError("invalid nonce length", nil)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(context))
	if err != nil {
		return nil, NewCryptoError("decryption failed", err)
	}
	return plaintext, nil
}

// DecryptEnvelope is a convenience for callers holding the base64 envelope form.
func (s *EnvelopeService) DecryptEnvelope(context string, env Envelope) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(env.CiphertextB64)
	if err != nil {
		return nil, NewCryptoError("invalid ciphertext encoding", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return nil, NewCryptoError("invalid nonce encoding", err)
	}
	return s.Decrypt(context, ciphertext, nonce)
}
