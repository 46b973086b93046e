package sign

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// Ensure our types implement the interfaces at compile time.
var _ Signer = (*SolanaSigner)(nil)
var _ PublicKey = (*SolanaPublicKey)(nil)
var _ Address = (*SolanaAddress)(nil)

const solanaAlg = "ed25519"

// SolanaAddress is the base58 encoding of an ed25519 public key.
type SolanaAddress struct {
	encoded string
}

func (a SolanaAddress) String() string { return a.encoded }

// Equals returns true if this address equals the other address.
func (a SolanaAddress) Equals(other Address) bool {
	return a.encoded == other.String()
}

// SolanaPublicKey implements the PublicKey interface for Solana.
type SolanaPublicKey struct {
	key ed25519.PublicKey
}

func (p SolanaPublicKey) Address() Address {
	return SolanaAddress{encoded: base58.Encode(p.key)}
}

func (p SolanaPublicKey) Bytes() []byte { return append([]byte(nil), p.key...) }

// SolanaSigner is the Solana implementation of the Signer interface.
type SolanaSigner struct {
	privateKey ed25519.PrivateKey
	publicKey  SolanaPublicKey
}

// NewSolanaSigner creates a Solana signer from a hex-encoded 32-byte seed.
func NewSolanaSigner(seedHex string) (*SolanaSigner, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid seed encoding: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: got %d, want %d", len(seed), ed25519.SeedSize)
	}
	privateKey := ed25519.NewKeyFromSeed(seed)
	pub := privateKey.Public().(ed25519.PublicKey)
	return &SolanaSigner{
		privateKey: privateKey,
		publicKey:  SolanaPublicKey{key: pub},
	}, nil
}

func (s *SolanaSigner) Chain() Chain         { return ChainSolana }
func (s *SolanaSigner) Alg() string          { return solanaAlg }
func (s *SolanaSigner) PublicKey() PublicKey { return s.publicKey }

// Sign produces a detached ed25519 signature over the raw payload bytes.
func (s *SolanaSigner) Sign(data []byte) (Signature, error) {
	return Signature(ed25519.Sign(s.privateKey, data)), nil
}
