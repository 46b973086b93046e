package sign

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// Ensure our types implement the interfaces at compile time.
var _ Signer = (*CardanoSigner)(nil)
var _ PublicKey = (*CardanoPublicKey)(nil)
var _ Address = (*CardanoAddress)(nil)

// cardanoAlg is the fixed algorithm label returned with every Cardano signature.
const cardanoAlg = "ed25519"

// Enterprise address header: type 6 (payment key hash only, no staking part)
// on mainnet (network id 1).
const cardanoEnterpriseHeader = 0x61

const cardanoAddressHRP = "addr"

// CardanoAddress is a bech32 enterprise address derived from a payment key.
type CardanoAddress struct {
	encoded string
}

func (a CardanoAddress) String() string { return a.encoded }

// Equals returns true if this address equals the other address.
func (a CardanoAddress) Equals(other Address) bool {
	return a.encoded == other.String()
}

// NewCardanoAddress derives the enterprise address for an ed25519 payment key:
// bech32("addr", header || blake2b-224(publicKey)).
func NewCardanoAddress(pub ed25519.PublicKey) (CardanoAddress, error) {
	hasher, err := blake2b.New(28, nil)
	if err != nil {
		return CardanoAddress{}, err
	}
	hasher.Write(pub)
	payload := append([]byte{cardanoEnterpriseHeader}, hasher.Sum(nil)...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return CardanoAddress{}, fmt.Errorf("address bit conversion failed: %w", err)
	}
	encoded, err := bech32.Encode(cardanoAddressHRP, converted)
	if err != nil {
		return CardanoAddress{}, fmt.Errorf("address encoding failed: %w", err)
	}
	return CardanoAddress{encoded: encoded}, nil
}

// CardanoPublicKey implements the PublicKey interface for Cardano.
type CardanoPublicKey struct {
	key     ed25519.PublicKey
	address CardanoAddress
}

func (p CardanoPublicKey) Address() Address { return p.address }
func (p CardanoPublicKey) Bytes() []byte    { return append([]byte(nil), p.key...) }

// CardanoSigner is the Cardano implementation of the Signer interface.
// The keypair is derived deterministically from configured mnemonic seed
// material, so the same mnemonic always yields the same address.
type CardanoSigner struct {
	privateKey ed25519.PrivateKey
	publicKey  CardanoPublicKey
}

// NewCardanoSigner creates a Cardano signer from a BIP-39 mnemonic.
func NewCardanoSigner(mnemonic string) (*CardanoSigner, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("mnemonic is required")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	privateKey := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])

	pub, ok := privateKey.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}
	address, err := NewCardanoAddress(pub)
	if err != nil {
		return nil, err
	}
	return &CardanoSigner{
		privateKey: privateKey,
		publicKey:  CardanoPublicKey{key: pub, address: address},
	}, nil
}

func (s *CardanoSigner) Chain() Chain         { return ChainCardano }
func (s *CardanoSigner) Alg() string          { return cardanoAlg }
func (s *CardanoSigner) PublicKey() PublicKey { return s.publicKey }

// Sign produces a detached ed25519 signature over the raw payload bytes.
func (s *CardanoSigner) Sign(data []byte) (Signature, error) {
	return Signature(ed25519.Sign(s.privateKey, data)), nil
}

// VerifyCardano checks a detached signature against a payload and public key.
func VerifyCardano(pub ed25519.PublicKey, payload []byte, sig Signature) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, payload, sig)
}
