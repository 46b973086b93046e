package sign

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Chain identifies a supported blockchain. The set is closed: every variant
// has exactly one Signer implementation in this package, and dispatch over an
// unknown chain is an error, never a fallback.
type Chain string

const (
	ChainCardano  Chain = "cardano"
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
)

// ParseChain validates a chain name supplied by a caller.
func ParseChain(name string) (Chain, error) {
	switch Chain(name) {
	case ChainCardano, ChainEthereum, ChainSolana:
		return Chain(name), nil
	default:
		return "", fmt.Errorf("unsupported chain: %q", name)
	}
}

// Signer is an interface for a blockchain-agnostic signer.
type Signer interface {
	Chain() Chain                        // Chain this signer produces signatures for.
	Alg() string                         // Fixed label identifying the signature scheme.
	PublicKey() PublicKey                // Public key associated with this signer.
	Sign(data []byte) (Signature, error) // Sign generates a detached signature for the given data.
}

// PublicKey is an interface for a blockchain-agnostic public key.
type PublicKey interface {
	Address() Address
	Bytes() []byte
}

// Address is an interface for a blockchain-specific address.
type Address interface {
	fmt.Stringer // All addresses must have a string representation.

	// Equals returns true if this address equals the other address.
	Equals(other Address) bool
}

// Signature is a generic byte slice representing a cryptographic signature.
type Signature []byte

// MarshalJSON implements the json.Marshaler interface, encoding the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String implements the fmt.Stringer interface
func (s Signature) String() string {
	return hexutil.Encode(s)
}
