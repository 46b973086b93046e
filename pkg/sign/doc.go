// Package sign provides blockchain-agnostic cryptographic signing interfaces.
//
// This package defines core interfaces for digital signatures that can be
// implemented by various blockchain ecosystems while maintaining a consistent
// API for signing operations.
//
// The primary interfaces are:
//
//   - Signer: Core interface for cryptographic signing operations
//   - PublicKey: Interface for public key operations
//   - Address: Interface for blockchain addresses
//
// Each supported chain is one Signer variant behind the same contract:
// Cardano (ed25519 key derived from a BIP-39 mnemonic, bech32 enterprise
// address), Ethereum (secp256k1, Keccak256 message hashing), and Solana
// (ed25519, base58 address). The Chain enum is closed; callers dispatch on
// it and treat any other value as an error.
//
// # Security Design
//
// This package follows security best practices by:
//   - Never exposing private key material through interfaces
//   - Providing only necessary operations (signing and public key access)
//   - Preventing accidental private key leakage in logs or debugging
package sign
