package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"strings"

	"github.com/shipyardlabs/enclaved/pkg/sign"
)

// runVerifyCli checks a detached signature produced by the enclave against a
// payload and a public key, without touching any secret material.
// Example: enclaved verify cardano <payload-hex> <signature-hex> <pubkey-hex>
func runVerifyCli(logger Logger) {
	logger = logger.NewSystem("verify")
	if len(os.Args) != 6 {
		logger.Fatal("Usage: enclaved verify <chain> <payload-hex> <signature-hex> <pubkey-hex>")
	}

	chain, err := sign.ParseChain(os.Args[2])
	if err != nil {
		logger.Fatal("Invalid chain", "error", err)
	}

	payload, err := hex.DecodeString(strings.TrimPrefix(os.Args[3], "0x"))
	if err != nil {
		logger.Fatal("Invalid payload hex", "error", err)
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(os.Args[4], "0x"))
	if err != nil {
		logger.Fatal("Invalid signature hex", "error", err)
	}
	pubKey, err := hex.DecodeString(strings.TrimPrefix(os.Args[5], "0x"))
	if err != nil {
		logger.Fatal("Invalid public key hex", "error", err)
	}

	var valid bool
	switch chain {
	case sign.ChainCardano, sign.ChainSolana:
		valid = sign.VerifyCardano(ed25519.PublicKey(pubKey), payload, sign.Signature(signature))
	case sign.ChainEthereum:
		recovered, err := sign.RecoverEthereumAddress(payload, sign.Signature(signature))
		if err != nil {
			logger.Fatal("Signature recovery failed", "error", err)
		}
		pub, err := sign.NewEthereumPublicKeyFromBytes(pubKey)
		if err != nil {
			logger.Fatal("Invalid ethereum public key", "error", err)
		}
		valid = recovered.Equals(pub.Address())
	}

	if !valid {
		logger.Fatal("Signature is INVALID")
	}
	logger.Info("Signature is valid", "chain", string(chain))
}
