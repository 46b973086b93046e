package main

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/shipyardlabs/enclaved/pkg/sign"
)

// SigningIntent is the input to the orchestrator. It is immutable once
// received; the enclave never rewrites any of its fields.
type SigningIntent struct {
	KeyRef         string `json:"keyRef" validate:"required"`
	Chain          string `json:"chain" validate:"required"`
	PayloadB64     string `json:"payload" validate:"required"`
	Address        string `json:"address,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// SignedResult is the response to a signing intent.
type SignedResult struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Key       string `json:"key"`
	Alg       string `json:"alg"`
}

// ChainAdapters dispatches signing intents to the signer variant named by the
// intent's chain field. The set of variants is fixed at construction; an
// intent naming a chain with no configured signer is an adapter error, never
// a placeholder signature.
type ChainAdapters struct {
	signers map[sign.Chain]sign.Signer
}

func NewChainAdapters(signers ...sign.Signer) *ChainAdapters {
	m := make(map[sign.Chain]sign.Signer, len(signers))
	for _, s := range signers {
		m[s.Chain()] = s
	}
	return &ChainAdapters{signers: m}
}

// Chains returns the chains that have a configured signer.
func (a *ChainAdapters) Chains() []sign.Chain {
	chains := make([]sign.Chain, 0, len(a.signers))
	for chain := range a.signers {
		chains = append(chains, chain)
	}
	return chains
}

// SignData derives the chain signer for the intent and produces a detached
// signature over the decoded payload bytes. Signing mutates no process state.
func (a *ChainAdapters) SignData(intent SigningIntent) (SignedResult, error) {
	chain, err := sign.ParseChain(intent.Chain)
	if err != nil {
		return SignedResult{}, NewBadRequestError(err.Error())
	}
	signer, ok := a.signers[chain]
	if !ok {
		return SignedResult{}, NewAdapterConfigError("no signer configured for chain " + intent.Chain)
	}

	payload, err := base64.StdEncoding.DecodeString(intent.PayloadB64)
	if err != nil {
		return SignedResult{}, NewBadRequestError("payload is not valid base64")
	}

	address := signer.PublicKey().Address()
	if intent.Address != "" && intent.Address != address.String() {
		return SignedResult{}, NewBadRequestError("address does not match the configured signing key")
	}

	signature, err := signer.Sign(payload)
	if err != nil {
		return SignedResult{}, NewAdapterError("signing failed", err)
	}

	return SignedResult{
		Address:   address.String(),
		Signature: signature.String(),
		Key:       hex.EncodeToString(signer.PublicKey().Bytes()),
		Alg:       signer.Alg(),
	}, nil
}
