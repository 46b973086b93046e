package main

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipyardlabs/enclaved/pkg/sign"
)

func TestChainAdaptersSignData(t *testing.T) {
	cardano := sign.NewMockSigner(sign.ChainCardano, "addr1-mock")
	ethereum := sign.NewMockSigner(sign.ChainEthereum, "0xmock")
	adapters := NewChainAdapters(cardano, ethereum)

	payload := []byte("data to sign")
	intent := SigningIntent{
		KeyRef:     "default",
		Chain:      "cardano",
		PayloadB64: base64.StdEncoding.EncodeToString(payload),
	}

	result, err := adapters.SignData(intent)
	require.NoError(t, err)
	assert.Equal(t, "addr1-mock", result.Address)
	assert.Equal(t, "mock", result.Alg)
	assert.Equal(t, hex.EncodeToString(cardano.PublicKey().Bytes()), result.Key)
	assert.NotEmpty(t, result.Signature)

	t.Run("Dispatch picks the intent's chain", func(t *testing.T) {
		intent := intent
		intent.Chain = "ethereum"
		result, err := adapters.SignData(intent)
		require.NoError(t, err)
		assert.Equal(t, "0xmock", result.Address)
	})
}

func TestChainAdaptersErrors(t *testing.T) {
	adapters := NewChainAdapters(sign.NewMockSigner(sign.ChainCardano, "addr1-mock"))

	validPayload := base64.StdEncoding.EncodeToString([]byte("payload"))

	tests := []struct {
		name     string
		intent   SigningIntent
		wantCode ErrorCode
	}{
		{
			name:     "Unknown chain name",
			intent:   SigningIntent{KeyRef: "k", Chain: "dogecoin", PayloadB64: validPayload},
			wantCode: CodeBadRequest,
		},
		{
			name:     "Known chain without a signer",
			intent:   SigningIntent{KeyRef: "k", Chain: "solana", PayloadB64: validPayload},
			wantCode: CodeAdapterConfig,
		},
		{
			name:     "Payload is not base64",
			intent:   SigningIntent{KeyRef: "k", Chain: "cardano", PayloadB64: "!!not-base64!!"},
			wantCode: CodeBadRequest,
		},
		{
			name:     "Address mismatch",
			intent:   SigningIntent{KeyRef: "k", Chain: "cardano", PayloadB64: validPayload, Address: "addr1-someone-else"},
			wantCode: CodeBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := adapters.SignData(test.intent)
			require.Error(t, err)
			assert.Equal(t, test.wantCode, AsEnclaveError(err).Code)
		})
	}
}

func TestChainAdaptersMatchingAddressAccepted(t *testing.T) {
	adapters := NewChainAdapters(sign.NewMockSigner(sign.ChainCardano, "addr1-mock"))

	_, err := adapters.SignData(SigningIntent{
		KeyRef:     "k",
		Chain:      "cardano",
		PayloadB64: base64.StdEncoding.EncodeToString([]byte("payload")),
		Address:    "addr1-mock",
	})
	assert.NoError(t, err)
}

func TestChainAdaptersChains(t *testing.T) {
	adapters := NewChainAdapters(
		sign.NewMockSigner(sign.ChainCardano, "a"),
		sign.NewMockSigner(sign.ChainSolana, "b"),
	)
	assert.ElementsMatch(t, []sign.Chain{sign.ChainCardano, sign.ChainSolana}, adapters.Chains())
}
