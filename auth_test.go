package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIToken  = "test-api-token"
	testJWTSecret = "test-session-secret"
)

func mintSessionToken(t *testing.T, secret, subject string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestNewAuthManagerRequiresAPIToken(t *testing.T) {
	_, err := NewAuthManager("", "")
	require.Error(t, err)
	assert.Equal(t, CodeEnclaveDisabled, AsEnclaveError(err).Code)
}

func TestAuthenticateStaticToken(t *testing.T) {
	am, err := NewAuthManager(testAPIToken, "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		bearer    string
		principal string
		wantErr   bool
	}{
		{"Valid token", testAPIToken, staticPrincipal, false},
		{"Empty bearer", "", "", true},
		{"Wrong token", "not-the-token", "", true},
		{"Token with extra suffix", testAPIToken + "x", "", true},
		{"Token prefix only", testAPIToken[:len(testAPIToken)-1], "", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			principal, err := am.Authenticate(test.bearer)
			if test.wantErr {
				require.Error(t, err)
				assert.Equal(t, CodeUnauthorized, AsEnclaveError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.principal, principal)
		})
	}
}

func TestAuthenticateSessionToken(t *testing.T) {
	am, err := NewAuthManager(testAPIToken, testJWTSecret)
	require.NoError(t, err)

	t.Run("Valid session token", func(t *testing.T) {
		token := mintSessionToken(t, testJWTSecret, "user-42", time.Hour)
		principal, err := am.Authenticate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", principal)
	})

	t.Run("Expired session token", func(t *testing.T) {
		token := mintSessionToken(t, testJWTSecret, "user-42", -time.Hour)
		_, err := am.Authenticate(token)
		assert.Error(t, err)
	})

	t.Run("Wrong signing secret", func(t *testing.T) {
		token := mintSessionToken(t, "some-other-secret", "user-42", time.Hour)
		_, err := am.Authenticate(token)
		assert.Error(t, err)
	})

	t.Run("Missing subject", func(t *testing.T) {
		token := mintSessionToken(t, testJWTSecret, "", time.Hour)
		_, err := am.Authenticate(token)
		assert.Error(t, err)
	})

	t.Run("Static token still works", func(t *testing.T) {
		principal, err := am.Authenticate(testAPIToken)
		require.NoError(t, err)
		assert.Equal(t, staticPrincipal, principal)
	})
}

func TestAuthenticateSessionTokenDisabled(t *testing.T) {
	// Without a session secret configured, well-formed JWTs are just invalid bearers.
	am, err := NewAuthManager(testAPIToken, "")
	require.NoError(t, err)

	token := mintSessionToken(t, testJWTSecret, "user-42", time.Hour)
	_, err = am.Authenticate(token)
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, AsEnclaveError(err).Code)
}
