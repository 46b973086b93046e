package main

import (
	"crypto/subtle"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// staticPrincipal is the principal recorded for callers presenting the shared
// API credential rather than a per-caller session token.
const staticPrincipal = "api"

// AuthManager authenticates bearer credentials presented to the enclave.
//
// Two credential forms are accepted: the configured static API token, compared
// in constant time to avoid timing side channels, and an HMAC-signed session
// token minted by the surrounding application, whose subject becomes the
// calling principal. The principal namespaces idempotency scopes so one
// caller's replayed key can never satisfy another caller's lookup.
type AuthManager struct {
	apiToken  []byte
	jwtSecret []byte
}

// NewAuthManager creates an auth manager. The static API token is required;
// the session token secret is optional.
func NewAuthManager(apiToken, jwtSecret string) (*AuthManager, error) {
	if apiToken == "" {
		return nil, NewConfigError("API token is not configured")
	}
	am := &AuthManager{apiToken: []byte(apiToken)}
	if jwtSecret != "" {
		am.jwtSecret = []byte(jwtSecret)
	}
	return am, nil
}

// Authenticate validates a bearer credential and returns the calling
// principal. Failure is terminal for the request.
func (am *AuthManager) Authenticate(bearer string) (string, error) {
	if bearer == "" {
		return "", NewAuthError("missing bearer credential")
	}

	if subtle.ConstantTimeCompare([]byte(bearer), am.apiToken) == 1 {
		return staticPrincipal, nil
	}

	if am.jwtSecret != nil && strings.Count(bearer, ".") == 2 {
		if principal, err := am.authenticateSession(bearer); err == nil {
			return principal, nil
		}
	}

	return "", NewAuthError("invalid bearer credential")
}

func (am *AuthManager) authenticateSession(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return am.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", NewAuthError("invalid session token")
	}
	return claims.Subject, nil
}
