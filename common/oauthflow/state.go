package oauthflow

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateTTL bounds how long an authorization URL stays valid.
const stateTTL = 10 * time.Minute

// stateClaims are the JWT claims carried in the OAuth state parameter.
// Signing the state lets the callback reject forged or replayed redirects.
type stateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// SignState produces a signed state parameter for a provider's auth URL.
func SignState(secret []byte, provider Provider) (string, error) {
	now := time.Now()
	claims := stateClaims{
		Provider: string(provider),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// VerifyState checks a state parameter returned on the callback. It fails
// on bad signatures, expiry, or a provider mismatch.
func VerifyState(secret []byte, provider Provider, state string) error {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid state parameter: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid state parameter")
	}
	if claims.Provider != string(provider) {
		return fmt.Errorf("state parameter was issued for provider %q", claims.Provider)
	}
	return nil
}
