package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks bearer tokens issued by the auth service. Only
// verification lives here; issuance is the auth service's business.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier with the shared HMAC secret.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// ValidateToken verifies signature and expiry and returns the subject
// user id.
func (v *Verifier) ValidateToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
