package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier resolves a bearer token to a user identity.
type TokenVerifier interface {
	VerifyToken(token string) (int, error)
}

// Verifier validates HMAC-signed session tokens issued by the identity
// provider and extracts the user id from the subject claim.
type Verifier struct {
	signingKey []byte
}

// NewVerifier constructs a Verifier.
func NewVerifier(signingKey []byte) *Verifier {
	return &Verifier{signingKey: signingKey}
}

// VerifyToken parses and validates the token, returning the user id.
func (v *Verifier) VerifyToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
