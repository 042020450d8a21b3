// Package auth mints and verifies the short-lived API tokens handed out in
// exchange for a secret key.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "photogallery"

// Claims carries a fingerprint of the secret key the token was issued for,
// so log lines can tell tokens apart without exposing the key.
type Claims struct {
	jwt.RegisteredClaims
	KeyFingerprint string `json:"kfp"`
}

// Fingerprint returns a short, non-reversible identifier for a secret key.
func Fingerprint(secretKey string) string {
	sum := sha256.Sum256([]byte(secretKey))
	return hex.EncodeToString(sum[:8])
}

func GenerateToken(keyFingerprint string, signingKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		KeyFingerprint: keyFingerprint,
	})

	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the key fingerprint it was
// issued for. Expired tokens yield common.ErrTokenExpired, anything else
// that fails verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, signingKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.KeyFingerprint, nil
}
