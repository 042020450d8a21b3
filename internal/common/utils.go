package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString hex-encodes size random bytes.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
