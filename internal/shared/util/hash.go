package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// userKeyLen is the number of hex characters kept from the digest.
const userKeyLen = 32

// HashUserKey maps a token subject to a path-safe directory name, so object
// keys never carry raw identity.
func HashUserKey(subject string) string {
	sum := sha256.Sum256([]byte("resume-user:" + subject))
	return hex.EncodeToString(sum[:])[:userKeyLen]
}
