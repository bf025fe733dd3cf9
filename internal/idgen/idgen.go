// Package idgen generates opaque identifiers and confirmation tokens.
package idgen

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Byte widths for generated values. Run and plan IDs use 8 random bytes
// rendered as hex; review tokens use 18 random bytes rendered as URL-safe
// base64, which keeps them copy-pasteable without padding characters.
const (
	idBytes    = 8
	tokenBytes = 18
)

// RunID returns a fresh run identifier: "run_" + 16 hex chars.
func RunID() string {
	return "run_" + randomHex(idBytes)
}

// PlanID returns a fresh plan identifier: "plan_" + 16 hex chars.
func PlanID() string {
	return "plan_" + randomHex(idBytes)
}

// ReviewToken returns a fresh opaque confirmation token: "rvw_" + 24
// URL-safe base64 chars. The raw value is shown to the caller exactly once;
// storage only ever sees its hash.
func ReviewToken() string {
	return "rvw_" + randomURLSafe(tokenBytes)
}

// TokenHash returns the hex SHA-256 digest used as the storage key for a
// review token value.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; if it does the
		// process cannot safely mint credentials.
		panic(fmt.Sprintf("idgen: random source unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

func randomURLSafe(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("idgen: random source unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
