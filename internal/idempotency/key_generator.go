package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey builds a deterministic key from kind and parts. The kind stays
// readable so keys can be told apart in Redis.
func GenerateKey(kind string, parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return kind + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
