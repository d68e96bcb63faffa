package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// BuildIdempotencyKey derives the deduplication key for a keyed request:
// actor identity + operation name + the caller-supplied token. Entries live
// for 24h in the idempotency store.
func BuildIdempotencyKey(actorID, operation, token string) string {
	return fmt.Sprintf("%s:%s:%s", actorID, operation, token)
}

// HashParams produces a deterministic token from request parameters, used
// when the caller supplies no explicit idempotency token.
func HashParams(params ...string) string {
	h := sha256.New()
	for _, p := range params {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
