package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeOutcomeID computes a deterministic outcome id using SHA256.
// Formula: SHA256("outcome|mint|started_at_ms")
// Returns hex-encoded hash (64 characters).
func ComputeOutcomeID(mint string, startedAtMs int64) string {
	return compute(fmt.Sprintf("outcome|%s|%d", mint, startedAtMs))
}

// ComputePositionID computes a deterministic position id using SHA256.
// Formula: SHA256("position|mint|opened_at_ms")
func ComputePositionID(mint string, openedAtMs int64) string {
	return compute(fmt.Sprintf("position|%s|%d", mint, openedAtMs))
}

func compute(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
