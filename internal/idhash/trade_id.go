// Package idhash computes deterministic identifiers so repeated runs over
// the same inputs produce identical records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(ticker|strategy_id|entry_date) with the date rendered as
// YYYY-MM-DD. Returns the hex-encoded hash (64 characters).
func ComputeTradeID(ticker, strategyID string, entryDate time.Time) string {
	data := fmt.Sprintf("%s|%s|%s", ticker, strategyID, entryDate.Format("2006-01-02"))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputePromptHash computes the SHA256 content hash of an LLM prompt for
// the audit trail.
func ComputePromptHash(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(hash[:])
}
