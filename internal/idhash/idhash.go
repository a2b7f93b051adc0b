package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(ticker|entry_time_ms|entry_price|size|strategy)
// Returns hex-encoded hash (64 characters).
//
// Used when the source ledger row carries no external reference id, so that
// re-loading the same ledger always yields the same ids.
func ComputeTradeID(ticker string, entryTimeMs int64, entryPrice, size float64, strategy string) string {
	data := fmt.Sprintf("%s|%d|%.10f|%.10f|%s",
		ticker,
		entryTimeMs,
		entryPrice,
		size,
		strategy,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
