package transfer

import (
	"time"

	"driftlink/transfer-api/internal/model"
)

// State is derived, never persisted. The gate and the UI both go through
// Classify so the date/flag comparisons live in exactly one place.
type State int

const (
	StateActive State = iota
	StateExpired
	StateBlocked
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateBlocked:
		return "blocked"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Classify computes the lifecycle state of a transfer at a given instant.
// Expiry wins over a block, a block wins over an exhausted download counter.
// That order is a contract: it decides which denial a visitor sees.
func Classify(t *model.Transfer, now time.Time) State {
	if now.After(t.ExpiresAt) {
		return StateExpired
	}
	if t.Blocked {
		return StateBlocked
	}
	if t.MaxDownloads > 0 && t.Downloads >= t.MaxDownloads {
		return StateExhausted
	}
	return StateActive
}
