// Package plan is the single source of truth for every plan-gated limit and
// capability. Nothing outside this package compares plan names.
package plan

import (
	"time"

	"driftlink/transfer-api/internal/model"
)

type Limits struct {
	// Per-file upload ceiling in bytes
	MaxBytes int64
	// Active (non-expired) transfers an owner may hold
	MaxActiveFiles int64
	// Password-protected transfers an owner may hold
	MaxProtectedFiles int64
	// Custom share links an owner may hold
	MaxCustomLinks int64
	// Aggregate bytes across all active transfers
	MaxTotalBytes int64
	// Longest allowed lifetime for a single transfer
	MaxLifetimeDays int

	// Capability flags live here too so callers never branch on plan names
	CustomQR bool
}

const (
	Free     = "free"
	Pro      = "pro"
	Business = "business"
)

var tiers = map[string]Limits{
	Free: {
		MaxBytes:          200 << 20,
		MaxActiveFiles:    10,
		MaxProtectedFiles: 3,
		MaxCustomLinks:    2,
		MaxTotalBytes:     1 << 30,
		MaxLifetimeDays:   7,
		CustomQR:          false,
	},
	Pro: {
		MaxBytes:          2 << 30,
		MaxActiveFiles:    100,
		MaxProtectedFiles: 50,
		MaxCustomLinks:    25,
		MaxTotalBytes:     100 << 30,
		MaxLifetimeDays:   30,
		CustomQR:          true,
	},
	Business: {
		MaxBytes:          10 << 30,
		MaxActiveFiles:    1000,
		MaxProtectedFiles: 1000,
		MaxCustomLinks:    250,
		MaxTotalBytes:     1 << 40,
		MaxLifetimeDays:   365,
		CustomQR:          true,
	},
}

// LimitsFor maps a plan name to its limits. Unknown or garbage names degrade
// to the free tier, never to something more permissive.
func LimitsFor(name string) Limits {
	if l, ok := tiers[name]; ok {
		return l
	}
	return tiers[Free]
}

// Effective resolves the limits an owner is actually entitled to right now.
// A lapsed paid plan counts as free, and anonymous uploads (nil owner) get
// the free tier.
func Effective(owner *model.User, now time.Time) Limits {
	if owner == nil {
		return tiers[Free]
	}
	if owner.PlanExpiresAt != nil && now.After(*owner.PlanExpiresAt) {
		return tiers[Free]
	}
	return LimitsFor(owner.Plan)
}
