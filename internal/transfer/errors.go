// Package transfer implements the transfer lifecycle: grant issuance,
// finalization, the access gate, quota accounting, sweeping and moderation.
package transfer

import (
	"errors"
	"fmt"
)

// Every expected, user-facing outcome is a sentinel so handlers can map each
// one to its own response. Anything else bubbling out of this package is an
// infrastructure failure.
var (
	ErrInvalidDescriptor = errors.New("invalid upload descriptor")

	ErrSizeExceeded    = errors.New("file size exceeds the plan limit")
	ErrExpiryTooFar    = errors.New("requested expiry exceeds the plan limit")
	ErrQuotaExceeded   = errors.New("plan quota exceeded")
	ErrCustomLinkTaken = errors.New("custom link is already taken")

	ErrInvalidToken     = errors.New("upload token is invalid")
	ErrTokenExpired     = errors.New("upload token has expired")
	ErrTokenAlreadyUsed = errors.New("upload token was already redeemed")
	ErrUploadIncomplete = errors.New("no object was uploaded for this token")

	ErrNotFound             = errors.New("transfer not found")
	ErrGone                 = errors.New("transfer no longer exists")
	ErrExpired              = errors.New("transfer has expired")
	ErrBlocked              = errors.New("transfer is blocked")
	ErrOwnerOverQuota       = errors.New("owner is over their plan quota")
	ErrDownloadLimitReached = errors.New("download limit reached")
	ErrPasswordRequired     = errors.New("password required")
	ErrWrongPassword        = errors.New("wrong password")

	ErrReasonRequired = errors.New("a block reason is required")
)

// BlockedError carries the admin-supplied reason so it can be shown verbatim.
// It matches ErrBlocked under errors.Is.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("transfer is blocked: %s", e.Reason)
}

func (e *BlockedError) Unwrap() error {
	return ErrBlocked
}
