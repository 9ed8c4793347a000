// Package model defines database models
package model

import "time"

type Transfer struct {
	ID      string  `gorm:"primaryKey" json:"id"`
	OwnerID *string `gorm:"index" json:"-"` // nil for anonymous uploads

	// Since file names repeat across users the S3 object lives under its own key
	StorageKey   string `json:"-"`
	OriginalName string `json:"name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`

	// Immutable once set. Resolvable in place of the ID
	CustomLink   *string `gorm:"uniqueIndex" json:"custom_link,omitempty"`
	PasswordHash *string `json:"-"`
	// 0 means unlimited
	MaxDownloads int64 `json:"max_downloads"`
	// Affects profile listing only, never access gating
	Public bool `json:"public"`

	// Only ever mutated through atomic increments
	Views     int64 `json:"views"`
	Downloads int64 `json:"downloads"`

	Blocked     bool    `json:"blocked"`
	BlockReason *string `json:"block_reason,omitempty"`

	RecipientEmail *string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredTransfer is the archival snapshot written when a transfer is purged.
// The storage object is gone by then, so only display fields survive. Keyed by
// the original transfer ID so it's written at most once per transfer.
type ExpiredTransfer struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	CustomLink   *string   `gorm:"index" json:"custom_link,omitempty"`
	OriginalName string    `json:"name"`
	Size         int64     `json:"size"`
	Views        int64     `json:"views"`
	ExpiredAt    time.Time `json:"expired_at"`
}
