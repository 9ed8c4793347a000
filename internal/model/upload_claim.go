package model

import "time"

// UploadClaim marks an upload token as redeemed. The primary key is the token's
// jti, so inserting a claim is the atomic "first redemption wins" primitive: a
// second finalize with the same token hits the unique constraint instead of
// racing a read-check-write.
type UploadClaim struct {
	ID         string `gorm:"primaryKey"`
	TransferID string
	RedeemedAt time.Time
}
