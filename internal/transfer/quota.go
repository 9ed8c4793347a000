package transfer

import (
	"context"
	"fmt"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"

	"gorm.io/gorm"
)

// Accountant computes an owner's current usage by aggregating their active
// transfers on demand. No cached counters, so it can't drift from the
// transfer set; the cost is one aggregation query per call.
type Accountant struct {
	DB *gorm.DB
}

type Usage struct {
	ActiveFiles    int64 `json:"active_files"`
	ProtectedFiles int64 `json:"protected_files"`
	CustomLinks    int64 `json:"custom_links"`
	TotalBytes     int64 `json:"total_bytes"`
}

func (a *Accountant) UsageFor(ctx context.Context, ownerID string) (*Usage, error) {
	var u Usage

	// COUNT over a nullable column skips NULLs, which is exactly the
	// protected/custom-link semantics
	err := a.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("owner_id = ? AND expires_at > ?", ownerID, time.Now()).
		Select("COUNT(*) AS active_files, COUNT(password_hash) AS protected_files, COUNT(custom_link) AS custom_links, COALESCE(SUM(size), 0) AS total_bytes").
		Scan(&u).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate owner usage, %w", err)
	}

	return &u, nil
}

// Over reports whether any dimension is strictly past its ceiling. Sitting
// exactly at a limit is not an overage: existing files aren't punished until
// the owner is clearly over, only new actions are gated with >= checks.
func (u *Usage) Over(l plan.Limits) bool {
	return u.ActiveFiles > l.MaxActiveFiles ||
		u.ProtectedFiles > l.MaxProtectedFiles ||
		u.CustomLinks > l.MaxCustomLinks ||
		u.TotalBytes > l.MaxTotalBytes
}
