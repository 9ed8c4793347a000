package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sweeper retires transfers: the storage object is deleted, a snapshot of the
// display fields is archived exactly once, and the transfer row is removed.
// The same code path serves lazy purge-on-access and the scheduled sweep.
type Sweeper struct {
	DB       *gorm.DB
	Store    ObjectStore
	Notifier *notify.Dispatcher
}

// Purge retires a single transfer. Idempotent: a transfer that's already gone
// is not an error, concurrent purges converge on the same end state.
func (s *Sweeper) Purge(ctx context.Context, id string) error {
	var t model.Transfer

	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load transfer for purge, %w", err)
	}

	// Storage first. If the delete fails the row stays so a later sweep
	// retries instead of leaking the object forever.
	if err := s.Store.Delete(ctx, t.StorageKey); err != nil {
		return fmt.Errorf("failed to delete storage object, %w", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Keyed by the original ID, written at most once
		err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.ExpiredTransfer{
				ID:           t.ID,
				CustomLink:   t.CustomLink,
				OriginalName: t.OriginalName,
				Size:         t.Size,
				Views:        t.Views,
				ExpiredAt:    time.Now(),
			}).
			Error
		if err != nil {
			return fmt.Errorf("failed to write archival record, %w", err)
		}

		if err := tx.Delete(&t).Error; err != nil {
			return fmt.Errorf("failed to delete transfer record, %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.Notifier.Notify("transfer.purged", map[string]any{
		"id":   t.ID,
		"name": t.OriginalName,
	})

	return nil
}

// Sweep retires everything past its expiry. Run from the cron schedule so
// transfers nobody visits again still get reclaimed; a failed purge is logged
// and retried on the next pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	var ids []string

	err := s.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("expires_at < ?", time.Now()).
		Select("id").
		Find(&ids).
		Error
	if err != nil {
		zap.L().Error("Failed to query expired transfers", zap.Error(err))
		return
	}

	if len(ids) == 0 {
		return
	}

	zap.L().Debug("Sweeping expired transfers", zap.Int("count", len(ids)))

	for _, id := range ids {
		if err := s.Purge(ctx, id); err != nil {
			zap.L().Error("Failed to purge expired transfer", zap.String("id", id), zap.Error(err))
		}
	}
}
