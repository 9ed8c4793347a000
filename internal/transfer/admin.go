package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/notify"

	"gorm.io/gorm"
)

// Admin is the privileged moderation path. It only flips flags and purges;
// the access gate is what actually turns a block into a denial.
type Admin struct {
	DB       *gorm.DB
	Store    ObjectStore
	Notifier *notify.Dispatcher
}

// Block marks a transfer as blocked. The reason is mandatory because it's
// shown verbatim to anyone hitting the link afterwards.
func (a *Admin) Block(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	res := a.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"blocked":      true,
			"block_reason": reason,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to block transfer, %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	a.Notifier.Notify("transfer.blocked", map[string]any{
		"id":     id,
		"reason": reason,
	})

	return nil
}

func (a *Admin) Unblock(ctx context.Context, id string) error {
	res := a.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"blocked":      false,
			"block_reason": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to unblock transfer, %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ForceDelete removes a transfer outright, skipping the archival snapshot.
// The link stops existing entirely, so later visits answer NotFound, not Gone.
func (a *Admin) ForceDelete(ctx context.Context, id string) error {
	var t model.Transfer

	err := a.DB.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load transfer, %w", err)
		}

		// Maybe only the archival snapshot is left. True deletion wipes
		// that too.
		res := a.DB.WithContext(ctx).Where("id = ?", id).Delete(model.ExpiredTransfer{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete archival record, %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}

	if err := a.Store.Delete(ctx, t.StorageKey); err != nil {
		return fmt.Errorf("failed to delete storage object, %w", err)
	}

	if err := a.DB.WithContext(ctx).Delete(&t).Error; err != nil {
		return fmt.Errorf("failed to delete transfer record, %w", err)
	}

	a.Notifier.Notify("transfer.deleted", map[string]any{
		"id": id,
	})

	return nil
}
