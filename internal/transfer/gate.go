package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"
	"driftlink/transfer-api/pkg/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gate evaluates every access to a transfer through a strictly ordered chain:
// lookup, archival redirect, expiration, block, owner overage, download
// ceiling, password. The first failing check wins and decides the visitor's
// answer; nothing after it runs. The order is a contract, not an
// implementation detail.
type Gate struct {
	DB          *gorm.DB
	Store       ObjectStore
	Sweeper     *Sweeper
	DownloadTTL time.Duration
}

// DownloadGrant is a time-boxed presigned GET. Expiry is enforced by the
// storage provider, not by us.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Resolve runs the gate for a share-page view. It never mints a download URL
// and never touches the download counter; it does count the view.
func (g *Gate) Resolve(ctx context.Context, idOrLink, password string) (*model.Transfer, error) {
	return g.pass(ctx, idOrLink, password)
}

// Download runs the same gate and, on success, increments the download
// counter and mints the presigned GET URL.
func (g *Gate) Download(ctx context.Context, idOrLink, password string) (*DownloadGrant, error) {
	t, err := g.pass(ctx, idOrLink, password)
	if err != nil {
		return nil, err
	}

	// Single atomic increment. Two concurrent downloads at the ceiling may
	// overshoot by one, which is tolerated; losing an increment is not.
	err = g.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("id = ?", t.ID).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", 1)).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to increment download counter, %w", err)
	}

	url, err := g.Store.PresignGet(ctx, t.StorageKey, t.OriginalName, g.DownloadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download, %w", err)
	}

	return &DownloadGrant{
		URL:       url,
		ExpiresAt: time.Now().Add(g.DownloadTTL),
	}, nil
}

func (g *Gate) pass(ctx context.Context, idOrLink, password string) (*model.Transfer, error) {
	now := time.Now()

	t, err := g.lookup(ctx, idOrLink)
	if err != nil {
		return nil, err
	}

	state := Classify(t, now)

	switch state {
	case StateExpired:
		// Lazy retirement: the request that discovers the expiry pays
		// for the purge
		if err := g.Sweeper.Purge(ctx, t.ID); err != nil {
			zap.L().Error("Failed to purge expired transfer on access", zap.String("id", t.ID), zap.Error(err))
		}
		return nil, ErrExpired
	case StateBlocked:
		reason := "This file was blocked by a moderator"
		if t.BlockReason != nil {
			reason = *t.BlockReason
		}
		return nil, &BlockedError{Reason: reason}
	}

	if t.OwnerID != nil {
		var owner model.User

		err := g.DB.WithContext(ctx).Where("id = ?", *t.OwnerID).First(&owner).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load transfer owner, %w", err)
		}

		if owner.Blocked {
			return nil, &BlockedError{Reason: "The owner's account is suspended"}
		}

		// Plan downgrades don't delete files, they just suspend access
		// to all of them until the owner is back under their ceilings
		usage, err := (&Accountant{DB: g.DB}).UsageFor(ctx, owner.ID)
		if err != nil {
			return nil, err
		}
		if usage.Over(plan.Effective(&owner, now)) {
			return nil, ErrOwnerOverQuota
		}
	}

	if state == StateExhausted {
		return nil, ErrDownloadLimitReached
	}

	// Views count once per resolution, before the password verdict
	err = g.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Where("id = ?", t.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to increment view counter, %w", err)
	}

	if t.PasswordHash != nil {
		if password == "" {
			return nil, ErrPasswordRequired
		}

		ok, err := security.VerifyPassword(password, *t.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("failed to verify transfer password, %w", err)
		}
		if !ok {
			return nil, ErrWrongPassword
		}
	}

	return t, nil
}

// lookup resolves an identifier against active transfers first (by ID, then
// by custom link) and falls back to the archival snapshots so a link that
// once existed answers Gone instead of NotFound.
func (g *Gate) lookup(ctx context.Context, idOrLink string) (*model.Transfer, error) {
	var t model.Transfer

	err := g.DB.WithContext(ctx).Where("id = ?", idOrLink).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = g.DB.WithContext(ctx).Where("custom_link = ?", idOrLink).First(&t).Error
	}
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up transfer, %w", err)
	}

	var archived model.ExpiredTransfer

	err = g.DB.
		WithContext(ctx).
		Where("id = ? OR custom_link = ?", idOrLink, idOrLink).
		First(&archived).
		Error
	if err == nil {
		// Archival records keep their own view counter
		err = g.DB.
			WithContext(ctx).
			Model(model.ExpiredTransfer{}).
			Where("id = ?", archived.ID).
			UpdateColumn("views", gorm.Expr("views + ?", 1)).
			Error
		if err != nil {
			zap.L().Error("Failed to increment archival view counter", zap.String("id", archived.ID), zap.Error(err))
		}

		return nil, ErrGone
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up archival record, %w", err)
	}

	return nil, ErrNotFound
}
