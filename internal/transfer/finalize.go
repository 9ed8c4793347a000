package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/notify"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// Finalizer turns a redeemed upload token into a durable transfer record.
// Redemption is at-most-once: the token's jti is claimed with a unique-key
// insert in the same transaction that creates the transfer, so a plain
// read-check-write race can't slip a second redemption through.
type Finalizer struct {
	DB       *gorm.DB
	Store    ObjectStore
	Secret   []byte
	BaseURL  string
	Notifier *notify.Dispatcher
}

type FinalizeResult struct {
	ID        string `json:"id"`
	ShareLink string `json:"share_link"`
}

func (f *Finalizer) Finalize(ctx context.Context, token string) (*FinalizeResult, error) {
	claims := &grantClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return f.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.ID == "" || claims.StorageKey == "" {
		return nil, ErrInvalidToken
	}

	// The client reports that its PUT succeeded. Don't take its word for
	// it, confirm the object is actually there before minting a record.
	if err := f.Store.Stat(ctx, claims.StorageKey); err != nil {
		return nil, ErrUploadIncomplete
	}

	id, err := gonanoid.Generate(keyCharset, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate transfer ID, %w", err)
	}

	t := &model.Transfer{
		ID:           id,
		StorageKey:   claims.StorageKey,
		OriginalName: claims.Name,
		MimeType:     claims.MimeType,
		Size:         claims.Size,
		MaxDownloads: claims.MaxDownloads,
		Public:       true,
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Unix(claims.TransferExp, 0),
	}
	if claims.OwnerID != "" {
		t.OwnerID = &claims.OwnerID
	}
	if claims.PasswordHash != "" {
		t.PasswordHash = &claims.PasswordHash
	}
	if claims.CustomLink != "" {
		t.CustomLink = &claims.CustomLink
	}
	if claims.RecipientEmail != "" {
		t.RecipientEmail = &claims.RecipientEmail
	}

	// Claim and create must commit together. A custom-link collision rolls
	// the claim back too, so the token stays redeemable for a retry without
	// the link.
	err = f.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&model.UploadClaim{
			ID:         claims.ID,
			TransferID: id,
			RedeemedAt: time.Now(),
		}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTokenAlreadyUsed
			}
			return fmt.Errorf("failed to claim upload token, %w", err)
		}

		if err := tx.Create(t).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && claims.CustomLink != "" {
				return ErrCustomLinkTaken
			}
			return fmt.Errorf("failed to create transfer record, %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	f.Notifier.Notify("transfer.finalized", map[string]any{
		"id":        id,
		"name":      t.OriginalName,
		"size":      t.Size,
		"recipient": claims.RecipientEmail,
	})

	return &FinalizeResult{
		ID:        id,
		ShareLink: f.shareLink(t),
	}, nil
}

func (f *Finalizer) shareLink(t *model.Transfer) string {
	slug := t.ID
	if t.CustomLink != nil {
		slug = *t.CustomLink
	}

	return f.BaseURL + "/d/" + slug
}
