package transfer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"
	"driftlink/transfer-api/pkg/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const keyCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var customLinkRe = regexp.MustCompile(`^[a-z0-9-]{3,64}$`)

// ValidLink reports whether s can serve as a custom share link. Every write
// path for the custom_link column goes through this, issuance and edits alike.
func ValidLink(s string) bool {
	return customLinkRe.MatchString(s)
}

// Issuer mints short-lived upload grants: a presigned PUT URL plus a signed
// token carrying everything needed to finalize. Nothing is persisted until
// the token is redeemed.
type Issuer struct {
	DB       *gorm.DB
	Store    ObjectStore
	Secret   []byte
	GrantTTL time.Duration
}

// Descriptor is the client's description of the upload it wants to make
type Descriptor struct {
	Name           string     `json:"name"`
	Size           int64      `json:"size"`
	MimeType       string     `json:"mime_type"`
	ExpiresInHours int        `json:"expires_in_hours"`
	ExpiresAt      *time.Time `json:"expires_at"`
	Password       string     `json:"password"`
	CustomLink     string     `json:"custom_link"`
	MaxDownloads   int64      `json:"max_downloads"`
	RecipientEmail string     `json:"recipient_email"`
}

type Grant struct {
	PutURL    string    `json:"put_url"`
	Token     string    `json:"token"`
	Key       string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// grantClaims is the sealed content of an upload token. The client holds it
// but can't alter size, owner or plan-derived fields without breaking the
// signature.
type grantClaims struct {
	jwt.RegisteredClaims

	OwnerID        string `json:"owner,omitempty"`
	Name           string `json:"name"`
	MimeType       string `json:"mime"`
	Size           int64  `json:"size"`
	StorageKey     string `json:"key"`
	TransferExp    int64  `json:"transfer_exp"`
	PasswordHash   string `json:"pwd,omitempty"`
	CustomLink     string `json:"link,omitempty"`
	MaxDownloads   int64  `json:"max_dl,omitempty"`
	RecipientEmail string `json:"rcpt,omitempty"`
}

// IssueGrant validates the descriptor against the requester's plan and, if
// everything passes, presigns a single PUT and seals the pending transfer
// into a token. The quota check here is optimistic: two concurrent grants can
// both pass it, the overage is caught later by the access gate.
func (i *Issuer) IssueGrant(ctx context.Context, owner *model.User, d *Descriptor) (*Grant, error) {
	now := time.Now()
	limits := plan.Effective(owner, now)

	if d.Size <= 0 || d.Name == "" {
		return nil, fmt.Errorf("%w: missing name or size", ErrInvalidDescriptor)
	}

	if d.Size > limits.MaxBytes {
		return nil, ErrSizeExceeded
	}

	expiresAt, err := resolveExpiry(d, limits, now)
	if err != nil {
		return nil, err
	}

	if d.CustomLink != "" {
		if !ValidLink(d.CustomLink) {
			return nil, fmt.Errorf("%w: links may only contain a-z, 0-9 and dashes", ErrInvalidDescriptor)
		}

		if err := i.linkAvailable(ctx, d.CustomLink); err != nil {
			return nil, err
		}
	}

	if owner != nil {
		if err := i.checkQuota(ctx, owner.ID, limits, d); err != nil {
			return nil, err
		}
	}

	// The plaintext stops here, only the hash travels in the token
	var passwordHash string
	if d.Password != "" {
		passwordHash, err = security.HashPassword(d.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash transfer password, %w", err)
		}
	}

	key, err := gonanoid.Generate(keyCharset, 24)
	if err != nil {
		return nil, fmt.Errorf("failed to generate storage key, %w", err)
	}

	putURL, err := i.Store.PresignPut(ctx, key, d.MimeType, d.Size, i.GrantTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload, %w", err)
	}

	claims := &grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			// The token dies with the presigned URL so a stale
			// completion can't outlive its upload window
			ExpiresAt: jwt.NewNumericDate(now.Add(i.GrantTTL)),
		},
		Name:           d.Name,
		MimeType:       d.MimeType,
		Size:           d.Size,
		StorageKey:     key,
		TransferExp:    expiresAt.Unix(),
		PasswordHash:   passwordHash,
		CustomLink:     d.CustomLink,
		MaxDownloads:   d.MaxDownloads,
		RecipientEmail: d.RecipientEmail,
	}
	if owner != nil {
		claims.OwnerID = owner.ID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload token, %w", err)
	}

	return &Grant{
		PutURL:    putURL,
		Token:     token,
		Key:       key,
		ExpiresAt: now.Add(i.GrantTTL),
	}, nil
}

func resolveExpiry(d *Descriptor, limits plan.Limits, now time.Time) (time.Time, error) {
	max := now.AddDate(0, 0, limits.MaxLifetimeDays)

	if d.ExpiresAt != nil {
		if d.ExpiresAt.Before(now) {
			return time.Time{}, fmt.Errorf("%w: expiry is in the past", ErrInvalidDescriptor)
		}
		if d.ExpiresAt.After(max) {
			return time.Time{}, ErrExpiryTooFar
		}
		return *d.ExpiresAt, nil
	}

	hours := d.ExpiresInHours
	if hours <= 0 {
		hours = 7 * 24
	}

	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	if expiresAt.After(max) {
		return time.Time{}, ErrExpiryTooFar
	}

	return expiresAt, nil
}

func (i *Issuer) linkAvailable(ctx context.Context, link string) error {
	var taken bool

	err := i.DB.
		WithContext(ctx).
		Model(model.Transfer{}).
		Select("count(*) > 0").
		Where("custom_link = ?", link).
		Find(&taken).
		Error
	if err != nil {
		return fmt.Errorf("failed to check custom link availability, %w", err)
	}

	if taken {
		return ErrCustomLinkTaken
	}

	return nil
}

// checkQuota gates new issuance with >= semantics: the action that would
// cause the overage is the one that gets blocked.
func (i *Issuer) checkQuota(ctx context.Context, ownerID string, limits plan.Limits, d *Descriptor) error {
	usage, err := (&Accountant{DB: i.DB}).UsageFor(ctx, ownerID)
	if err != nil {
		return err
	}

	if usage.ActiveFiles >= limits.MaxActiveFiles {
		return fmt.Errorf("%w: active file limit reached", ErrQuotaExceeded)
	}
	if d.Password != "" && usage.ProtectedFiles >= limits.MaxProtectedFiles {
		return fmt.Errorf("%w: protected file limit reached", ErrQuotaExceeded)
	}
	if d.CustomLink != "" && usage.CustomLinks >= limits.MaxCustomLinks {
		return fmt.Errorf("%w: custom link limit reached", ErrQuotaExceeded)
	}
	if usage.TotalBytes+d.Size > limits.MaxTotalBytes {
		return fmt.Errorf("%w: storage limit reached", ErrQuotaExceeded)
	}

	return nil
}
