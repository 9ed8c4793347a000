package transfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"
	"driftlink/transfer-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGate(t *testing.T) (*Gate, *fakeStore) {
	t.Helper()

	db := newTestDB(t)
	store := &fakeStore{}

	return &Gate{
		DB:          db,
		Store:       store,
		Sweeper:     &Sweeper{DB: db, Store: store},
		DownloadTTL: time.Hour,
	}, store
}

func TestGateLookup(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := g.Resolve(ctx, "never-existed", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("by id", func(t *testing.T) {
		tr := seedTransfer(t, g.DB, nil)
		got, err := g.Resolve(ctx, tr.ID, "")
		require.NoError(t, err)
		assert.Equal(t, tr.ID, got.ID)
	})

	t.Run("by custom link", func(t *testing.T) {
		tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
			tr.CustomLink = ptr("pretty-name")
		})
		got, err := g.Resolve(ctx, "pretty-name", "")
		require.NoError(t, err)
		assert.Equal(t, tr.ID, got.ID)
	})

	t.Run("archived link answers gone, not found", func(t *testing.T) {
		require.NoError(t, g.DB.Create(&model.ExpiredTransfer{
			ID:           "oldid1234567",
			CustomLink:   ptr("old-link"),
			OriginalName: "gone.txt",
			ExpiredAt:    time.Now(),
		}).Error)

		_, err := g.Resolve(ctx, "oldid1234567", "")
		assert.ErrorIs(t, err, ErrGone)

		_, err = g.Resolve(ctx, "old-link", "")
		assert.ErrorIs(t, err, ErrGone)

		// Archival records keep counting visits
		var archived model.ExpiredTransfer
		require.NoError(t, g.DB.Where("id = ?", "oldid1234567").First(&archived).Error)
		assert.EqualValues(t, 2, archived.Views)
	})
}

func TestGateExpiredPurgesLazily(t *testing.T) {
	g, store := newGate(t)
	ctx := context.Background()

	tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
		tr.ExpiresAt = time.Now().Add(-time.Hour)
	})

	_, err := g.Resolve(ctx, tr.ID, "")
	assert.ErrorIs(t, err, ErrExpired)

	// The visit that discovered the expiry retired the transfer
	err = g.DB.Where("id = ?", tr.ID).First(&model.Transfer{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var archived model.ExpiredTransfer
	require.NoError(t, g.DB.Where("id = ?", tr.ID).First(&archived).Error)
	assert.Equal(t, tr.OriginalName, archived.OriginalName)

	assert.Contains(t, store.deleted, tr.StorageKey)

	// The next visit finds only the archival record
	_, err = g.Resolve(ctx, tr.ID, "")
	assert.ErrorIs(t, err, ErrGone)
}

func TestGateBlocked(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	t.Run("reason shown verbatim", func(t *testing.T) {
		tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
			tr.Blocked = true
			tr.BlockReason = ptr("Copyright takedown #4821")
		})

		_, err := g.Resolve(ctx, tr.ID, "")
		assert.ErrorIs(t, err, ErrBlocked)

		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, "Copyright takedown #4821", blocked.Reason)
	})

	t.Run("missing reason falls back to a generic one", func(t *testing.T) {
		tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
			tr.Blocked = true
		})

		_, err := g.Resolve(ctx, tr.ID, "")

		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.NotEmpty(t, blocked.Reason)
	})

	t.Run("expiry wins over a block", func(t *testing.T) {
		tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
			tr.Blocked = true
			tr.BlockReason = ptr("whatever")
			tr.ExpiresAt = time.Now().Add(-time.Minute)
		})

		_, err := g.Resolve(ctx, tr.ID, "")
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("suspended owner blocks all their transfers", func(t *testing.T) {
		owner := seedUser(t, g.DB, plan.Free)
		require.NoError(t, g.DB.Model(owner).Update("blocked", true).Error)

		tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
			tr.OwnerID = &owner.ID
		})

		_, err := g.Resolve(ctx, tr.ID, "")
		assert.ErrorIs(t, err, ErrBlocked)
	})
}

func TestGateOwnerOverQuota(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()
	free := plan.LimitsFor(plan.Free)

	t.Run("over the ceiling suspends access", func(t *testing.T) {
		// A downgraded owner holding more active files than free allows
		owner := seedUser(t, g.DB, plan.Free)

		var first *model.Transfer
		for i := int64(0); i <= free.MaxActiveFiles; i++ {
			tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
				tr.OwnerID = &owner.ID
				tr.Size = 1
			})
			if first == nil {
				first = tr
			}
		}

		_, err := g.Resolve(ctx, first.ID, "")
		assert.ErrorIs(t, err, ErrOwnerOverQuota)
	})

	t.Run("sitting exactly at the ceiling is fine", func(t *testing.T) {
		owner := seedUser(t, g.DB, plan.Free)

		var first *model.Transfer
		for i := int64(0); i < free.MaxActiveFiles; i++ {
			tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
				tr.OwnerID = &owner.ID
				tr.Size = 1
			})
			if first == nil {
				first = tr
			}
		}

		_, err := g.Resolve(ctx, first.ID, "")
		assert.NoError(t, err)
	})
}

func TestGateDownloadCeiling(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
		tr.MaxDownloads = 2
	})

	// The Nth download succeeds, the N+1th is refused
	for range 2 {
		_, err := g.Download(ctx, tr.ID, "")
		require.NoError(t, err)
	}

	_, err := g.Download(ctx, tr.ID, "")
	assert.ErrorIs(t, err, ErrDownloadLimitReached)

	// Resolving still fails the same way, the page shows the exhausted state
	_, err = g.Resolve(ctx, tr.ID, "")
	assert.ErrorIs(t, err, ErrDownloadLimitReached)
}

func TestGatePassword(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	hash, err := security.HashPassword("open sesame")
	require.NoError(t, err)

	tr := seedTransfer(t, g.DB, func(tr *model.Transfer) {
		tr.PasswordHash = &hash
	})

	t.Run("no password", func(t *testing.T) {
		_, err := g.Resolve(ctx, tr.ID, "")
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := g.Resolve(ctx, tr.ID, "open says me")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("correct password", func(t *testing.T) {
		got, err := g.Resolve(ctx, tr.ID, "open sesame")
		require.NoError(t, err)
		assert.Equal(t, tr.ID, got.ID)
	})

	t.Run("a failed password attempt never counts a download", func(t *testing.T) {
		_, err := g.Download(ctx, tr.ID, "nope")
		assert.ErrorIs(t, err, ErrWrongPassword)

		var cur model.Transfer
		require.NoError(t, g.DB.Where("id = ?", tr.ID).First(&cur).Error)
		assert.EqualValues(t, 0, cur.Downloads)
	})
}

func TestGateCounters(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	tr := seedTransfer(t, g.DB, nil)

	_, err := g.Resolve(ctx, tr.ID, "")
	require.NoError(t, err)
	_, err = g.Resolve(ctx, tr.ID, "")
	require.NoError(t, err)

	_, err = g.Download(ctx, tr.ID, "")
	require.NoError(t, err)

	var cur model.Transfer
	require.NoError(t, g.DB.Where("id = ?", tr.ID).First(&cur).Error)

	// A download passes through the view path too
	assert.EqualValues(t, 3, cur.Views)
	assert.EqualValues(t, 1, cur.Downloads)
}

func TestGateDownloadGrant(t *testing.T) {
	g, _ := newGate(t)
	ctx := context.Background()

	tr := seedTransfer(t, g.DB, nil)

	grant, err := g.Download(ctx, tr.ID, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(grant.URL, "https://store.test/get/"))
	assert.Contains(t, grant.URL, tr.StorageKey)
	assert.WithinDuration(t, time.Now().Add(time.Hour), grant.ExpiresAt, time.Minute)
}
