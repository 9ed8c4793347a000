package transfer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"driftlink/transfer-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Every test gets its own named in-memory database so gorm's connection pool
// sees the same data on every connection.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Transfer{},
		&model.ExpiredTransfer{},
		&model.UploadClaim{},
	))

	return db
}

// fakeStore stands in for S3. Presigned URLs are deterministic, deletes are
// recorded, and Stat/Delete failures can be injected.
type fakeStore struct {
	statErr   error
	deleteErr error
	deleted   []string
}

func (f *fakeStore) PresignPut(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://store.test/put/" + key, nil
}

func (f *fakeStore) PresignGet(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://store.test/get/" + key, nil
}

func (f *fakeStore) Stat(_ context.Context, _ string) error {
	return f.statErr
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func seedUser(t *testing.T, db *gorm.DB, planName string) *model.User {
	t.Helper()

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@test.local",
		PasswordHash: "x",
		Plan:         planName,
	}
	require.NoError(t, db.Create(u).Error)

	return u
}

func seedTransfer(t *testing.T, db *gorm.DB, mut func(*model.Transfer)) *model.Transfer {
	t.Helper()

	tr := &model.Transfer{
		ID:           uuid.NewString()[:12],
		StorageKey:   "obj-" + uuid.NewString(),
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		Size:         1 << 20,
		Public:       true,
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}
	if mut != nil {
		mut(tr)
	}
	require.NoError(t, db.Create(tr).Error)

	return tr
}

func ptr[T any](v T) *T {
	return &v
}
