package api

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/transfer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubStore satisfies the object store without doing anything. Handler tests
// only care about the HTTP surface, storage behavior is covered in the
// transfer package.
type stubStore struct{}

func (stubStore) PresignPut(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://store.test/put/" + key, nil
}

func (stubStore) PresignGet(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://store.test/get/" + key, nil
}

func (stubStore) Stat(context.Context, string) error { return nil }

func (stubStore) Delete(context.Context, string) error { return nil }

func newTestAPI(t *testing.T) *API {
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

	sweeper := &transfer.Sweeper{DB: db, Store: stubStore{}}

	return &API{
		DB:         db,
		Accountant: &transfer.Accountant{DB: db},
		Gate:       &transfer.Gate{DB: db, Store: stubStore{}, Sweeper: sweeper, DownloadTTL: time.Hour},
	}
}

func seedOwner(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@test.local",
		PasswordHash: "x",
		Plan:         "free",
	}
	require.NoError(t, db.Create(u).Error)

	return u
}

func seedOwnedTransfer(t *testing.T, db *gorm.DB, ownerID string, mut func(*model.Transfer)) *model.Transfer {
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
	if ownerID != "" {
		tr.OwnerID = &ownerID
	}
	if mut != nil {
		mut(tr)
	}
	require.NoError(t, db.Create(tr).Error)

	return tr
}

// newHandlerContext builds a gin test context with the request-scoped values
// the middleware stack would normally set.
func newHandlerContext(t *testing.T, userID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("requestID", "test-req")
	if userID != "" {
		c.Set("userID", userID)
	}

	return c, w
}
