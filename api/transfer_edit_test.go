package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doEdit(t *testing.T, a *API, userID, transferID, body string) *httptest.ResponseRecorder {
	t.Helper()

	c, w := newHandlerContext(t, userID)
	c.Params = gin.Params{{Key: "id", Value: transferID}}
	c.Request = httptest.NewRequest(http.MethodPatch, "/api/transfers/"+transferID, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	a.TransferEdit(c)

	return w
}

func TestTransferEditCustomLink(t *testing.T) {
	a := newTestAPI(t)
	owner := seedOwner(t, a.DB)

	t.Run("link outside the slug charset is rejected", func(t *testing.T) {
		tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

		for _, link := range []string{"NOT a slug !!", "UPPER", "has/slash", "ab", ""} {
			w := doEdit(t, a, owner.ID, tr.ID, `{"custom_link":`+"\""+link+"\""+`}`)

			assert.Equal(t, http.StatusBadRequest, w.Code, "link %q", link)
			assert.Contains(t, w.Body.String(), "invalid_descriptor", "link %q", link)
		}

		// Nothing was written
		var cur model.Transfer
		require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
		assert.Nil(t, cur.CustomLink)
	})

	t.Run("valid link binds", func(t *testing.T) {
		tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

		w := doEdit(t, a, owner.ID, tr.ID, `{"custom_link":"quarterly-report"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var cur model.Transfer
		require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
		require.NotNil(t, cur.CustomLink)
		assert.Equal(t, "quarterly-report", *cur.CustomLink)
	})

	t.Run("link is immutable once set", func(t *testing.T) {
		tr := seedOwnedTransfer(t, a.DB, owner.ID, func(tr *model.Transfer) {
			link := "already-bound"
			tr.CustomLink = &link
		})

		w := doEdit(t, a, owner.ID, tr.ID, `{"custom_link":"something-else"}`)
		assert.Equal(t, http.StatusConflict, w.Code)

		var cur model.Transfer
		require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
		assert.Equal(t, "already-bound", *cur.CustomLink)
	})

	t.Run("taken link answers conflict", func(t *testing.T) {
		seedOwnedTransfer(t, a.DB, owner.ID, func(tr *model.Transfer) {
			link := "landed-first"
			tr.CustomLink = &link
		})
		tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

		w := doEdit(t, a, owner.ID, tr.ID, `{"custom_link":"landed-first"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "custom_link_taken")
	})
}

func TestTransferEditPassword(t *testing.T) {
	a := newTestAPI(t)
	owner := seedOwner(t, a.DB)

	t.Run("empty password clears the hash", func(t *testing.T) {
		hash, err := security.HashPassword("old secret")
		require.NoError(t, err)

		tr := seedOwnedTransfer(t, a.DB, owner.ID, func(tr *model.Transfer) {
			tr.PasswordHash = &hash
		})

		w := doEdit(t, a, owner.ID, tr.ID, `{"password":""}`)
		require.Equal(t, http.StatusOK, w.Code)

		var cur model.Transfer
		require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
		assert.Nil(t, cur.PasswordHash)
	})

	t.Run("new password is stored hashed", func(t *testing.T) {
		tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

		w := doEdit(t, a, owner.ID, tr.ID, `{"password":"hunter2"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var cur model.Transfer
		require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
		require.NotNil(t, cur.PasswordHash)
		assert.NotContains(t, *cur.PasswordHash, "hunter2")

		ok, err := security.VerifyPassword("hunter2", *cur.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestTransferEditExpiry(t *testing.T) {
	a := newTestAPI(t)
	owner := seedOwner(t, a.DB)
	tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

	t.Run("past the free plan lifetime", func(t *testing.T) {
		far := time.Now().AddDate(0, 0, 8).Format(time.RFC3339)

		w := doEdit(t, a, owner.ID, tr.ID, `{"expires_at":"`+far+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "expiry_too_far")
	})

	t.Run("within the ceiling", func(t *testing.T) {
		soon := time.Now().AddDate(0, 0, 5).Format(time.RFC3339)

		w := doEdit(t, a, owner.ID, tr.ID, `{"expires_at":"`+soon+`"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("in the past", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).Format(time.RFC3339)

		w := doEdit(t, a, owner.ID, tr.ID, `{"expires_at":"`+past+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransferEditOwnership(t *testing.T) {
	a := newTestAPI(t)
	owner := seedOwner(t, a.DB)
	stranger := seedOwner(t, a.DB)
	tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

	w := doEdit(t, a, stranger.ID, tr.ID, `{"name":"mine now"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var cur model.Transfer
	require.NoError(t, a.DB.Where("id = ?", tr.ID).First(&cur).Error)
	assert.Equal(t, "report.pdf", cur.OriginalName)
}

func TestTransferEditNothingToUpdate(t *testing.T) {
	a := newTestAPI(t)
	owner := seedOwner(t, a.DB)
	tr := seedOwnedTransfer(t, a.DB, owner.ID, nil)

	w := doEdit(t, a, owner.ID, tr.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
