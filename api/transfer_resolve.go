package api

import (
	"net/http"
	"time"

	"driftlink/transfer-api/internal/transfer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TransferResolve is the share-page view path. It runs the full gate but
// never mints a download URL; the page calls the download endpoint for that.
// A protected transfer without a password answers 401 password_required so
// the frontend can show the prompt. The password travels in a header, a query
// parameter would end up in access logs and browser history.
func (a *API) TransferResolve(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	idOrLink := c.Param("id")
	if idOrLink == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	t, err := a.Gate.Resolve(c.Request.Context(), idOrLink, c.GetHeader("TransferPassword"))
	if err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve transfer", zap.String("id", idOrLink), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         t.ID,
		"name":       t.OriginalName,
		"mime_type":  t.MimeType,
		"size":       t.Size,
		"protected":  t.PasswordHash != nil,
		"expires_at": t.ExpiresAt,
		"state":      transfer.Classify(t, time.Now()).String(),
	})
}
