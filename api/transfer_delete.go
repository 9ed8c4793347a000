package api

import (
	"errors"
	"net/http"

	"driftlink/transfer-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransferDelete removes a transfer the caller owns. An explicit delete skips
// the archival snapshot entirely, so the link answers 404 afterwards rather
// than 410.
func (a *API) TransferDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	transferID := c.Param("id")
	if transferID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	var t model.Transfer
	err := a.DB.
		Where("owner_id = ? AND id = ?", userID, transferID).
		First(&t).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Transfer not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch transfer", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.S3.Delete(c.Request.Context(), t.StorageKey); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete storage object", zap.String("key", t.StorageKey), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.DB.Delete(&t).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete transfer record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	a.Notifier.Notify("transfer.deleted", map[string]any{
		"id":    t.ID,
		"owner": userID,
	})

	c.Status(http.StatusNoContent)
}
