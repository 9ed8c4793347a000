package api

import (
	"net/http"

	"driftlink/transfer-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) TransferList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var transfers []model.Transfer

	err := a.DB.
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&transfers).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch transfers", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transfers": transfers,
	})
}
