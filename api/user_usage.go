package api

import (
	"errors"
	"net/http"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserUsage returns the caller's aggregated usage next to their effective
// plan limits so the frontend can draw meters without its own math
func (a *API) UserUsage(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var user model.User
	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	usage, err := a.Accountant.UsageFor(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to aggregate usage", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	limits := plan.Effective(&user, time.Now())

	c.JSON(http.StatusOK, gin.H{
		"plan":  user.Plan,
		"usage": usage,
		"limits": gin.H{
			"max_bytes":           limits.MaxBytes,
			"max_active_files":    limits.MaxActiveFiles,
			"max_protected_files": limits.MaxProtectedFiles,
			"max_custom_links":    limits.MaxCustomLinks,
			"max_total_bytes":     limits.MaxTotalBytes,
			"max_lifetime_days":   limits.MaxLifetimeDays,
			"custom_qr":           limits.CustomQR,
		},
	})
}
