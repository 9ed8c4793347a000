package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"
	"driftlink/transfer-api/internal/transfer"
	"driftlink/transfer-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type transferEditOpts struct {
	Name *string `json:"name"`
	// Empty string clears the password
	Password  *string    `json:"password"`
	ExpiresAt *time.Time `json:"expires_at"`
	// 0 means unlimited
	MaxDownloads *int64  `json:"max_downloads"`
	CustomLink   *string `json:"custom_link"`
	Public       *bool   `json:"public"`
}

// TransferEdit applies owner edits. Everything goes through the same plan
// ceilings as issuance: you can't edit your way past your tier.
func (a *API) TransferEdit(c *gin.Context) {
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

	var data transferEditOpts
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
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

	var owner model.User
	if err := a.DB.Where("id = ?", userID).First(&owner).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch owner", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	now := time.Now()
	limits := plan.Effective(&owner, now)
	updates := map[string]any{}

	if data.Name != nil {
		if strings.TrimSpace(*data.Name) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "No new name provided",
				"requestID": requestID,
			})
			return
		}
		updates["original_name"] = *data.Name
	}

	if data.ExpiresAt != nil {
		if data.ExpiresAt.Before(now) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Expiry can't be in the past",
				"requestID": requestID,
			})
			return
		}
		if data.ExpiresAt.After(now.AddDate(0, 0, limits.MaxLifetimeDays)) {
			denied(c, transfer.ErrExpiryTooFar)
			return
		}
		updates["expires_at"] = *data.ExpiresAt
	}

	if data.MaxDownloads != nil {
		if *data.MaxDownloads < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Download limit can't be negative",
				"requestID": requestID,
			})
			return
		}
		updates["max_downloads"] = *data.MaxDownloads
	}

	if data.Public != nil {
		updates["public"] = *data.Public
	}

	if data.Password != nil {
		if *data.Password == "" {
			updates["password_hash"] = nil
		} else {
			if t.PasswordHash == nil {
				usage, err := a.Accountant.UsageFor(c.Request.Context(), userID)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"error":     "Internal server error",
						"requestID": requestID,
					})

					zap.L().Error("Failed to aggregate usage", zap.Error(err), zap.String("requestID", requestID))
					return
				}

				if usage.ProtectedFiles >= limits.MaxProtectedFiles {
					denied(c, transfer.ErrQuotaExceeded)
					return
				}
			}

			hash, err := security.HashPassword(*data.Password)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
				return
			}
			updates["password_hash"] = hash
		}
	}

	if data.CustomLink != nil {
		// Same shape rule as issuance, the column is shared
		if !transfer.ValidLink(*data.CustomLink) {
			denied(c, transfer.ErrInvalidDescriptor)
			return
		}

		// Custom links are immutable once bound, the old link would
		// break for anyone holding it
		if t.CustomLink != nil {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "This transfer already has a custom link",
				"requestID": requestID,
			})
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

		if usage.CustomLinks >= limits.MaxCustomLinks {
			denied(c, transfer.ErrQuotaExceeded)
			return
		}

		updates["custom_link"] = *data.CustomLink
	}

	if len(updates) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	err = a.DB.
		Model(model.Transfer{}).
		Where("id = ?", t.ID).
		Updates(updates).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			denied(c, transfer.ErrCustomLinkTaken)
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update transfer", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.DB.Where("id = ?", t.ID).First(&t).Error; err != nil {
		zap.L().Error("Failed to reload transfer after edit", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, t)
}
