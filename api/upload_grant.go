package api

import (
	"errors"
	"net/http"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/transfer"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadGrant validates the described upload against the requester's plan and
// answers with a presigned PUT URL plus the sealed token that finalizes it.
// Anonymous requesters get the free tier.
func (a *API) UploadGrant(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var d transfer.Descriptor
	if err := c.ShouldBind(&d); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	var owner *model.User

	if userID, ok := c.Get("userID"); ok {
		var user model.User

		err := a.DB.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to fetch requester", zap.Error(err), zap.String("requestID", requestID))
				return
			}
		} else {
			owner = &user
		}
	}

	grant, err := a.Issuer.IssueGrant(c.Request.Context(), owner, &d)
	if err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue upload grant", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, grant)
}
