package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type blockBody struct {
	Reason string `json:"reason"`
}

// AdminBlock flags a transfer as moderated. The reason is required and is
// shown verbatim to anyone visiting the link afterwards.
func (a *API) AdminBlock(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	transferID := c.Param("id")
	if transferID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	var data blockBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	if err := a.Admin.Block(c.Request.Context(), transferID, data.Reason); err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to block transfer", zap.String("id", transferID), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) AdminUnblock(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	transferID := c.Param("id")
	if transferID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	if err := a.Admin.Unblock(c.Request.Context(), transferID); err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to unblock transfer", zap.String("id", transferID), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}
