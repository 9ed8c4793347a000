package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminDelete purges a transfer outright, including any archival record. The
// link stops existing entirely rather than answering 410.
func (a *API) AdminDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	transferID := c.Param("id")
	if transferID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	if err := a.Admin.ForceDelete(c.Request.Context(), transferID); err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete transfer", zap.String("id", transferID), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}
