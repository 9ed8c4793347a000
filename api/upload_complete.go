package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type completeBody struct {
	Token string `json:"token"`
}

// UploadComplete redeems an upload token after the client's PUT finished.
// Redemption is at-most-once; a reused token answers 409.
func (a *API) UploadComplete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data completeBody
	if err := c.ShouldBind(&data); err != nil || data.Token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No upload token provided",
			"requestID": requestID,
		})
		return
	}

	res, err := a.Finalizer.Finalize(c.Request.Context(), data.Token)
	if err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to finalize upload", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, res)
}
