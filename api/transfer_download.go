package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type downloadBody struct {
	Password string `json:"password"`
}

// TransferDownload is the counter-incrementing call. It runs the same gate as
// the view path and on success mints the time-boxed presigned GET URL.
func (a *API) TransferDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	idOrLink := c.Param("id")
	if idOrLink == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	// An empty body is fine for unprotected transfers
	var data downloadBody
	_ = c.ShouldBind(&data)

	grant, err := a.Gate.Download(c.Request.Context(), idOrLink, data.Password)
	if err != nil {
		if denied(c, err) {
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mint download grant", zap.String("id", idOrLink), zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, grant)
}
