package api

import (
	"errors"
	"net/http"

	"driftlink/transfer-api/internal/transfer"

	"github.com/gin-gonic/gin"
)

// denied maps every expected transfer outcome to its own status and machine
// readable code. Returns false when the error is not a known denial, in which
// case the caller logs it and answers with a generic 500. The mapping is
// exhaustive over the taxonomy and each denial keeps a distinct code so the
// frontend can render a distinct page for it.
func denied(c *gin.Context, err error) bool {
	requestID := c.MustGet("requestID").(string)

	var blocked *transfer.BlockedError
	if errors.As(err, &blocked) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":      "blocked",
			"error":     blocked.Reason,
			"requestID": requestID,
		})
		return true
	}

	var status int
	var code string

	switch {
	case errors.Is(err, transfer.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, transfer.ErrGone):
		status, code = http.StatusGone, "gone"
	case errors.Is(err, transfer.ErrExpired):
		status, code = http.StatusGone, "expired"
	case errors.Is(err, transfer.ErrOwnerOverQuota):
		status, code = http.StatusForbidden, "owner_over_quota"
	case errors.Is(err, transfer.ErrDownloadLimitReached):
		status, code = http.StatusGone, "download_limit_reached"
	case errors.Is(err, transfer.ErrPasswordRequired):
		status, code = http.StatusUnauthorized, "password_required"
	case errors.Is(err, transfer.ErrWrongPassword):
		status, code = http.StatusForbidden, "wrong_password"
	case errors.Is(err, transfer.ErrSizeExceeded):
		status, code = http.StatusRequestEntityTooLarge, "size_exceeded"
	case errors.Is(err, transfer.ErrExpiryTooFar):
		status, code = http.StatusBadRequest, "expiry_too_far"
	case errors.Is(err, transfer.ErrQuotaExceeded):
		status, code = http.StatusForbidden, "quota_exceeded"
	case errors.Is(err, transfer.ErrCustomLinkTaken):
		status, code = http.StatusConflict, "custom_link_taken"
	case errors.Is(err, transfer.ErrInvalidDescriptor):
		status, code = http.StatusBadRequest, "invalid_descriptor"
	case errors.Is(err, transfer.ErrInvalidToken):
		status, code = http.StatusBadRequest, "invalid_token"
	case errors.Is(err, transfer.ErrTokenExpired):
		status, code = http.StatusBadRequest, "token_expired"
	case errors.Is(err, transfer.ErrTokenAlreadyUsed):
		status, code = http.StatusConflict, "token_already_used"
	case errors.Is(err, transfer.ErrUploadIncomplete):
		status, code = http.StatusConflict, "upload_incomplete"
	case errors.Is(err, transfer.ErrReasonRequired):
		status, code = http.StatusBadRequest, "reason_required"
	default:
		return false
	}

	c.AbortWithStatusJSON(status, gin.H{
		"code":      code,
		"error":     err.Error(),
		"requestID": requestID,
	})

	return true
}
