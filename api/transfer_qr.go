package api

import (
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"strconv"
	"strings"
	"time"

	"driftlink/transfer-api/internal/model"
	"driftlink/transfer-api/internal/plan"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransferQR renders a QR code PNG for a share link. Custom foreground and
// background colors are a paid-plan capability; everyone else gets plain
// black on white.
func (a *API) TransferQR(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	idOrLink := c.Param("id")
	if idOrLink == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No transfer ID provided",
			"requestID": requestID,
		})
		return
	}

	var t model.Transfer
	err := a.DB.
		Where("id = ? OR custom_link = ?", idOrLink, idOrLink).
		First(&t).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Transfer not found",
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

	slug := t.ID
	if t.CustomLink != nil {
		slug = *t.CustomLink
	}

	q, err := qrcode.New(viper.GetString("host.base_url")+"/d/"+slug, qrcode.Medium)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to build QR code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if c.Query("fg") != "" || c.Query("bg") != "" {
		userID := c.GetString("userID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Custom QR styling requires a paid plan",
				"requestID": requestID,
			})
			return
		}

		var u model.User
		if err := a.DB.Where("id = ?", userID).First(&u).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !plan.Effective(&u, time.Now()).CustomQR {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Custom QR styling requires a paid plan",
				"requestID": requestID,
			})
			return
		}

		if v := c.Query("fg"); v != "" {
			col, err := parseHexColor(v)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     "Invalid fg color, expected hex like 1a2b3c",
					"requestID": requestID,
				})
				return
			}
			q.ForegroundColor = col
		}

		if v := c.Query("bg"); v != "" {
			col, err := parseHexColor(v)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     "Invalid bg color, expected hex like ffffff",
					"requestID": requestID,
				})
				return
			}
			q.BackgroundColor = col
		}
	}

	size := 256
	if v := c.Query("size"); v != "" {
		size, err = strconv.Atoi(v)
		if err != nil || size < 64 || size > 1024 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Size must be between 64 and 1024",
				"requestID": requestID,
			})
			return
		}
	}

	png, err := q.PNG(size)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to render QR code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func parseHexColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q", s)
	}

	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
