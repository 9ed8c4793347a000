package middleware

import (
	"fmt"
	"net/http"

	"driftlink/transfer-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func parseAuthCookie(c *gin.Context) (string, error) {
	tokenStr, err := c.Cookie("auth_token")
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token, %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims shape")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("missing user_id claim")
	}

	return userID, nil
}

// NewJWTMiddleware rejects requests without a valid auth cookie and resolves
// the user behind it. Deleted accounts are rejected even with a live token.
func NewJWTMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		userID, err := parseAuthCookie(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		var user model.User
		err = d.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error":     "user_not_found",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "internal_server_error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// NewOptionalJWTMiddleware sets userID when a valid cookie is present but
// lets anonymous requests through. Used on endpoints that serve guests too.
func NewOptionalJWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := parseAuthCookie(c); err == nil {
			c.Set("userID", userID)
		}

		c.Next()
	}
}

// NewAdminMiddleware goes on top of the JWT middleware and rejects anyone
// without the admin flag
func NewAdminMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)
		userID := c.MustGet("userID").(string)

		var admin bool

		err := d.
			Model(model.User{}).
			Select("admin").
			Where("id = ?", userID).
			Find(&admin).
			Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "internal_server_error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check admin flag", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "admin_only",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
