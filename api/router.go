// Package api contains all endpoints available
package api

import (
	"driftlink/transfer-api/aws"
	"driftlink/transfer-api/db"
	"driftlink/transfer-api/internal/notify"
	"driftlink/transfer-api/internal/transfer"
	"driftlink/transfer-api/middleware"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB     *gorm.DB
	Router *gin.Engine
	S3     *aws.S3Client

	Issuer     *transfer.Issuer
	Finalizer  *transfer.Finalizer
	Gate       *transfer.Gate
	Accountant *transfer.Accountant
	Sweeper    *transfer.Sweeper
	Admin      *transfer.Admin
	Notifier   *notify.Dispatcher
}

func NewRouter() (*API, error) {
	a := &API{}

	d, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = d

	makeLogger()

	s3, err := aws.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}
	a.S3 = s3

	a.Notifier = notify.NewDispatcher(viper.GetString("webhook.url"))

	secret := []byte(viper.GetString("jwt.secret"))
	uploadTTL := time.Duration(viper.GetInt("grants.upload_ttl_minutes")) * time.Minute
	downloadTTL := time.Duration(viper.GetInt("grants.download_ttl_minutes")) * time.Minute

	a.Issuer = &transfer.Issuer{DB: d, Store: s3, Secret: secret, GrantTTL: uploadTTL}
	a.Finalizer = &transfer.Finalizer{DB: d, Store: s3, Secret: secret, BaseURL: viper.GetString("host.base_url"), Notifier: a.Notifier}
	a.Sweeper = &transfer.Sweeper{DB: d, Store: s3, Notifier: a.Notifier}
	a.Gate = &transfer.Gate{DB: d, Store: s3, Sweeper: a.Sweeper, DownloadTTL: downloadTTL}
	a.Accountant = &transfer.Accountant{DB: d}
	a.Admin = &transfer.Admin{DB: d, Store: s3, Notifier: a.Notifier}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken", "TransferPassword"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		middleware.RateLimiter(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(d)
	jwtOptional := middleware.NewOptionalJWTMiddleware()
	admin := middleware.NewAdminMiddleware(d)
	turnstile := middleware.NewTurnstileMiddleware()

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a JWT token
		main.HEAD("/validate", jwt, a.Validate)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users		-> Registers a new user
		users.POST("", a.UserRegister)

		// POST /api/users/login	-> Logs in a user and returns a JWT cookie
		users.POST("/login", a.UserLogin)

		// GET /api/users/usage		-> Returns the caller's quota usage
		users.GET("/usage", jwt, cacheFor(30), a.UserUsage)
	}

	uploads := main.Group("/uploads", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/uploads		-> Issues a direct-to-storage upload grant
		uploads.POST("", jwtOptional, turnstile, a.UploadGrant)

		// POST /api/uploads/complete	-> Redeems a grant into a transfer
		uploads.POST("/complete", a.UploadComplete)
	}

	// GET /api/d/:id			-> Resolves a share link for viewing
	main.GET("/d/:id", a.TransferResolve)

	// GET /api/d/:id/qr			-> QR code PNG for a share link
	main.GET("/d/:id/qr", jwtOptional, a.TransferQR)

	transfers := main.Group("/transfers", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/transfers/:id/download	-> Counts a download and mints the GET URL
		transfers.POST("/:id/download", a.TransferDownload)

		// GET /api/transfers		-> Lists the caller's transfers
		transfers.GET("", jwt, a.TransferList)

		// PATCH /api/transfers/:id	-> Edits a transfer owned by the caller
		transfers.PATCH("/:id", jwt, a.TransferEdit)

		// DELETE /api/transfers/:id	-> Deletes a transfer owned by the caller
		transfers.DELETE("/:id", jwt, a.TransferDelete)
	}

	adm := main.Group("/admin", jwt, admin, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/admin/transfers/:id/block	-> Blocks a transfer with a reason
		adm.POST("/transfers/:id/block", a.AdminBlock)

		// POST /api/admin/transfers/:id/unblock
		adm.POST("/transfers/:id/unblock", a.AdminUnblock)

		// DELETE /api/admin/transfers/:id	-> Purges outright, no archival record
		adm.DELETE("/transfers/:id", a.AdminDelete)
	}

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
