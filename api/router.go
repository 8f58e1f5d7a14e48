// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"github.com/99-kofi/Obala-Twi-API/db"
	"github.com/99-kofi/Obala-Twi-API/middleware"
	"github.com/99-kofi/Obala-Twi-API/quota"
	"github.com/99-kofi/Obala-Twi-API/security"
	"github.com/99-kofi/Obala-Twi-API/upstream"

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
	DB        *gorm.DB
	Router    *gin.Engine
	Argon     *security.ArgonHash
	Quota     *quota.Enforcer
	Generator upstream.Generator
	Speech    upstream.Speech
}

func NewRouter() (*API, error) {
	a := &API{}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user store, %w", err)
	}
	a.DB = db

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-API-Key"},
			ExposeHeaders:   []string{"Content-Length"},
			MaxAge:          12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
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

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	a.Argon = security.New()
	a.Quota = quota.NewEnforcer(db)
	a.Generator = upstream.NewGenerator()
	a.Speech = upstream.NewGradioTTS()

	apikey := middleware.NewAPIKeyMiddleware(db)
	authLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetInt("auth.rate_limit.rps"),
		Burst:             viper.GetInt("auth.rate_limit.burst"),
	})

	// GET / 			-> Welcome message
	router.GET("/", cacheFor(60), a.Index)

	// HEAD /heartbeat 		-> Used to check if the server is alive
	router.HEAD("/heartbeat", a.Heartbeat)

	accounts := router.Group("/", authLimiter, middleware.BodySizeLimiter(1<<20))
	{
		// POST /signup 	-> Registers a developer and issues their API key
		accounts.POST("/signup", a.Signup)

		// POST /login 		-> Returns the API key of a registered developer
		accounts.POST("/login", a.Login)
	}

	// POST /obala_chat 		-> Generates a Twi reply plus audio, charges one usage unit
	router.POST("/obala_chat", middleware.BodySizeLimiter(1<<20), apikey, a.ObalaChat)

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
