// Package router assembles the Gin engine from the application modules.
package router

import (
	nethttp "net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "propertyops_backend/internal/http"
	"propertyops_backend/platform/httpkit"
)

// New builds the HTTP router: global middleware, health and metrics
// endpoints, the /api/v1 groups, and every module's routes.
func New(app *apphttp.App, metricsHandler nethttp.Handler) *gin.Engine {
	cfg := app.Config

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app)))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(10), 30, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(nethttp.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	authMiddleware := httpkit.AuthRequired(cfg)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)

	ctx := &apphttp.RouterContext{
		Engine:         engine,
		V1:             v1,
		Protected:      protected,
		Config:         cfg,
		AuthMiddleware: authMiddleware,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered http module", "module", module.Name())
	}

	return engine
}

func corsConfig(app *apphttp.App) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	if app.Config.CORSAllowAll {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	corsCfg.AllowOrigins = app.Config.CORSOrigins
	corsCfg.AllowCredentials = app.Config.CORSAllowCreds
	return corsCfg
}
