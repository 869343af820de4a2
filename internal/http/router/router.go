// Package router assembles the gin engine from the application modules.
package router

import (
	"net/http"

	apphttp "pipeline_board_backend/internal/http"
	"pipeline_board_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// New builds the HTTP engine: platform middleware, health and metrics
// endpoints, and each module's routes under /api/v1.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	if app.RateLimitPerSec > 0 {
		limiter := httpkit.NewIPRateLimiter(rate.Limit(app.RateLimitPerSec), app.RateLimitBurst, app.Logger)
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/healthz", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	org := v1.Group("")
	org.Use(httpkit.OrganizationRequired())

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Org:    org,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if app.Config.GetCORSAllowAll() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = app.Config.GetCORSOrigins()
		cfg.AllowCredentials = app.Config.GetCORSAllowCreds()
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, httpkit.OrgIDHeader)
	return cors.New(cfg)
}
