package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/bewie03/epok/docs"
	"github.com/bewie03/epok/internal/common/config"
	"github.com/bewie03/epok/internal/common/middleware"
	rafflehttp "github.com/bewie03/epok/internal/features/raffle/delivery/http"
)

const serviceName = "epok-raffle"

// HealthChecker is satisfied by the postgres and redis platform clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Dependencies struct {
	Raffle   *rafflehttp.RaffleHandler
	Gatherer prometheus.Gatherer
	// Checks are probed by /ready, keyed by component name.
	Checks   map[string]HealthChecker
}

// NewRouter builds the gin engine with middlewares and routes wired.
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Errors())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.Origins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.RequestIDHeader, middleware.AdminKeyHeader, cfg.Webhook.Header,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Epok Raffle API"})
	})
	setupProbes(router, deps.Checks)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	webhook := router.Group("/webhook", middleware.RequireSharedSecret(cfg.Webhook.Header, cfg.Webhook.Secret))
	deps.Raffle.RegisterWebhookRoutes(webhook)

	api := router.Group("/api")
	deps.Raffle.RegisterRoutes(api)

	admin := api.Group("/admin", middleware.RequireAdmin(cfg.Admin.APIKey))
	deps.Raffle.RegisterAdminRoutes(admin)

	return router
}

func setupProbes(router *gin.Engine, checks map[string]HealthChecker) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
