package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wixxidevelop/blue/internal/app"
	"github.com/wixxidevelop/blue/internal/middleware"
	"github.com/wixxidevelop/blue/internal/session"
)

// NewRouter mounts the health, portal and admin routes
func NewRouter(a *app.App, sessions session.Store, tokens *session.Tokens) *gin.Engine {
	cfg := a.Config
	router := gin.Default()

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS)))

	var broker connectionChecker
	if a.Broker != nil {
		broker = a.Broker
	}
	router.GET("/health", health(broker))

	portal := NewPortalHandler(a.Workflow, sessions)
	user := router.Group("/")
	user.Use(middleware.Session(tokens, cfg.SessionCookie, !cfg.Debug))
	{
		user.GET("", portal.Show)
		user.POST("", portal.Submit)
	}

	adminHandler := NewAdminHandler(a.Admin)
	router.GET("/admin", adminHandler.Dashboard)
	router.POST("/admin", adminHandler.Submit)
	router.GET("/admin/events", a.Feed.ServeWS)

	return router
}

type connectionChecker interface {
	IsConnected() bool
}

// health reports ok, adding the broker state when one is configured. A lost
// broker degrades the portal without taking it down.
func health(broker connectionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if broker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		if broker.IsConnected() {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "nats": "connected"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "nats": "disconnected"})
	}
}
