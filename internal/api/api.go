package api

import (
	"net/http"

	authHandler "referral-server/internal/auth/handler"
	fraudHandler "referral-server/internal/fraud/handler"
	"referral-server/internal/observability"
	"referral-server/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the service's backing store is reachable
type HealthChecker func(c *gin.Context) error

type API struct {
	router       *gin.RouterGroup
	authHandler  authHandler.Handler
	fraudHandler fraudHandler.Handler
	rateLimiter  *ratelimit.Service
	healthCheck  HealthChecker
}

func New(router *gin.RouterGroup, authHandler authHandler.Handler, fraudHandler fraudHandler.Handler, rateLimiter *ratelimit.Service, healthCheck HealthChecker) API {
	return API{
		router:       router,
		authHandler:  authHandler,
		fraudHandler: fraudHandler,
		rateLimiter:  rateLimiter,
		healthCheck:  healthCheck,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	a.router.GET("/metrics", observability.MetricsHandler())

	apiGroup := a.router.Group("/api")
	protectedGroup := apiGroup.Group("/protected", a.authHandler.HandleJWTMiddleware)
	{
		referralGroup := protectedGroup.Group("/referrals/:referral_id", a.rateLimiter.Middleware())
		referralGroup.POST("/resolve", a.fraudHandler.HandleResolveFlags)
		referralGroup.POST("/flag", a.fraudHandler.HandleFlagReferral)
		referralGroup.POST("/settle", a.fraudHandler.HandleRequestSettlement)

		protectedGroup.GET("/fraud-flags", a.fraudHandler.HandleListFlags)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		if a.healthCheck != nil {
			if err := a.healthCheck(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"message": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
