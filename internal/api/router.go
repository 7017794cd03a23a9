package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/newsroom-publishing-api/internal/validation"
	"github.com/rs/zerolog"
)

const callerIDKey = "callerID"

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, authority *auth.Authority, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(identityMiddleware(cfg.Auth.JWTSecret))

	// Handlers
	draftHandler := NewDraftHandler(services, authority, log)
	reviewHandler := NewReviewHandler(services, authority, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// API v1
	v1 := router.Group("/v1")
	{
		// Writer endpoints
		drafts := v1.Group("/drafts")
		{
			drafts.POST("", draftHandler.CreateDraft)
			drafts.GET("", draftHandler.ListDrafts)
			drafts.GET("/:id", draftHandler.GetDraft)
			drafts.PATCH("/:id", draftHandler.AutosaveDraft)
			drafts.POST("/:id/submit", draftHandler.SubmitDraft)
		}

		// Admin review endpoints
		review := v1.Group("/review")
		{
			review.GET("/queue", reviewHandler.GetQueue)
			review.GET("/:id", reviewHandler.GetDetail)
			review.POST("/:id/status", reviewHandler.UpdateStatus)
			review.POST("/:id/retry-publish", reviewHandler.RetryPublish)
		}

		// Admin user management
		v1.POST("/writers/invite", reviewHandler.InviteWriter)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "newsroom-publishing-api",
	})
}

// metricsHandler returns draft counts per pipeline status
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := services.Review.CountByStatus(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect metrics"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"drafts":    counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// identityMiddleware extracts the caller's user id from a bearer token. It
// never rejects: unauthenticated requests continue with an empty identity
// and fail closed inside the services, so every path reports the same
// forbidden outcome.
func identityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if token != "" {
			if userID, err := auth.ParseToken(token, jwtSecret); err == nil {
				c.Set(callerIDKey, userID)
			}
		}
		c.Next()
	}
}

// resolveCaller builds the caller context for this request from the
// authoritative user store
func resolveCaller(c *gin.Context, authority *auth.Authority) (*auth.CallerContext, error) {
	userID := c.GetString(callerIDKey)
	return authority.Resolve(c.Request.Context(), userID)
}

// respondError maps pipeline errors onto HTTP statuses
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var invalidTransition *models.InvalidTransitionError
	var publishConflict *models.PublishConflictError
	var invalidPayload *validation.InvalidPayloadError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &publishConflict):
		c.JSON(http.StatusConflict, gin.H{"error": publishConflict.Error(), "kind": "publish_conflict"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": models.ErrConflict.Error(), "kind": "conflict"})
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalidTransition.Error(), "kind": "invalid_transition"})
	case errors.As(err, &invalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPayload.Error(), "details": invalidPayload.Errors})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
