package main

import (
	"github.com/gin-gonic/gin"

	"github.com/mzurek/cardsmith/internal/config"
	"github.com/mzurek/cardsmith/internal/middleware"
)

func setupRouter(api *API, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(api.logger))
	router.Use(metricsMiddleware())

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// Health check
	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter))
	{
		// Auth
		auth := v1.Group("/auth")
		{
			auth.POST("/register", api.register)
			auth.POST("/login", api.login)
			auth.POST("/logout", middleware.JWTAuth(api.jwtSecret), api.logout)
		}

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(api.jwtSecret))
		{
			// Generation
			authed.POST("/flashcards/generate", api.generateFlashcards)

			// Pending flashcards
			pending := authed.Group("/pending-flashcards")
			{
				pending.GET("", api.listPendingFlashcards)
				pending.GET("/count", api.countPendingFlashcards)
				pending.PATCH("/:id", api.updatePendingFlashcard)
				pending.DELETE("/:id", api.deletePendingFlashcard)
				pending.POST("/:id/accept", api.acceptPendingFlashcard)
				pending.POST("/bulk-accept", api.bulkAcceptPendingFlashcards)
				pending.POST("/bulk-delete", api.bulkDeletePendingFlashcards)
			}

			// Sets
			sets := authed.Group("/sets")
			{
				sets.GET("", api.listSets)
				sets.POST("", api.createSet)
				sets.GET("/:id", api.getSet)
				sets.PATCH("/:id", api.updateSet)
				sets.DELETE("/:id", api.deleteSet)
				sets.GET("/:id/flashcards", api.listSetFlashcards)
			}

			// Quota
			authed.GET("/users/me/generation-quota", api.getGenerationQuota)
		}
	}

	return router
}
