package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pathwise/pathwise-backend/internal/handlers"
)

type RouterConfig struct {
	RecommendationHandler *handlers.RecommendationHandler
	AllowOrigins          []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/trending", cfg.RecommendationHandler.GetTrending)
		api.GET("/users/:id/recommendations", cfg.RecommendationHandler.GetPersonalized)
		api.POST("/users/:id/interactions/:contentId", cfg.RecommendationHandler.RecordInteraction)
		api.POST("/users/:id/embedding/regenerate", cfg.RecommendationHandler.RegenerateEmbedding)
	}

	return router
}
