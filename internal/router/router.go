package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Handlers groups the API handlers mounted under /api
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Catalog *api.CatalogHandler
	Recipes *api.RecipeHandler
	Health  *api.HealthHandler
}

// SetupRouter configures the application routes
func SetupRouter(cfg *config.Config, logger zerolog.Logger, validator middleware.TokenValidator, handlers Handlers) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Authenticate(validator),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", middleware.MetricsHandler())

	if cfg.StorageBackend == "local" {
		router.StaticFS(strings.TrimSuffix(cfg.MediaURL, "/"), http.Dir(cfg.MediaRoot))
	}

	apiGroup := router.Group("/api")
	handlers.Auth.RegisterRoutes(apiGroup)
	handlers.Users.RegisterRoutes(apiGroup)
	handlers.Catalog.RegisterRoutes(apiGroup)
	handlers.Recipes.RegisterRoutes(apiGroup)

	return router
}
