package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New wires services and handlers over db. redisClient may be nil, in which
// case revoked tokens are kept in memory and recipe creation is not throttled.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStore) *Server {
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	var tokens service.TokenStore = service.NewMemoryTokenStore()
	var createLimiter *middleware.RateLimiter
	if redisClient != nil {
		tokens = service.NewRedisTokenStore(redisClient)
		if cfg.RecipeCreationLimit > 0 {
			createLimiter = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreationLimit)
		}
	}

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, tokens)
	paginator := api.NewPaginator(cfg.PageSize, cfg.MaxPageSize)

	handlers := router.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(service.NewUserService(db), service.NewSubscriptionService(db), paginator),
		Catalog: api.NewCatalogHandler(service.NewCatalogService(db)),
		Recipes: api.NewRecipeHandler(
			service.NewRecipeService(db, images),
			service.NewFavoriteService(db),
			service.NewShoppingCartService(db),
			paginator,
			createLimiter,
		),
		Health: api.NewHealthHandler(db, redisClient),
	}

	engine := router.SetupRouter(cfg, log.Logger, authService, handlers)

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is shut down. It returns nil after a
// graceful shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("Starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
