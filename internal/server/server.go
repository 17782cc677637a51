package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/cache"
	"github.com/aman-churiwal/blog-api/internal/config"
	"github.com/aman-churiwal/blog-api/internal/handler"
	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/aman-churiwal/blog-api/internal/middleware"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/aman-churiwal/blog-api/internal/tier"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Dependencies are the wired components the router needs.
type Dependencies struct {
	Metrics    *metrics.Metrics
	Auth       *auth.Resolver
	Tiers      *tier.Resolver
	Limiter    *ratelimit.FixedWindow
	LoginGuard *ratelimit.LocalGuard
	Cache      *cache.Cache

	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	PostHandler      *handler.PostHandler
	TierHandler      *handler.TierHandler
	RateLimitHandler *handler.RateLimitHandler
	SystemHandler    *handler.SystemHandler
}

type Server struct {
	router     *gin.Engine
	config     *config.Config
	deps       Dependencies
	httpServer *http.Server
}

func New(cfg *config.Config, deps Dependencies) *Server {
	if cfg.Server.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.New(),
		config: cfg,
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS(s.config.Server.AllowOrigins))
	s.router.Use(middleware.Metrics(s.deps.Metrics))
	s.router.Use(middleware.ClientCache(s.config.ClientCache.MaxAge))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.deps.SystemHandler.Health)
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := s.router.Group("/api/v1")
	api.Use(middleware.Authenticate(s.deps.Auth))
	api.Use(middleware.RateLimit(s.deps.Tiers, s.deps.Limiter))

	requireUser := middleware.RequireUser(s.deps.Auth)
	requireSuperuser := middleware.RequireSuperuser()

	s.setupAuthRoutes(api, requireUser)
	s.setupUserRoutes(api, requireUser, requireSuperuser)
	s.setupPostRoutes(api, requireUser, requireSuperuser)
	s.setupTierRoutes(api, requireUser, requireSuperuser)
}

func (s *Server) setupAuthRoutes(api *gin.RouterGroup, requireUser gin.HandlerFunc) {
	h := s.deps.AuthHandler

	api.POST("/login", middleware.LoginThrottle(s.deps.LoginGuard), h.Login)
	api.POST("/refresh", h.Refresh)
	api.POST("/logout", requireUser, h.Logout)
}

func (s *Server) setupUserRoutes(api *gin.RouterGroup, requireUser, requireSuperuser gin.HandlerFunc) {
	h := s.deps.UserHandler
	c := s.deps.Cache

	userKey := cache.Config{KeyTemplate: "{username}_user_cache", ResourceIDField: "username"}
	tierKey := cache.Config{KeyTemplate: "{username}_user_tier", ResourceIDField: "username"}
	// A rename or delete orphans every entry keyed by the old username.
	userChanged := cache.Config{
		KeyTemplate:     "{username}_user_cache",
		ResourceIDField: "username",
		ExtraInvalidation: map[string]string{
			"{username}_user_tier": "{username}",
			"{username}_posts":     "{username}",
		},
		InvalidationPatterns: []string{"{username}_posts:*", "{username}_post_cache:*"},
	}

	api.POST("/user", h.Create)
	api.GET("/users", h.List)
	api.GET("/user/me", requireUser, h.Me)
	api.GET("/user/:username", c.Handler(userKey), h.Get)
	api.PATCH("/user/:username", requireUser, c.Handler(userChanged), h.Update)
	api.DELETE("/user/:username", requireUser, c.Handler(userChanged), h.Delete)
	api.DELETE("/db_user/:username", requireUser, requireSuperuser, c.Handler(userChanged), h.HardDelete)

	api.GET("/user/:username/rate_limits", requireUser, requireSuperuser, h.RateLimits)
	api.GET("/user/:username/tier", c.Handler(tierKey), h.Tier)
	api.PATCH("/user/:username/tier", requireUser, requireSuperuser, c.Handler(cache.Config{
		KeyTemplate:       "{username}_user_tier",
		ResourceIDField:   "username",
		ExtraInvalidation: map[string]string{"{username}_user_cache": "{username}"},
	}), h.SetTier)
}

func (s *Server) setupPostRoutes(api *gin.RouterGroup, requireUser, requireSuperuser gin.HandlerFunc) {
	h := s.deps.PostHandler
	c := s.deps.Cache

	list := cache.Config{
		KeyTemplate:     "{username}_posts:page_{page}:items_per_page:{items_per_page}",
		ResourceIDField: "username",
		Expiration:      time.Duration(s.config.Cache.ListExpirationSeconds) * time.Second,
		Paginated:       true,
	}
	single := cache.Config{KeyTemplate: "{username}_post_cache", ResourceIDField: "id"}
	removed := cache.Config{
		KeyTemplate:          "{username}_post_cache",
		ResourceIDField:      "id",
		ExtraInvalidation:    map[string]string{"{username}_posts": "{username}"},
		InvalidationPatterns: []string{"{username}_posts:*"},
	}

	api.POST("/:username/post", requireUser, c.Handler(cache.Config{
		InvalidationPatterns: []string{"{username}_posts:*"},
	}), h.Create)
	api.GET("/:username/posts", c.Handler(list), h.List)
	api.GET("/:username/post/:id", c.Handler(single), h.Get)
	api.PATCH("/:username/post/:id", requireUser, c.Handler(cache.Config{
		KeyTemplate:          "{username}_post_cache",
		ResourceIDField:      "id",
		InvalidationPatterns: []string{"{username}_posts:*"},
	}), h.Update)
	api.DELETE("/:username/post/:id", requireUser, c.Handler(removed), h.Delete)
	api.DELETE("/:username/db_post/:id", requireUser, requireSuperuser, c.Handler(removed), h.HardDelete)
}

// Tier and rate limit routes share the :name segment; the router rejects
// two different wildcard names at one position.
func (s *Server) setupTierRoutes(api *gin.RouterGroup, requireUser, requireSuperuser gin.HandlerFunc) {
	tiers := s.deps.TierHandler
	rules := s.deps.RateLimitHandler
	admin := []gin.HandlerFunc{requireUser, requireSuperuser}

	// Renaming or deleting a tier changes every cached user and tier view
	// that embeds it.
	tierChanged := s.deps.Cache.Handler(cache.Config{
		InvalidationPatterns: []string{"*_user_tier:*", "*_user_cache:*"},
	})

	api.POST("/tier", append(admin, tiers.Create)...)
	api.GET("/tiers", tiers.List)
	api.GET("/tier/:name", tiers.Get)
	api.PATCH("/tier/:name", append(admin, tierChanged, tiers.Update)...)
	api.DELETE("/tier/:name", append(admin, tierChanged, tiers.Delete)...)

	api.POST("/tier/:name/rate_limit", append(admin, rules.Create)...)
	api.GET("/tier/:name/rate_limits", rules.List)
	api.GET("/tier/:name/rate_limit/:id", rules.Get)
	api.PATCH("/tier/:name/rate_limit/:id", append(admin, rules.Update)...)
	api.DELETE("/tier/:name/rate_limit/:id", append(admin, rules.Delete)...)
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", addr).Str("environment", s.config.Server.Environment).Msg("starting blog api")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
