package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/cache"
	"github.com/aman-churiwal/blog-api/internal/circuitbreaker"
	"github.com/aman-churiwal/blog-api/internal/config"
	"github.com/aman-churiwal/blog-api/internal/handler"
	"github.com/aman-churiwal/blog-api/internal/healthcheck"
	"github.com/aman-churiwal/blog-api/internal/logger"
	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/aman-churiwal/blog-api/internal/repository"
	"github.com/aman-churiwal/blog-api/internal/server"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"github.com/aman-churiwal/blog-api/internal/tier"
	"github.com/aman-churiwal/blog-api/internal/worker"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load env if it exists
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.Server.Environment, cfg.Log.Level)

	m := metrics.New()

	postgres, err := storage.NewPostgres(cfg.Database.DSN(), cfg.Server.Environment == config.EnvLocal)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer postgres.Close()

	if err := postgres.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	cacheStore := connectRedis(cfg.Redis, "redis_cache", cfg.Redis.Cache, m)
	defer cacheStore.Close()
	rateLimitStore := connectRedis(cfg.Redis, "redis_rate_limit", cfg.Redis.RateLimit, m)
	defer rateLimitStore.Close()

	log.Info().Msg("connected to postgres and redis")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.NewSeeder(postgres).Run(ctx, cfg.Admin); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	// Repositories
	users := repository.NewUserRepository(postgres)
	tiers := repository.NewTierRepository(postgres)
	rules := repository.NewRateLimitRepository(postgres)
	posts := repository.NewPostRepository(postgres)
	blacklist := repository.NewBlacklistRepository(postgres)

	// Auth and rate limiting
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL(), blacklist)
	resolver := auth.NewResolver(tokens, users)
	tierResolver := tier.NewResolver(repository.NewPolicySource(tiers, rules), ratelimit.Policy{
		Limit:  cfg.RateLimit.DefaultLimit,
		Period: cfg.RateLimit.DefaultPeriod,
	})
	limiter := ratelimit.NewFixedWindow(rateLimitStore, ratelimit.WithMetrics(m))
	loginGuard := ratelimit.NewLocalGuard(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	go loginGuard.RunJanitor(ctx, time.Minute)

	responseCache := cache.New(cacheStore, time.Duration(cfg.Cache.DefaultExpirationSeconds)*time.Second, m)

	// Services
	authService := service.NewAuthService(users, blacklist, tokens)
	tierService := service.NewTierService(tiers)

	checker := healthcheck.NewChecker(healthcheck.Config{
		Probes: []healthcheck.Probe{
			{Name: "postgres", Critical: true, Check: postgres.Ping},
			{Name: cacheStore.Name(), Check: cacheStore.Ping},
			{Name: rateLimitStore.Name(), Critical: true, Check: rateLimitStore.Ping},
		},
		Interval: time.Duration(cfg.Health.IntervalSeconds) * time.Second,
		Timeout:  time.Duration(cfg.Health.TimeoutSeconds) * time.Second,
	})
	checker.Start()
	defer checker.Stop()

	scheduler := worker.NewScheduler(time.Minute)
	if err := scheduler.Add(cfg.Worker.BlacklistPurgeSchedule, worker.NewBlacklistPurge(blacklist, m)); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule worker jobs")
	}
	scheduler.Start()

	srv := server.New(cfg, server.Dependencies{
		Metrics:          m,
		Auth:             resolver,
		Tiers:            tierResolver,
		Limiter:          limiter,
		LoginGuard:       loginGuard,
		Cache:            responseCache,
		AuthHandler:      handler.NewAuthHandler(authService, cfg.Server.Environment != config.EnvLocal),
		UserHandler:      handler.NewUserHandler(service.NewUserService(users, tiers, rules, authService)),
		PostHandler:      handler.NewPostHandler(service.NewPostService(posts, users)),
		TierHandler:      handler.NewTierHandler(tierService),
		RateLimitHandler: handler.NewRateLimitHandler(service.NewRateLimitService(rules, tierService)),
		SystemHandler:    handler.NewSystemHandler(checker),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(":" + cfg.Server.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	scheduler.Stop(shutdownCtx)

	log.Info().Msg("server exited")
}

func connectRedis(cfg config.RedisConfig, name string, endpoint config.RedisEndpoint, m *metrics.Metrics) *storage.RedisClient {
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:        name,
		MaxFailures: cfg.BreakerMaxFailures,
		CoolDown:    cfg.BreakerCoolDown(),
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			m.BreakerState(name, to.Severity())
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})

	client, err := storage.NewRedis(storage.RedisOptions{
		Name:     name,
		Addr:     endpoint.Addr(),
		Password: endpoint.Password,
		DB:       endpoint.DB,
		Timeout:  cfg.Timeout(),
		Breaker:  breaker,
	})
	if err != nil {
		log.Fatal().Err(err).Str("store", name).Msg("failed to connect to redis")
	}

	return client
}
