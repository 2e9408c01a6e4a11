// Package main is the entrypoint for the PhotoShare API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/photoshare/photoshare/internal/cache"
	"github.com/photoshare/photoshare/internal/config"
	"github.com/photoshare/photoshare/internal/github"
	"github.com/photoshare/photoshare/internal/handler"
	"github.com/photoshare/photoshare/internal/metrics"
	"github.com/photoshare/photoshare/internal/middleware"
	"github.com/photoshare/photoshare/internal/pubsub"
	"github.com/photoshare/photoshare/internal/repository"
	"github.com/photoshare/photoshare/internal/resolver"
	"github.com/photoshare/photoshare/internal/server"
	"github.com/photoshare/photoshare/internal/service"
	"github.com/photoshare/photoshare/internal/synthuser"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize the persistent store. Unreachable store is fatal: the
	// process exits rather than serving without persistence.
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Metrics and the event broadcaster
	recorder := metrics.NewInMemory()
	broadcaster := pubsub.NewBroadcaster(logger.With("component", "broadcaster"), recorder, cfg.SubscriberBuffer)

	// Provider clients
	githubClient := github.NewClient(github.Config{
		ClientID:     cfg.GithubClientID,
		ClientSecret: cfg.GithubClientSecret,
		AuthURL:      cfg.GithubAuthURL,
		TokenURL:     cfg.GithubTokenURL,
		APIBaseURL:   cfg.GithubAPIURL,
		Timeout:      cfg.DownstreamTimeout,
	})
	profileSource := synthuser.NewClient(cfg.ProfileSourceURL, cfg.DownstreamTimeout)

	// Services
	photoService := service.NewPhotoService(repo, broadcaster, recorder, cfg.DownstreamTimeout)
	authService := service.NewAuthService(repo, githubClient, profileSource, broadcaster, recorder, cfg.DownstreamTimeout)

	// Query resolver
	queryResolver := resolver.New(repo, logger.With("component", "resolver"), recorder, cfg.MaxQueryDepth, cfg.MaxQueryCost)

	// Handlers
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(recorder)
	queryHandler := handler.NewQueryHandler(queryResolver, logger)
	photoHandler := handler.NewPhotoHandler(photoService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(
		broadcaster, logger.With("component", "subscriptions"),
		cfg.WSWriteTimeout, cfg.WSPingInterval,
		originChecker(cfg),
	)

	r := setupRouter(routerDeps{
		health:        healthHandler,
		metrics:       metricsHandler,
		query:         queryHandler,
		photos:        photoHandler,
		auth:          authHandler,
		subscriptions: subscriptionHandler,
		repo:          repo,
		cache:         cacheClient,
		cfg:           cfg,
		logger:        logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Closing the broadcaster terminates every subscription stream, which
	// unblocks the WebSocket handlers during HTTP shutdown.
	srv.OnShutdown("broadcaster", func(context.Context) error {
		broadcaster.Close()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// originChecker builds the WebSocket origin check from the CORS allow-list.
// An empty allow-list accepts any origin, matching the CORS default.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	allowed := cfg.GetCORSAllowedOrigins()
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

type routerDeps struct {
	health        *handler.HealthHandler
	metrics       *handler.MetricsHandler
	query         *handler.QueryHandler
	photos        *handler.PhotoHandler
	auth          *handler.AuthHandler
	subscriptions *handler.SubscriptionHandler
	repo          *repository.Repository
	cache         *cache.Cache
	cfg           *config.Config
	logger        *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(deps.cfg.IsDevelopment()))
	r.Use(middleware.CORS(deps.cfg.GetCORSAllowedOrigins()))

	// Health and metrics (no identity, no rate limit)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Cache:   deps.cache,
		Enabled: deps.cfg.RateLimitEnabled,
		RPS:     deps.cfg.RateLimitRPS,
		Burst:   deps.cfg.RateLimitBurst,
	}

	identity := middleware.Identity(deps.logger, deps.repo)

	r.Route("/api", func(r chi.Router) {
		r.Use(identity)

		// Read surface
		r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/query", deps.query.Query)

		// Mutation gateway, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/photos", deps.photos.Post)
			r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/auth/github", deps.auth.GithubAuth)
			r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/auth/user", deps.auth.ExistingUserAuth)
			r.With(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize)).Post("/users/synthetic", deps.auth.AddSyntheticUsers)
		})

		// Subscription streams
		r.Get("/subscriptions/photos", deps.subscriptions.Photos)
		r.Get("/subscriptions/users", deps.subscriptions.Users)
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
