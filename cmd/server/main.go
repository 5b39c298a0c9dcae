package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"surveyhub/config"
	"surveyhub/controllers"
	"surveyhub/db"
	"surveyhub/internal/events"
	"surveyhub/internal/logger"
	"surveyhub/internal/observability"
	"surveyhub/internal/ratelimit"
	"surveyhub/routes"
	"surveyhub/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const defaultConfigPath = "./config/config.yml"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error("server stopped", "error", err)
		logg.Sync()
		os.Exit(1)
	}
	logg.Sync()
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, logg, observability.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	store, err := db.Connect(ctx, cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(c); err != nil {
			logg.Warn("mongo disconnect failed", "error", err)
		}
	}()
	logg.Info("Connected to MongoDB", "database", store.Database.Name())

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	publisher, limiter, closeRedis := sessionSideChannels(ctx, cfg, logg)
	defer closeRedis()

	opts := services.Options{
		FetchLimit: cfg.Database.FetchLimit,
		Timeout:    time.Duration(cfg.Database.TimeoutSeconds) * time.Second,
		Logger:     logg,
	}
	surveys := services.NewSurveyService(store, opts)
	responses := services.NewResponseService(store, surveys, opts)
	sessions := services.NewSessionService(store, publisher, limiter, opts)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := routes.NewRouter(routes.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Tracing:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		Logger:         logg,
	}, routes.Handlers{
		Surveys:   controllers.NewSurveyController(surveys, logg),
		Responses: controllers.NewResponseController(responses, logg),
		Sessions:  controllers.NewSessionController(sessions, logg),
		Alexa:     controllers.NewAlexaController(sessions, surveys, logg),
		Health:    controllers.NewHealthController(store, logg),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("Shutting down")
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(c)
}

// sessionSideChannels picks the event publisher and report limiter. Without
// Redis, events are dropped and any report limit is kept per process.
func sessionSideChannels(ctx context.Context, cfg *config.Config, logg *logger.Logger) (events.Publisher, ratelimit.Limiter, func()) {
	if cfg.Redis.Addr == "" {
		return events.NopPublisher{}, reportLimiter(cfg, nil), func() {}
	}

	rdb, err := db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logg.Warn("redis unavailable, using in-process limiter", "error", err)
		return events.NopPublisher{}, reportLimiter(cfg, nil), func() {}
	}
	logg.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	return events.NewRedisPublisher(rdb), reportLimiter(cfg, rdb), func() { _ = rdb.Close() }
}

// reportLimiter caps reports per session only when rateLimit.reportsPerMinute
// is positive. rdb may be nil.
func reportLimiter(cfg *config.Config, rdb *redis.Client) ratelimit.Limiter {
	perMinute := cfg.RateLimit.ReportsPerMinute
	switch {
	case perMinute <= 0:
		return ratelimit.Unlimited{}
	case rdb != nil:
		return ratelimit.NewRedisLimiter(rdb, "reports", perMinute, time.Minute)
	default:
		return ratelimit.NewLocalLimiter(perMinute, cfg.RateLimit.Burst)
	}
}
