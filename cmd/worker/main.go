package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/config"
	"github.com/noah-isme/backend-rent/internal/gateway"
	"github.com/noah-isme/backend-rent/internal/obs"
	"github.com/noah-isme/backend-rent/internal/payment"
	"github.com/noah-isme/backend-rent/internal/resilience"
	"github.com/noah-isme/backend-rent/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "rent")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	gatewayClient := gateway.NewClient(gateway.Options{
		BaseURL:   cfg.GatewayBaseURL,
		KeyID:     cfg.GatewayKeyID,
		KeySecret: cfg.GatewayKeySecret,
		Timeout:   cfg.GatewayTimeout,
		Breaker: resilience.NewBreaker(
			envInt("CIRCUIT_GATEWAY_MIN_REQ", 10),
			envFloat("CIRCUIT_GATEWAY_FAILURE_RATE", 0.5),
			time.Duration(envInt("CIRCUIT_GATEWAY_OPEN_FOR_MS", 30000))*time.Millisecond,
		),
	})

	// Tasks stays nil here: a failed execution must propagate to asynq's
	// retry schedule instead of enqueueing a second retry task.
	executor := &payment.Executor{
		Gateway: gatewayClient,
		Logger:  logger,
	}
	handler := &tasks.Handler{Executor: executor, Logger: logger}

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 4),
		Logger:      asynqZerolog{logger},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeTransferRetry, handler.HandleTransferRetry)

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

// asynqZerolog adapts the structured logger to asynq's logging interface.
type asynqZerolog struct {
	l zerolog.Logger
}

func (a asynqZerolog) Debug(args ...interface{}) { a.l.Debug().Msgf("%v", args) }
func (a asynqZerolog) Info(args ...interface{})  { a.l.Info().Msgf("%v", args) }
func (a asynqZerolog) Warn(args ...interface{})  { a.l.Warn().Msgf("%v", args) }
func (a asynqZerolog) Error(args ...interface{}) { a.l.Error().Msgf("%v", args) }
func (a asynqZerolog) Fatal(args ...interface{}) { a.l.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}
