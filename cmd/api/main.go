package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-rent/internal/common"
	"github.com/noah-isme/backend-rent/internal/config"
	"github.com/noah-isme/backend-rent/internal/events"
	"github.com/noah-isme/backend-rent/internal/gateway"
	"github.com/noah-isme/backend-rent/internal/health"
	"github.com/noah-isme/backend-rent/internal/obs"
	"github.com/noah-isme/backend-rent/internal/payment"
	"github.com/noah-isme/backend-rent/internal/ratelimit"
	"github.com/noah-isme/backend-rent/internal/resilience"
	"github.com/noah-isme/backend-rent/internal/route"
	"github.com/noah-isme/backend-rent/internal/tasks"
)

// rateLimitPrefix namespaces rate-limit counters in Redis so they never
// collide with the webhook replay guard keys.
const rateLimitPrefix = "rl:rent"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "rent")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "rent-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

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

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	asynqClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task queue client")
		}
	}()
	enqueuer := &tasks.Enqueuer{
		Client:     asynqClient,
		RetryDelay: time.Duration(envInt("TRANSFER_RETRY_DELAY_MS", 60000)) * time.Millisecond,
		MaxRetry:   envInt("TRANSFER_RETRY_MAX", 5),
		Logger:     logger,
	}

	bus := &events.Bus{}

	validate := validator.New()

	provisioner := &route.Provisioner{Gateway: gatewayClient, Logger: logger}
	productResolver := &route.ProductResolver{Gateway: gatewayClient, Logger: logger}
	settlements := &route.SettlementConfigurator{
		Accounts: gatewayClient,
		Products: productResolver,
		Logger:   logger,
	}
	statuses := &route.StatusResolver{
		Accounts: gatewayClient,
		Products: productResolver,
		Logger:   logger,
	}
	routeHandler := &route.Handler{
		Provisioner: provisioner,
		Settlements: settlements,
		Statuses:    statuses,
		Validate:    validate,
	}

	orders := &payment.Orders{
		Gateway:           gatewayClient,
		DefaultFeePercent: cfg.PlatformFeePercent,
		SandboxAccountID:  cfg.SandboxAccountID,
		Logger:            logger,
	}
	executor := &payment.Executor{
		Gateway: gatewayClient,
		Tasks:   enqueuer,
		Bus:     bus,
		Logger:  logger,
	}
	paymentHandler := &payment.Handler{
		Orders:   orders,
		Executor: executor,
		Verifier: payment.Verifier{KeySecret: cfg.GatewayKeySecret},
		Validate: validate,
		KeyID:    cfg.GatewayKeyID,
	}
	webhookHandler := &payment.Webhook{
		Secret:    cfg.GatewayWebhookSecret,
		Redis:     redisClient,
		ReplayTTL: cfg.WebhookReplayTTL,
		Bus:       bus,
		Logger:    logger,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: rateLimitPrefix},
		Config: ratelimit.Config{
			Key:    common.ClientIP,
			Window: time.Duration(envInt("RATE_LIMIT_WINDOW_MS", 60000)) * time.Millisecond,
			Max:    envInt("RATE_LIMIT_MAX", 120),
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:        readinessChecker{redis: redisClient, gateway: gatewayClient},
		RedisTimeout:   envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		GatewayTimeout: envDurationMillis("HEALTH_READY_GATEWAY_TIMEOUT_MS", 800),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/payments", func(p chi.Router) {
		p.Use(limiter.Middleware)

		p.Route("/route", func(rt chi.Router) {
			rt.Route("/linked-accounts", func(la chi.Router) {
				la.With(idem.Middleware).Post("/", routeHandler.Create)
				la.Get("/{id}", routeHandler.Get)
				la.Patch("/{id}/settlements", routeHandler.UpdateSettlements)
				la.With(idem.Middleware).Post("/{id}/stakeholders", routeHandler.CreateStakeholder)
			})
			rt.With(idem.Middleware).Post("/orders", paymentHandler.CreateOrder)
			rt.Get("/orders/{orderId}", paymentHandler.OrderStatus)
			rt.Post("/verify", paymentHandler.Verify)
		})

		p.Post("/webhook", webhookHandler.Handle)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis   *redis.Client
	gateway *gateway.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c readinessChecker) PingGateway(ctx context.Context, timeout time.Duration) error {
	if c.gateway == nil {
		return errors.New("gateway not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.gateway.Ping(ctx)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
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

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
