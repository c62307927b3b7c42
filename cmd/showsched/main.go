package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/propview/showsched/internal/config"
	"github.com/propview/showsched/internal/gateway"
	"github.com/propview/showsched/internal/httpapi"
	"github.com/propview/showsched/internal/httpx"
	"github.com/propview/showsched/internal/otelx"
	"github.com/propview/showsched/internal/runtime"
	"github.com/propview/showsched/internal/viewmodel"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "showsched")
	port, err := config.Port("PORT", "8090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	backendURL, err := config.RequiredString("BOOKING_API_URL")
	if err != nil {
		panic(err)
	}
	client, err := gateway.NewClient(gateway.Config{
		BaseURL: backendURL,
		Cookie:  config.String("BOOKING_API_COOKIE", ""),
		Timeout: config.Duration("BOOKING_API_TIMEOUT", 15*time.Second),
	}, logger)
	if err != nil {
		panic(err)
	}

	loc := config.Location("DISPLAY_TIMEZONE")
	sched := viewmodel.New(client, client, loc, logger)

	// Warm the snapshot; a failure here is not fatal, the UI can refresh.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 10*time.Second)
	if err := sched.Refresh(warmCtx); err != nil {
		logger.Warn("initial schedule fetch failed", "err", err)
	}
	cancelWarm()

	readyChecks := []runtime.ReadyCheck{
		{Name: "booking-backend", Check: client.Ping},
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var rateLimitMW httpx.Middleware
	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "showsched:rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMux(readyChecks...)
	handler := httpapi.NewHandler(sched, client, loc, logger)
	handler.Register(mux)

	chained := httpx.Chain(mux,
		httpx.WithCORS(parseList(config.String("CORS_ALLOWED_ORIGINS", "")), config.Duration("CORS_MAX_AGE", 10*time.Minute)),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		rateLimitMW,
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(chained, "showsched"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
