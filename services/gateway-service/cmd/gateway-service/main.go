package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/grpcx"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
)

func newRateLimit(cfg RateLimitConfig, logger *slog.Logger) (httpx.Middleware, func()) {
	if cfg.RedisAddr == "" {
		rl := httpx.NewRateLimiter(cfg.PerMinute, time.Minute, httpx.UserOrClientIP)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.PerMinute)
		return rl.Middleware(), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	rl := httpx.NewRedisRateLimiter(rdb, cfg.PerMinute, time.Minute, cfg.Prefix, httpx.UserOrClientIP)
	logger.Info("rate limiting enabled (redis)", "per_minute", cfg.PerMinute, "redis_addr", cfg.RedisAddr)
	return rl.Middleware(logger, cfg.FailOpen), func() { _ = rdb.Close() }
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	bookingURL, err := url.Parse(cfg.BookingURL)
	if err != nil {
		logger.Error("invalid BOOKING_URL", "err", err)
		os.Exit(1)
	}

	var jwks *auth.JWKSClient
	if cfg.JWKSURL != "" {
		jwks = auth.NewJWKSClient(cfg.JWKSURL, cfg.JWKSCacheTTL, nil)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, jwks)

	var readyChecks []runtime.ReadyCheck
	if cfg.BookingGRPCAddr != "" {
		conn, err := grpcx.Dial(cfg.BookingGRPCAddr, grpcx.DialOptions{})
		if err != nil {
			logger.Error("booking grpc dial failed", "err", err)
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "booking",
			Check: grpcx.HealthReadyCheck(conn, "", 2*time.Second),
		})
	}

	limit, closeLimiter := newRateLimit(cfg.RateLimit, logger)
	defer closeLimiter()

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	registerRoutes(mux, newBookingProxy(bookingURL, logger), verifier, limit)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.Timeout),
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("gateway configured", "booking_url", cfg.BookingURL, "jwks", cfg.JWKSURL != "")
	runtime.Serve(ctx, srv, logger, 10*time.Second)
}
