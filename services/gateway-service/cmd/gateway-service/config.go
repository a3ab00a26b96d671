package main

import (
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
)

type Config struct {
	ServiceName     string `validate:"required"`
	Port            string `validate:"required"`
	BookingURL      string `validate:"required,url"`
	BookingGRPCAddr string `validate:"omitempty,hostname_port"`
	JWTSecret       string `validate:"required_without=JWKSURL"`
	JWKSURL         string `validate:"omitempty,url"`
	JWKSCacheTTL    time.Duration
	BodyLimit       int64         `validate:"gt=0"`
	Timeout         time.Duration `validate:"gt=0"`
	RateLimit       RateLimitConfig
	CORS            CORSConfig
}

type RateLimitConfig struct {
	PerMinute     int `validate:"gt=0"`
	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	Prefix        string
	FailOpen      bool
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func loadConfig() (Config, error) {
	_ = config.LoadDotEnv()

	port, err := config.Port("PORT", "8080")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName:     config.String("SERVICE_NAME", "gateway-service"),
		Port:            port,
		BookingURL:      config.String("BOOKING_URL", "http://booking-service:8083"),
		BookingGRPCAddr: config.String("BOOKING_GRPC_ADDR", ""),
		JWTSecret:       config.String("JWT_SECRET", ""),
		JWKSURL:         config.String("JWKS_URL", ""),
		JWKSCacheTTL:    config.Duration("JWKS_CACHE_TTL", 5*time.Minute),
		BodyLimit:       int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
		Timeout:         config.Duration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimit: RateLimitConfig{
			PerMinute:     config.Int("RATE_LIMIT_PER_MINUTE", 60),
			RedisAddr:     config.String("REDIS_ADDR", ""),
			RedisPassword: config.String("REDIS_PASSWORD", ""),
			RedisDB:       config.Int("REDIS_DB", 0),
			Prefix:        config.String("RATE_LIMIT_PREFIX", "rl"),
			FailOpen:      config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		},
		CORS: CORSConfig{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id,Idempotency-Key"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		},
	}
	if err := config.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
