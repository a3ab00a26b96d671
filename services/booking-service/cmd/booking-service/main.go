package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/libs/grpcx"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/notify"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

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

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultOptions())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	store := storage.NewStore(pool)
	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var notifier booking.Notifier
	switch cfg.NotifyMode {
	case notifyModeLog:
		notifier = notify.NewLogNotifier(logger)
	default:
		outboxRepo := outbox.NewRepository(pool)
		notifier = notify.NewOutboxNotifier(outboxRepo)

		var writer outbox.MessageWriter
		if len(cfg.KafkaBrokers) > 0 {
			kw := kafkax.NewWriter(cfg.KafkaBrokers)
			defer func() { _ = kw.Close() }()
			writer = kw
			readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
		publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{
			PollEvery: cfg.PollEvery,
			BatchSize: cfg.BatchSize,
		})
		go publisher.Run(ctx)
	}

	bookings := booking.NewService(store, notifier, logger, booking.Options{
		HidePast: cfg.SlotsHidePast,
		Metrics:  bookingMetrics,
	})
	cat := catalog.NewService(store, logger)

	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			os.Exit(1)
		}
		grpcSrv := grpcx.NewServer(logger)
		grpcSrv.SetServing("", true)
		grpcSrv.SetServing(cfg.ServiceName, true)
		go grpcSrv.Run(ctx, lis, logger)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handlers.NewAPI(bookings, cat, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.NewHTTPMetrics(reg, cfg.ServiceName).Middleware(),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.Timeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("booking service configured",
		"notify_mode", cfg.NotifyMode,
		"slots_hide_past", cfg.SlotsHidePast,
		"grpc_port", cfg.GRPCPort,
	)
	runtime.Serve(ctx, srv, logger, 10*time.Second)
}
