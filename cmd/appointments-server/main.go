package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"

	"agecare/appointments/internal/config"
	"agecare/appointments/internal/directory"
	"agecare/appointments/internal/httpx"
	"agecare/appointments/internal/metrics"
	"agecare/appointments/internal/notify"
	"agecare/appointments/internal/service/appointments"
	"agecare/appointments/internal/store/postgres"
	"agecare/appointments/internal/telemetry"
	grpcTransport "agecare/appointments/internal/transport/grpc"
	"agecare/appointments/internal/transport/rest"
)

const serviceName = "appointments-server"

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	log.Info(
		"starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("notifier", cfg.NotifierTransport),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracing setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	collector := metrics.NewCollector("appointments", prometheus.NewRegistry())
	if err := collector.Register(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "appointments"),
	); err != nil {
		log.Error("metrics registration failed", slog.Any("err", err))
		os.Exit(1)
	}

	readyChecks := []httpx.ReadyCheck{{Name: "postgres", Check: postgres.ReadyCheck(db)}}

	outbound := httpx.NewClient(cfg.ServiceRequestTimeout)
	residents := directory.NewResidents(cfg.ResidentsURL, outbound, log)
	doctors := directory.NewDoctors(cfg.UsersURL, outbound, log)

	var notifier appointments.Notifier
	switch cfg.NotifierTransport {
	case config.NotifierKafka:
		brokers := notify.SplitBrokers(cfg.KafkaBrokers)
		kafkaNotifier := notify.NewKafkaNotifier(brokers, cfg.KafkaTopic)
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				log.Warn("kafka writer close failed", slog.Any("err", err))
			}
		}()
		notifier = kafkaNotifier
		readyChecks = append(readyChecks, httpx.ReadyCheck{Name: "kafka", Check: notify.KafkaReadyCheck(brokers)})
	default:
		notifier = notify.NewHTTPNotifier(cfg.NotificationsURL, outbound)
	}

	repo := postgres.NewAppointmentRepo(db)
	svc := metrics.InstrumentService(
		appointments.NewService(repo, residents, doctors, metrics.InstrumentNotifier(notifier, collector), log,
			appointments.WithNotifyTimeout(cfg.NotifyTimeout)),
		collector,
	)

	limiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	clientKey := httpx.ClientKeyFunc(cfg.TrustForwardedFor)
	restLimit := limiter.Middleware(clientKey)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		restLimit = httpx.NewRedisRateLimiter(rdb, cfg.RedisRateLimit, cfg.RedisRateWindow, "appointments:rl").
			Middleware(log, cfg.RateLimitFailOpen, clientKey)
		readyChecks = append(readyChecks, httpx.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := httpx.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("GET /metrics", collector.Handler())
	rest.NewHandler(svc, log).Register(mux)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(httpx.Chain(
			collector.Middleware(mux),
			httpx.WithRequestID,
			httpx.WithAccessLog(log),
			restLimit,
			httpx.WithBodyLimit(cfg.HTTPBodyLimitBytes),
		), "appointments.http"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcTransport.RequestIDInterceptor(),
			collector.UnaryServerInterceptor(),
			grpcTransport.RateLimitInterceptor(limiter),
			grpcTransport.DefaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
		),
	)
	grpcTransport.RegisterAppointmentsServiceServer(grpcServer, grpcTransport.NewAppointmentsServer(svc, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("grpc_addr", cfg.GRPCAddr), slog.String("http_addr", cfg.HTTPAddr))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
			exitCode = 1
		}
	}

	shutdownHTTP(log, httpServer, cfg.ShutdownTimeout)
	shutdownGRPC(log, grpcServer, cfg.ShutdownTimeout)

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func shutdownHTTP(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed; closing", slog.Any("err", err))
		_ = s.Close()
		return
	}
	log.Info("http server stopped")
}

func shutdownGRPC(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// databaseLogArgs keeps credentials out of the logs.
func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
