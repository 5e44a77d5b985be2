package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/app"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/config"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/logging"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/sqlite"
	"github.com/dmehra2102/TodoDesk/internal/interceptors"
	"github.com/dmehra2102/TodoDesk/internal/relay"
	"github.com/dmehra2102/TodoDesk/pkg/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

const (
	serviceName    = "tododesk-relay"
	serviceVersion = "1.0.0"
	unixPrefix     = "unix://"
)

func main() {
	// Load Configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	obs := cfg.GetObservabilityConfig()
	logger, err := logging.New(cfg.Environment, obs.LogLevel, obs.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting todo relay",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
		zap.String("data_dir", cfg.DataDir),
	)

	if obs.EnableTracing {
		shutdown, err := initTracer(obs.OTLPEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	// Open the store; the schema is applied before the relay accepts calls
	storeCfg := cfg.GetStoreConfig()
	repo, err := sqlite.Open(context.Background(), storeCfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err), zap.String("path", storeCfg.Path))
	}
	defer repo.Close()

	relayCfg := cfg.GetRelayConfig()
	grpcServer := initGRPCServer(relayCfg, logger)

	// Service Registry
	taskService := app.NewTaskService(repo, logger)
	relay.RegisterRelayServer(grpcServer, relay.NewServer(taskService))

	// Register health service
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(relay.ServiceName, healthpb.HealthCheckResponse_SERVING)

	var metricsServer *http.Server
	if obs.EnableMetrics {
		metricsServer = startMetricsServer(obs.MetricsPort, logger)
	}

	lis, err := listen(relayCfg.Addr)
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err), zap.String("addr", relayCfg.Addr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Relay starting", zap.String("addr", relayCfg.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), relayCfg.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Relay stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	}
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func initGRPCServer(cfg config.RelayConfig, logger *zap.Logger) *grpc.Server {
	metrics := interceptors.NewMetrics(prometheus.DefaultRegisterer, "tododesk")

	chain := []grpc.UnaryServerInterceptor{
		interceptors.RecoveryInterceptor(logger),
		interceptors.LoggingInterceptor(logger),
		metrics.UnaryInterceptor(),
	}
	if cfg.Secret != "" {
		chain = append(chain, interceptors.AuthInterceptor(auth.NewTokenIssuer(cfg.Secret, cfg.TokenTTL)))
	} else {
		logger.Warn("RELAY_SECRET not set, relay calls are unauthenticated")
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           1 * time.Minute,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             1 * time.Minute,
			PermitWithoutStream: true,
		}),

		grpc.MaxRecvMsgSize(4 * 1024 * 1024),
		grpc.MaxSendMsgSize(4 * 1024 * 1024),

		grpc.StatsHandler(otelgrpc.NewServerHandler()),

		grpc.ChainUnaryInterceptor(chain...),
	}

	return grpc.NewServer(opts...)
}

// listen accepts "unix:///path/to.sock" for a local socket; anything else
// is a TCP address.
func listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, unixPrefix); ok {
		// A socket left behind by a crashed host blocks the bind
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}

func startMetricsServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server starting", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
