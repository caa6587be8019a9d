package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/agent"
	"github.com/Schera-ole/obsmetrics/internal/audit"
	"github.com/Schera-ole/obsmetrics/internal/backend"
	"github.com/Schera-ole/obsmetrics/internal/config"
	"github.com/Schera-ole/obsmetrics/internal/handler"
	"github.com/Schera-ole/obsmetrics/internal/migration"
	"github.com/Schera-ole/obsmetrics/internal/registry"
	"github.com/Schera-ole/obsmetrics/internal/repository"
	"github.com/Schera-ole/obsmetrics/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	return cfg.Build()
}

func openRepository(ctx context.Context, cfg *config.ServerConfig, logger *zap.SugaredLogger) (repository.Repository, error) {
	if cfg.DatabaseDSN == "" {
		logger.Info("Using in-memory storage")
		return repository.NewMemStorage(), nil
	}
	if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, logger); err != nil {
		return nil, err
	}
	logger.Info("Using database storage")
	return repository.NewDBStorage(cfg.DatabaseDSN)
}

func serve(server *http.Server, name string, logger *zap.SugaredLogger, stop context.CancelFunc) {
	logger.Infow("Starting server", "name", name, "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("Server failed", "name", name, "error", err)
		stop()
	}
}

func main() {
	cfg, err := config.NewServerConfig(os.Args[1:])
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	zapLogger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer repo.Close()

	prom := backend.NewPrometheusBackend(true)
	backends := backend.Fanout{prom}
	var otelBackend *backend.OTELBackend
	if cfg.OTLPEndpoint != "" {
		otelBackend, err = backend.NewOTELBackend(ctx, cfg.OTLPEndpoint, cfg.OTLPInterval, map[string]string{
			"service.name": "obsmetrics",
			"host.name":    cfg.Hostname,
		})
		if err != nil {
			logger.Fatalf("Failed to create OTLP backend: %v", err)
		}
		backends = append(backends, otelBackend)
		logger.Infow("Pushing metrics over OTLP", "endpoint", cfg.OTLPEndpoint, "interval", cfg.OTLPInterval)
	}

	agents := agent.NewRegistry()
	kicker := agent.NewKicker(agents, &http.Client{}, cfg.Hostname, cfg.KickTimeout, logger)
	metricService := service.NewMetricsService(
		registry.New(backends, cfg.MetricOrigin),
		agents,
		kicker,
		repo,
		logger,
	)
	if err := metricService.Restore(ctx); err != nil {
		logger.Errorf("Failed to restore state: %v", err)
	}

	auditLogger, stopAudit := audit.Start(cfg, logger)
	defer stopAudit()

	scrapeMux := http.NewServeMux()
	scrapeMux.Handle(cfg.ScrapePath, prom.Handler())

	apiServer := &http.Server{Addr: cfg.Address, Handler: handler.Router(logger, metricService, auditLogger)}
	scrapeServer := &http.Server{Addr: cfg.ScrapeAddress, Handler: scrapeMux}

	go serve(apiServer, "api", logger, stop)
	go serve(scrapeServer, "scrape", logger, stop)

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range []*http.Server{apiServer, scrapeServer} {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}
	if otelBackend != nil {
		if err := otelBackend.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("OTLP shutdown failed: %v", err)
		}
	}
}
