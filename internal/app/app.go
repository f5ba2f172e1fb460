// Package app wires configuration into the service graph shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/llm/providers"
	"labassist/internal/metrics"
	"labassist/internal/port"
	"labassist/internal/service"
	s3storage "labassist/internal/storage/s3"
)

// App holds the wired services.
type App struct {
	Orchestrator service.Orchestrator
	Imports      service.ImportService
	Exports      service.ExportService
	Metrics      *metrics.Tracker
	// Providers lists the configured reasoning providers in fallback order.
	Providers []string
	MaxBytes  int64
}

// New builds the reasoning backend chain, the pipeline components and, when a
// bucket is configured, the S3 client used for imports and exports.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	providers.Register()

	backend, err := llm.NewFromConfig(&cfg.Reasoning, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reasoning backend: %w", err)
	}

	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		logger.Info("app.New: no S3 bucket configured, imports and storage exports disabled")
	}

	return NewWithBackend(cfg, backend, storage, logger), nil
}

// NewWithBackend wires the services around an existing backend and storage.
// storage may be nil.
func NewWithBackend(cfg *config.Config, backend port.ReasoningBackend, storage port.ObjectStorage, logger *zap.Logger) *App {
	policy := service.RetryPolicy{MaxRetries: cfg.Pipeline.MaxRetries, Base: cfg.Pipeline.BackoffBase}
	maxBytes := cfg.Pipeline.MaxDocumentBytes()
	tracker := metrics.NewTracker(logger)

	orch := service.NewOrchestrator(
		service.NewSessionManager(logger),
		service.NewExtractor(backend, policy, maxBytes, logger),
		service.NewInterpreter(backend, policy, logger),
		service.NewAnswerer(backend, policy, cfg.Pipeline.HistoryLimit, logger),
		cfg.Pipeline.HistoryLimit,
		tracker,
		logger,
	)

	names := make([]string, 0, 3)
	for _, p := range cfg.Reasoning.Providers() {
		names = append(names, p.Provider)
	}

	return &App{
		Orchestrator: orch,
		Imports:      service.NewImportService(storage, orch, maxBytes, logger),
		Exports:      service.NewExportService(orch, storage, logger),
		Metrics:      tracker,
		Providers:    names,
		MaxBytes:     maxBytes,
	}
}
