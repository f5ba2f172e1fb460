package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labassist/internal/domain"
	"labassist/internal/port"
)

// ImportService analyzes documents fetched from object storage.
type ImportService interface {
	Import(ctx context.Context, sessionID uuid.UUID, bucket, key string) (*domain.Session, error)
}

type importService struct {
	storage      port.ObjectStorage
	orchestrator Orchestrator
	maxBytes     int64
	logger       *zap.Logger
}

// NewImportService creates an ImportService. maxBytes <= 0 disables the size check.
func NewImportService(storage port.ObjectStorage, orchestrator Orchestrator, maxBytes int64, logger *zap.Logger) ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &importService{storage: storage, orchestrator: orchestrator, maxBytes: maxBytes, logger: logger}
}

func (s *importService) Import(ctx context.Context, sessionID uuid.UUID, bucket, key string) (*domain.Session, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}
	data, err := s.storage.Download(ctx, bucket, key, s.maxBytes)
	if errors.Is(err, domain.ErrDocumentTooLarge) {
		s.logger.Warn("importService.Import: object exceeds size limit",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Int64("max_bytes", s.maxBytes),
		)
		return nil, err
	}
	if err != nil {
		s.logger.Error("importService.Import: download failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("downloading %s/%s: %w", bucket, key, err)
	}
	s.logger.Info("importService.Import: document fetched",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return s.orchestrator.Analyze(ctx, sessionID, data)
}
