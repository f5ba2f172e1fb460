package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labassist/internal/csvexport"
	"labassist/internal/domain"
	"labassist/internal/port"
	"labassist/internal/xlsxexport"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned for export formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

// ExportOutput is a rendered session export.
type ExportOutput struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders a session's results as CSV or XLSX and can push them to object storage.
type ExportService interface {
	Export(ctx context.Context, sessionID uuid.UUID, format string) (*ExportOutput, error)
	ExportToStorage(ctx context.Context, sessionID uuid.UUID, format, bucket, key string) (*port.UploadOutput, error)
}

type exportService struct {
	orchestrator Orchestrator
	storage      port.ObjectStorage
	logger       *zap.Logger
}

// NewExportService creates an ExportService. storage may be nil when no bucket is configured.
func NewExportService(orchestrator Orchestrator, storage port.ObjectStorage, logger *zap.Logger) ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &exportService{orchestrator: orchestrator, storage: storage, logger: logger}
}

func (s *exportService) Export(_ context.Context, sessionID uuid.UUID, format string) (*ExportOutput, error) {
	session, err := s.orchestrator.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Report == nil {
		return nil, &domain.NotReadyError{SessionID: sessionID, Status: session.Status}
	}
	return Render(session, format)
}

func (s *exportService) ExportToStorage(ctx context.Context, sessionID uuid.UUID, format, bucket, key string) (*port.UploadOutput, error) {
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}
	out, err := s.Export(ctx, sessionID, format)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = fmt.Sprintf("exports/%s/%s", sessionID, out.Filename)
	}
	res, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(out.Data),
		ContentType: out.ContentType,
	})
	if err != nil {
		s.logger.Error("exportService.ExportToStorage: upload failed",
			zap.String("session_id", sessionID.String()),
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}
	s.logger.Info("exportService.ExportToStorage: uploaded",
		zap.String("session_id", sessionID.String()),
		zap.String("location", res.Location),
	)
	return res, nil
}

// Render produces the export for a session holding a report.
func Render(session *domain.Session, format string) (*ExportOutput, error) {
	// Named by session and report date; patient details stay out of filenames and keys.
	name := "lab_report_" + session.ID.String()[:8]
	date := session.Report.Metadata[domain.MetaReportDate]
	var buf bytes.Buffer
	switch format {
	case FormatCSV, "":
		buf.Write(csvexport.BOM)
		w := csvexport.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
		if err := w.WriteResults(session.Report, session.Interpretation); err != nil {
			return nil, fmt.Errorf("writing csv rows: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flushing csv: %w", err)
		}
		return &ExportOutput{
			Data:        buf.Bytes(),
			ContentType: "text/csv; charset=utf-8",
			Filename:    csvexport.BuildFilename(name, date, FormatCSV),
		}, nil
	case FormatXLSX:
		if err := xlsxexport.Write(&buf, session.Report, session.Interpretation); err != nil {
			return nil, err
		}
		return &ExportOutput{
			Data:        buf.Bytes(),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Filename:    csvexport.BuildFilename(name, date, FormatXLSX),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
