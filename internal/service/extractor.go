package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"labassist/internal/document"
	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/port"
	"labassist/internal/prompt"
	"labassist/internal/validator"
)

// Extractor turns raw document bytes into a StructuredReport. It is stateless.
type Extractor interface {
	Extract(ctx context.Context, doc []byte) (*domain.StructuredReport, error)
}

type extractor struct {
	backend  port.ReasoningBackend
	retry    RetryPolicy
	maxBytes int64
	logger   *zap.Logger
}

// NewExtractor creates an Extractor. maxBytes <= 0 disables the document size limit.
func NewExtractor(backend port.ReasoningBackend, retry RetryPolicy, maxBytes int64, logger *zap.Logger) Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &extractor{
		backend:  backend,
		retry:    retry,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (e *extractor) Extract(ctx context.Context, data []byte) (*domain.StructuredReport, error) {
	doc, err := document.Inspect(data, e.maxBytes)
	if err != nil {
		e.logger.Info("extractor.Extract: document rejected", zap.Error(err))
		return nil, domain.NewExtractionError(err, false)
	}

	req := port.CompletionRequest{
		SystemPrompt:   prompt.ExtractionSystemPrompt,
		ResponseFormat: port.FormatJSON,
	}
	if doc.IsText() {
		req.Prompt = prompt.BuildExtractionPrompt(doc.Text())
	} else {
		req.Prompt = prompt.BuildExtractionPrompt("")
		req.Attachment = &port.Attachment{MimeType: doc.MimeType, Data: doc.Data}
	}

	var (
		report *domain.StructuredReport
		model  string
	)
	err = e.retry.Do(ctx, e.logger, "extractor.Extract", func(ctx context.Context) error {
		resp, err := e.backend.Complete(ctx, req)
		if err != nil {
			return err
		}
		r, err := validator.DecodeExtraction(resp.Text)
		if err != nil {
			return err
		}
		report, model = r, resp.Model
		return nil
	})
	if err != nil {
		transient := llm.IsTransient(err)
		e.logger.Error("extractor.Extract: extraction failed",
			zap.Bool("transient", transient),
			zap.Error(err),
		)
		return nil, domain.NewExtractionError(err, transient)
	}

	if doc.PageCount > 0 {
		report.Metadata[domain.MetaPageCount] = strconv.Itoa(doc.PageCount)
	}
	report.Metadata[domain.MetaContentType] = doc.MimeType
	if model != "" {
		report.Metadata[domain.MetaModel] = model
	}

	e.logger.Info("extractor.Extract: report extracted",
		zap.Int("tests", len(report.TestResults)),
		zap.Int("abnormal", len(report.AbnormalTests())),
		zap.String("content_type", doc.MimeType),
	)
	return report, nil
}
