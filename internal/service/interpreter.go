package service

import (
	"context"

	"go.uber.org/zap"

	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/port"
	"labassist/internal/prompt"
	"labassist/internal/validator"
)

// Interpreter produces a patient-friendly Interpretation of a StructuredReport.
type Interpreter interface {
	Interpret(ctx context.Context, report *domain.StructuredReport) (*domain.Interpretation, error)
}

type interpreter struct {
	backend port.ReasoningBackend
	retry   RetryPolicy
	logger  *zap.Logger
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(backend port.ReasoningBackend, retry RetryPolicy, logger *zap.Logger) Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &interpreter{backend: backend, retry: retry, logger: logger}
}

func (i *interpreter) Interpret(ctx context.Context, report *domain.StructuredReport) (*domain.Interpretation, error) {
	if report == nil || !report.HasAnalyzableData() {
		return &domain.Interpretation{
			Summary:     prompt.NoAnalyzableDataSummary,
			Findings:    []domain.Finding{},
			Disclaimers: []string{prompt.MedicalDisclaimer},
		}, nil
	}

	req := port.CompletionRequest{
		SystemPrompt:   prompt.InterpretationSystemPrompt,
		Prompt:         prompt.BuildInterpretationPrompt(report),
		ResponseFormat: port.FormatJSON,
	}

	var interp *domain.Interpretation
	err := i.retry.Do(ctx, i.logger, "interpreter.Interpret", func(ctx context.Context) error {
		resp, err := i.backend.Complete(ctx, req)
		if err != nil {
			return err
		}
		out, err := validator.DecodeInterpretation(resp.Text)
		if err != nil {
			return err
		}
		interp = out
		return nil
	})
	if err != nil {
		transient := llm.IsTransient(err)
		i.logger.Error("interpreter.Interpret: interpretation failed",
			zap.Bool("transient", transient),
			zap.Error(err),
		)
		return nil, domain.NewInterpretationError(err, transient)
	}

	if missing := validator.EnforceCoverage(report, interp); len(missing) > 0 {
		i.logger.Warn("interpreter.Interpret: model omitted flagged tests, generated findings",
			zap.Strings("tests", missing),
		)
	}
	validator.EnsureDisclaimer(interp)

	if err := interp.Validate(); err != nil {
		return nil, domain.NewInterpretationError(err, false)
	}
	return interp, nil
}
