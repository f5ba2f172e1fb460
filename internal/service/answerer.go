package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/port"
	"labassist/internal/prompt"
)

// DefaultHistoryLimit is the number of most recent turns supplied to the answerer.
const DefaultHistoryLimit = 10

// Answerer answers a question grounded only in the supplied report, interpretation and history.
type Answerer interface {
	Answer(ctx context.Context, question string, report *domain.StructuredReport, interp *domain.Interpretation, history []domain.ConversationTurn) (string, error)
}

type answerer struct {
	backend      port.ReasoningBackend
	retry        RetryPolicy
	historyLimit int
	logger       *zap.Logger
}

// NewAnswerer creates an Answerer. historyLimit <= 0 uses DefaultHistoryLimit.
func NewAnswerer(backend port.ReasoningBackend, retry RetryPolicy, historyLimit int, logger *zap.Logger) Answerer {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &answerer{backend: backend, retry: retry, historyLimit: historyLimit, logger: logger}
}

func (a *answerer) Answer(ctx context.Context, question string, report *domain.StructuredReport, interp *domain.Interpretation, history []domain.ConversationTurn) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.NewAnswerError(domain.ErrEmptyQuestion, false)
	}
	if report == nil {
		return "", domain.NewAnswerError(fmt.Errorf("no report to ground the answer in"), false)
	}

	req := port.CompletionRequest{
		SystemPrompt:   prompt.AnswerSystemPrompt,
		Prompt:         prompt.BuildAnswerPrompt(question, report, interp, TrimHistory(history, a.historyLimit)),
		ResponseFormat: port.FormatText,
	}

	var answer string
	err := a.retry.Do(ctx, a.logger, "answerer.Answer", func(ctx context.Context) error {
		resp, err := a.backend.Complete(ctx, req)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return llm.ErrEmptyResponse
		}
		answer = text
		return nil
	})
	if err != nil {
		transient := llm.IsTransient(err)
		a.logger.Error("answerer.Answer: answer failed",
			zap.Bool("transient", transient),
			zap.Error(err),
		)
		return "", domain.NewAnswerError(err, transient)
	}
	return answer, nil
}

// TrimHistory returns at most the last n turns, dropping the oldest first.
func TrimHistory(history []domain.ConversationTurn, n int) []domain.ConversationTurn {
	if n <= 0 || len(history) <= n {
		return append([]domain.ConversationTurn(nil), history...)
	}
	return append([]domain.ConversationTurn(nil), history[len(history)-n:]...)
}
