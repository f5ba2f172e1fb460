package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"labassist/internal/domain"
)

// MockExtractor is a mock implementation of service.Extractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, doc []byte) (*domain.StructuredReport, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructuredReport), args.Error(1)
}

// MockInterpreter is a mock implementation of service.Interpreter.
type MockInterpreter struct {
	mock.Mock
}

func (m *MockInterpreter) Interpret(ctx context.Context, report *domain.StructuredReport) (*domain.Interpretation, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Interpretation), args.Error(1)
}

// MockAnswerer is a mock implementation of service.Answerer.
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(
	ctx context.Context,
	question string,
	report *domain.StructuredReport,
	interp *domain.Interpretation,
	history []domain.ConversationTurn,
) (string, error) {
	args := m.Called(ctx, question, report, interp, history)
	return args.String(0), args.Error(1)
}
