package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"labassist/internal/domain"
)

// MockOrchestrator is a mock implementation of service.Orchestrator.
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) Analyze(ctx context.Context, sessionID uuid.UUID, doc []byte) (*domain.Session, error) {
	args := m.Called(ctx, sessionID, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockOrchestrator) Ask(ctx context.Context, sessionID uuid.UUID, question string) (string, *domain.Session, error) {
	args := m.Called(ctx, sessionID, question)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.Session), args.Error(2)
}

func (m *MockOrchestrator) Session(sessionID uuid.UUID) (*domain.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockOrchestrator) End(sessionID uuid.UUID) error {
	args := m.Called(sessionID)
	return args.Error(0)
}
