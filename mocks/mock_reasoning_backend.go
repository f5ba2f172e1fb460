package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"labassist/internal/port"
)

// MockReasoningBackend is a mock implementation of port.ReasoningBackend.
type MockReasoningBackend struct {
	mock.Mock
}

func (m *MockReasoningBackend) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CompletionResponse), args.Error(1)
}
