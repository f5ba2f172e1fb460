package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/port"
	"labassist/mocks"
)

func registerMock(name string, b port.ReasoningBackend) {
	llm.RegisterProvider(name, func(*config.ProviderConfig) (port.ReasoningBackend, error) {
		return b, nil
	})
}

func TestNewBackend_UnknownProvider(t *testing.T) {
	_, err := llm.NewBackend(&config.ProviderConfig{Provider: "does-not-exist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reasoning provider")
}

func TestNewFromConfig_NoProviders(t *testing.T) {
	_, err := llm.NewFromConfig(&config.ReasoningConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestNewFromConfig_SingleProvider(t *testing.T) {
	b := new(mocks.MockReasoningBackend)
	registerMock("factory-single", b)

	got, err := llm.NewFromConfig(&config.ReasoningConfig{
		Primary: config.ProviderConfig{Provider: "factory-single"},
	}, zap.NewNop())

	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestNewFromConfig_FallbackChain(t *testing.T) {
	b1 := new(mocks.MockReasoningBackend)
	b2 := new(mocks.MockReasoningBackend)
	registerMock("factory-a", b1)
	registerMock("factory-b", b2)
	b1.On("Complete", mock.Anything, testReq).Return(nil, errors.New("down"))
	b2.On("Complete", mock.Anything, testReq).Return(&port.CompletionResponse{Text: "from b"}, nil)

	got, err := llm.NewFromConfig(&config.ReasoningConfig{
		Primary:           config.ProviderConfig{Provider: "factory-a"},
		Secondary:         config.ProviderConfig{Provider: "factory-b"},
		RequestsPerSecond: 50,
		Burst:             2,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedBackend{}, got)

	out, err := got.Complete(context.Background(), testReq)
	require.NoError(t, err)
	assert.Equal(t, "from b", out.Text)
}

func TestNewFromConfig_FactoryError(t *testing.T) {
	llm.RegisterProvider("factory-broken", func(*config.ProviderConfig) (port.ReasoningBackend, error) {
		return nil, errors.New("missing api key")
	})

	_, err := llm.NewFromConfig(&config.ReasoningConfig{
		Primary: config.ProviderConfig{Provider: "factory-broken"},
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
}
