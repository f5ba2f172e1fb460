package llm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"labassist/internal/config"
	"labassist/internal/port"
)

// ProviderFactory creates a ReasoningBackend from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.ReasoningBackend, error)

// registry of provider factories, populated via RegisterProvider.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewBackend creates a ReasoningBackend from a provider config using the registered factory.
func NewBackend(cfg *config.ProviderConfig) (port.ReasoningBackend, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown reasoning provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the backend chain described by cfg: one backend per
// configured provider, wrapped in a FallbackBackend when there is more than one,
// and in a RateLimitedBackend when a request rate is set.
func NewFromConfig(cfg *config.ReasoningConfig, logger *zap.Logger) (port.ReasoningBackend, error) {
	provs := cfg.Providers()
	if len(provs) == 0 {
		return nil, fmt.Errorf("no reasoning provider configured")
	}

	backends := make([]port.ReasoningBackend, 0, len(provs))
	names := make([]string, 0, len(provs))
	for _, p := range provs {
		b, err := NewBackend(p)
		if err != nil {
			return nil, fmt.Errorf("creating %s backend: %w", p.Provider, err)
		}
		backends = append(backends, b)
		names = append(names, p.Provider)
	}

	var backend port.ReasoningBackend
	if len(backends) == 1 {
		backend = backends[0]
	} else {
		backend = NewFallbackBackend(backends, names, logger)
	}

	if cfg.RequestsPerSecond > 0 {
		backend = NewRateLimitedBackend(backend, cfg.RequestsPerSecond, cfg.Burst)
	}

	logger.Info("llm.NewFromConfig: reasoning backend ready",
		zap.Strings("providers", names),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
	)
	return backend, nil
}
