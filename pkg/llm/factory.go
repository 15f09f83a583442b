package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/config"
)

// New builds the provider named by cfg and wraps it with rate limiting and
// retries.
func New(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base Completer
	switch cfg.Provider {
	case config.ProviderGemini, "":
		g, err := NewGemini(ctx, cfg, nil, logger)
		if err != nil {
			return nil, err
		}
		base = g
	case config.ProviderOpenAI:
		o, err := NewOpenAI(cfg, nil, logger)
		if err != nil {
			return nil, err
		}
		base = o
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}

	return NewResilient(base,
		WithRequestsPerMinute(cfg.RequestsPerMinute),
		WithMaxElapsed(cfg.RetryMaxElapsed),
		WithAttemptTimeout(cfg.Timeout),
		WithRetryLogger(logger),
	), nil
}
