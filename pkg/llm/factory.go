package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialSource resolves the upstream API key a user has saved, if any.
// An empty key with a nil error means the user has no key on file.
type CredentialSource interface {
	UpstreamAPIKey(ctx context.Context, userID uuid.UUID) (string, error)
}

// Factory creates generation clients bound to a user's credentials.
type Factory interface {
	// CreateForUser builds a client using the user's saved API key, falling
	// back to the process-wide default key. Returns ErrNoAPIKey when
	// neither is available.
	CreateForUser(ctx context.Context, userID uuid.UUID) (GenerationClient, error)
}

type clientFactory struct {
	provider    string
	cfg         Config
	credentials CredentialSource
	logger      *zap.Logger
}

// NewClientFactory creates a Factory for the configured provider.
// Supported providers are "openai" and "anthropic".
func NewClientFactory(provider string, cfg Config, credentials CredentialSource, logger *zap.Logger) (Factory, error) {
	switch provider {
	case "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	return &clientFactory{
		provider:    provider,
		cfg:         cfg,
		credentials: credentials,
		logger:      logger.Named("llm_factory"),
	}, nil
}

func (f *clientFactory) CreateForUser(ctx context.Context, userID uuid.UUID) (GenerationClient, error) {
	key, err := f.credentials.UpstreamAPIKey(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user credentials: %w", err)
	}
	if key == "" {
		key = f.cfg.APIKey
		if key == "" {
			return nil, ErrNoAPIKey
		}
		f.logger.Debug("Using default upstream credentials", zap.String("user_id", userID.String()))
	}

	cfg := f.cfg
	cfg.APIKey = key

	switch f.provider {
	case "anthropic":
		return NewAnthropicClient(&cfg, f.logger)
	default:
		return NewOpenAIClient(&cfg, f.logger)
	}
}
