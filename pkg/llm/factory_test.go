package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCredentials struct {
	key string
	err error
}

func (s *stubCredentials) UpstreamAPIKey(_ context.Context, _ uuid.UUID) (string, error) {
	return s.key, s.err
}

func TestNewClientFactory_UnsupportedProvider(t *testing.T) {
	_, err := NewClientFactory("cohere", Config{}, &stubCredentials{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestClientFactory_UserKeyPreferred(t *testing.T) {
	factory, err := NewClientFactory("openai", Config{
		BaseURL: "https://api.example.com/v1",
		Model:   "gpt-4o",
		APIKey:  "server-key",
	}, &stubCredentials{key: "user-key"}, zap.NewNop())
	require.NoError(t, err)

	client, err := factory.CreateForUser(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Provider())
	assert.Equal(t, "gpt-4o", client.Model())
}

func TestClientFactory_FallsBackToServerKey(t *testing.T) {
	factory, err := NewClientFactory("anthropic", Config{
		Model:  "claude-sonnet-4-5-20250929",
		APIKey: "server-key",
	}, &stubCredentials{}, zap.NewNop())
	require.NoError(t, err)

	client, err := factory.CreateForUser(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Provider())
}

func TestClientFactory_NoKeyAnywhere(t *testing.T) {
	factory, err := NewClientFactory("openai", Config{
		BaseURL: "https://api.example.com/v1",
		Model:   "gpt-4o",
	}, &stubCredentials{}, zap.NewNop())
	require.NoError(t, err)

	_, err = factory.CreateForUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClientFactory_CredentialLookupFailure(t *testing.T) {
	lookupErr := errors.New("connection refused")
	factory, err := NewClientFactory("openai", Config{
		BaseURL: "https://api.example.com/v1",
		Model:   "gpt-4o",
		APIKey:  "server-key",
	}, &stubCredentials{err: lookupErr}, zap.NewNop())
	require.NoError(t, err)

	_, err = factory.CreateForUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, lookupErr)
}
