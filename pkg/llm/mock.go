package llm

import (
	"context"

	"github.com/google/uuid"
)

// MockClient is a mock implementation of GenerationClient for testing.
type MockClient struct {
	StreamGenerateFunc func(ctx context.Context, req *Request, onChunk StreamFunc) error
	ProviderValue      string
	ModelValue         string
}

var _ GenerationClient = (*MockClient)(nil)

func (m *MockClient) StreamGenerate(ctx context.Context, req *Request, onChunk StreamFunc) error {
	if m.StreamGenerateFunc != nil {
		return m.StreamGenerateFunc(ctx, req, onChunk)
	}
	return nil
}

func (m *MockClient) Provider() string {
	if m.ProviderValue != "" {
		return m.ProviderValue
	}
	return "mock"
}

func (m *MockClient) Model() string {
	if m.ModelValue != "" {
		return m.ModelValue
	}
	return "mock-model"
}

// MockFactory is a mock implementation of Factory for testing.
type MockFactory struct {
	CreateForUserFunc func(ctx context.Context, userID uuid.UUID) (GenerationClient, error)
}

var _ Factory = (*MockFactory)(nil)

func (m *MockFactory) CreateForUser(ctx context.Context, userID uuid.UUID) (GenerationClient, error) {
	if m.CreateForUserFunc != nil {
		return m.CreateForUserFunc(ctx, userID)
	}
	return &MockClient{}, nil
}
