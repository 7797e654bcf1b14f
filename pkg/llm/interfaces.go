// Package llm provides streaming clients for the upstream generative-AI
// providers that produce SOP document content.
package llm

import (
	"context"

	"github.com/sopforge/sop-engine/pkg/models"
)

// Request is one upstream generation call: a system instruction, a content
// prompt, and an optional source document handed to the model natively.
type Request struct {
	System     string
	Prompt     string
	Attachment *models.Attachment
}

// StreamFunc receives each non-empty output segment as it arrives.
type StreamFunc func(text string)

// GenerationClient streams generated text from an upstream model.
// StreamGenerate blocks until the upstream stream completes, invoking
// onChunk for every segment, and returns a classified *Error on failure.
type GenerationClient interface {
	StreamGenerate(ctx context.Context, req *Request, onChunk StreamFunc) error
	Provider() string
	Model() string
}

// Config holds settings for constructing an upstream client.
type Config struct {
	BaseURL     string // OpenAI-compatible endpoint base URL; unused by anthropic
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
}
