package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient streams completions from the Anthropic Messages API.
// Unlike the OpenAI path it supports PDF and Word attachments natively
// through base64 document content blocks.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewAnthropicClient creates a streaming client for the Anthropic API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.Named("anthropic"),
	}, nil
}

var _ GenerationClient = (*AnthropicClient)(nil)

// StreamGenerate requests an incremental completion and relays every text
// delta to onChunk.
func (c *AnthropicClient) StreamGenerate(ctx context.Context, req *Request, onChunk StreamFunc) error {
	content := make([]anthropic.MessageContent, 0, 2)
	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		source := anthropic.NewMessageContentSource(
			anthropic.MessagesContentSourceTypeBase64,
			req.Attachment.MediaType,
			base64.StdEncoding.EncodeToString(req.Attachment.Data),
		)
		content = append(content, anthropic.NewDocumentMessageContent(source, req.Attachment.Filename, "", false))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Prompt))

	temperature := c.temperature
	start := time.Now()
	c.logger.Debug("Starting upstream stream",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Bool("attachment", req.Attachment != nil))

	var total int
	_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      req.System,
			MaxTokens:   c.maxTokens,
			Temperature: &temperature,
			Messages: []anthropic.Message{
				{Role: anthropic.RoleUser, Content: content},
			},
		},
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text != nil && *data.Delta.Text != "" {
				total += len(*data.Delta.Text)
				onChunk(*data.Delta.Text)
			}
		},
	})
	if err != nil {
		c.logger.Error("Upstream stream error", zap.Error(err))
		return Classify(err)
	}

	c.logger.Info("Upstream stream completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("content_length", total))

	return nil
}

// Provider implements GenerationClient.
func (c *AnthropicClient) Provider() string { return "anthropic" }

// Model implements GenerationClient.
func (c *AnthropicClient) Model() string { return c.model }
