package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient streams completions from any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewOpenAIClient creates a streaming client for an OpenAI-compatible
// endpoint.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.Named("openai"),
	}, nil
}

var _ GenerationClient = (*OpenAIClient)(nil)

// StreamGenerate requests an incremental completion and relays every
// non-empty delta to onChunk. An attachment is passed as a base64 data URL
// content part, which OpenAI-compatible multimodal endpoints accept.
func (c *OpenAIClient) StreamGenerate(ctx context.Context, req *Request, onChunk StreamFunc) error {
	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.Attachment.MediaType,
			base64.StdEncoding.EncodeToString(req.Attachment.Data))
		userMsg.MultiContent = []openai.ChatMessagePart{
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
			},
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
		}
	} else {
		userMsg.Content = req.Prompt
	}

	start := time.Now()
	c.logger.Debug("Starting upstream stream",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Bool("attachment", req.Attachment != nil))

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			userMsg,
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      true,
	})
	if err != nil {
		c.logger.Error("Failed to open upstream stream", zap.Error(err))
		return Classify(err)
	}
	defer stream.Close()

	var total int
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			c.logger.Error("Upstream stream receive error", zap.Error(err))
			return Classify(err)
		}

		if len(response.Choices) == 0 {
			continue
		}
		if text := response.Choices[0].Delta.Content; text != "" {
			total += len(text)
			onChunk(text)
		}
	}

	c.logger.Info("Upstream stream completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("content_length", total))

	return nil
}

// Provider implements GenerationClient.
func (c *OpenAIClient) Provider() string { return "openai" }

// Model implements GenerationClient.
func (c *OpenAIClient) Model() string { return c.model }
