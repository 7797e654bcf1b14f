// Package client provides a Go consumer for the sop-engine generation
// stream, handling the in-band framing protocol and the post-stream
// corrective write.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/retry"
)

// DefaultTimeout bounds a whole generation attempt, including streaming.
const DefaultTimeout = 5 * time.Minute

// Result is a completed generation: the record id announced at stream start
// and the accumulated document with all framing stripped.
type Result struct {
	SOPID   string
	Content string
}

// APIError is a structured failure from the server, either a pre-stream
// JSON error response or an in-band stream error marker.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// Client consumes the sop-engine API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the given server, authenticating with the bearer
// token.
func New(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.Named("sop_client"),
	}
}

// Generate submits a generation request and consumes the stream to
// completion. On success it issues one corrective PATCH writing the
// accumulated content back, covering the case where the server's own
// finalize was lost; a PATCH failure is logged, not returned, since the
// document content is already in hand.
func (c *Client) Generate(ctx context.Context, input models.GenerateInput) (*Result, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sops", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil, decodeAPIError(resp)
	}

	result, err := consumeStream(resp.Body)
	if err != nil {
		return nil, err
	}

	c.correctiveWrite(ctx, result)
	return result, nil
}

// consumeStream reads the framed stream: id line first, then content, then
// exactly one terminal marker. The terminal marker may arrive glued to the
// final content chunk, so markers are detected on the fully accumulated
// text after the body closes.
func consumeStream(body io.Reader) (*Result, error) {
	reader := bufio.NewReader(body)

	idLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("stream ended before id line: %w", err)
	}
	idLine = strings.TrimRight(idLine, "\n")
	if !strings.HasPrefix(idLine, models.SOPIDMarker) {
		return nil, fmt.Errorf("malformed stream: missing id line")
	}
	sopID := strings.TrimPrefix(idLine, models.SOPIDMarker)

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("stream read failed: %w", err)
	}
	accumulated := string(raw)

	if idx := strings.LastIndex(accumulated, models.ErrorMarkerPrefix); idx >= 0 {
		code := strings.TrimSpace(accumulated[idx+len(models.ErrorMarkerPrefix):])
		return nil, &APIError{Code: code, Status: http.StatusOK}
	}

	idx := strings.LastIndex(accumulated, models.StreamDoneMarker)
	if idx < 0 {
		return nil, fmt.Errorf("stream ended without terminal marker")
	}
	content := strings.TrimRight(accumulated[:idx], "\n")

	return &Result{SOPID: sopID, Content: content}, nil
}

// correctiveWrite patches the accumulated content back onto the record.
// Transport failures are retried with backoff; a response from the server,
// even a rejection, ends the attempt.
func (c *Client) correctiveWrite(ctx context.Context, result *Result) {
	payload, err := json.Marshal(map[string]string{"generatedContent": result.Content})
	if err != nil {
		c.logger.Warn("Failed to encode corrective write", zap.Error(err))
		return
	}

	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
			c.baseURL+"/api/sops/"+result.SOPID, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			c.logger.Warn("Corrective write rejected",
				zap.String("sop_id", result.SOPID),
				zap.Int("status", resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("Corrective write failed",
			zap.String("sop_id", result.SOPID),
			zap.Error(err))
	}
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return &APIError{Code: payload.Error, Message: payload.Message, Status: resp.StatusCode}
}
