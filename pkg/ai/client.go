package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
	"resume-studio/pkg/ai/formatters"
)

// Client calls the internal ai-service chat endpoint to draft resume content.
type Client struct {
	BaseURL         string
	HTTP            *http.Client
	DefaultLanguage string
	Attempts        int
	// Backoff is the delay before the second attempt; it doubles after
	// every failure.
	Backoff time.Duration
}

func NewClient(baseURL, language string) *Client {
	if baseURL == "" {
		baseURL = "http://ai-service:8000"
	}
	return &Client{
		BaseURL:         baseURL,
		HTTP:            &http.Client{Timeout: 60 * time.Second},
		DefaultLanguage: language,
		Attempts:        3,
		Backoff:         time.Second,
	}
}

// Formatter factories. Both formatters share this client's transport.

func (c *Client) NewFieldsFormatter() *formatters.FieldsFormatter {
	return formatters.NewFieldsFormatter(c, c.DefaultLanguage)
}

func (c *Client) NewDocumentFormatter() *formatters.DocumentFormatter {
	return formatters.NewDocumentFormatter(c, c.DefaultLanguage)
}

// GenerateResumeData drafts tag-keyed resume data for the given vocabulary.
func (c *Client) GenerateResumeData(ctx context.Context, req formatters.FieldsRequest) (model.ResumeData, error) {
	return c.NewFieldsFormatter().Format(ctx, req)
}

// GenerateDocument drafts a complete document tree from a prompt.
func (c *Client) GenerateDocument(ctx context.Context, prompt string) (*doctree.Node, error) {
	return c.NewDocumentFormatter().Format(ctx, prompt)
}

// doPostWithRetry performs an HTTP POST to the given path with retry/backoff.
// Transport errors and 5xx responses are retried.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("ai-service returned status %d", resp.StatusCode)
		}
		lastErr = err
		// exponential backoff before retrying
		if i < attempts-1 {
			backoff := c.Backoff * time.Duration(1<<i)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// Chat sends input to /v1/chat and returns the agent's raw output.
func (c *Client) Chat(ctx context.Context, input string) (string, error) {
	b, err := json.Marshal(map[string]interface{}{"agent": "auto", "input": input})
	if err != nil {
		return "", err
	}
	slog.Debug("ai chat request", "url", c.BaseURL+"/v1/chat", "bytes", len(b))

	resp, err := c.doPostWithRetry(ctx, "/v1/chat", b)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	slog.Debug("ai chat response", "status", resp.StatusCode, "bytes", len(respBytes))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai-service returned non-200 status: %d", resp.StatusCode)
	}

	var chatResp struct {
		Agent  string `json:"agent"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return chatResp.Output, nil
}
