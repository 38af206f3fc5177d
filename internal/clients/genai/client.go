package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kanishkaditya/DinemateBackend/internal/common/config"
	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/httpx"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// Client is a chat-completion client against an OpenAI-compatible endpoint.
// Transient upstream failures (5xx, 429) are retried with backoff; anything
// that survives the retries maps to CapabilityUnavailable.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *httpx.Client
	log     logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    httpx.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		log:     log.WithFields(map[string]interface{}{"component": "genai-client"}),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", apperrors.NewCompletionCapabilityError(err)
	}

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, retryable, err := c.attempt(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}

		c.log.Warn("completion attempt failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return "", apperrors.NewCompletionTimeoutError(ctx.Err().Error())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if ctx.Err() != nil {
		return "", apperrors.NewCompletionTimeoutError(ctx.Err().Error())
	}
	return "", apperrors.NewCompletionCapabilityError(lastErr)
}

// attempt runs a single request. The bool reports whether a failure is
// worth retrying.
func (c *Client) attempt(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("completion API returned %d", resp.StatusCode)
	default:
		return "", false, fmt.Errorf("completion API returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, err
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("completion API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}
