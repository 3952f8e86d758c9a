package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartcampus/newsdigest/internal/metrics"
	"github.com/smartcampus/newsdigest/internal/news"
)

// Config carries the OpenAI-compatible backend settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client implements Generator against any OpenAI-compatible chat endpoint.
// No retry at this layer; retry policy, if any, belongs to the caller.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Generator = (*Client)(nil)

// NewClient builds a backend client. Timeout defaults to 60s when unset.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize asks the backend for one audience's digest of text. The backend
// is asked for structured JSON; free-form replies degrade to Text-only.
func (c *Client) Summarize(ctx context.Context, text string, audience news.Audience) (Summary, error) {
	content, err := c.chat(ctx, "summarize", []chatMessage{
		{Role: "system", Content: summarizeSystem(audience)},
		{Role: "user", Content: text + "\n请输出JSON。"},
	})
	if err != nil {
		return Summary{}, err
	}
	return parseSummary(content, c.logger), nil
}

// Answer asks the backend to answer question from the history briefs.
func (c *Client) Answer(ctx context.Context, history, question string, audience news.Audience) (string, error) {
	content, err := c.chat(ctx, "answer", []chatMessage{
		{Role: "system", Content: answerSystem(audience)},
		{Role: "user", Content: answerUser(history, question)},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) chat(ctx context.Context, op string, messages []chatMessage) (string, error) {
	metrics.GenerationCalls.WithLabelValues(op).Inc()

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%s: backend %s: %s", op, resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(parsed.Choices) == 0 {
		metrics.GenerationFailures.WithLabelValues(op).Inc()
		return "", fmt.Errorf("%s: backend returned no choices", op)
	}
	return parsed.Choices[0].Message.Content, nil
}

var bracePattern = regexp.MustCompile(`\{[\s\S]*\}`)

// parseSummary decodes the structured reply, extracting the first brace
// block when the backend wraps the JSON in prose or a code fence. Anything
// unparseable is kept verbatim as free-form text rather than discarded.
func parseSummary(content string, logger *zap.Logger) Summary {
	var s Summary
	if err := json.Unmarshal([]byte(content), &s); err == nil && s.Text != "" {
		return s
	}
	if snippet := bracePattern.FindString(content); snippet != "" {
		if err := json.Unmarshal([]byte(snippet), &s); err == nil && s.Text != "" {
			return s
		}
	}
	logger.Warn("backend reply not structured, keeping free-form text",
		zap.Int("length", len(content)))
	return Summary{Text: strings.TrimSpace(content)}
}
