// Package chat implements the Chat Adapter: a thin client over a generic
// chat-completion HTTP endpoint (spec.md §6). It is deliberately provider
// agnostic — the engine only needs {content, input_tokens, output_tokens}
// back.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Config configures the Chat Adapter's HTTP endpoint, credentials, and
// outbound rate limit. Loaded from the environment, mirroring
// pkg/database/config.go's getEnvOrDefault + Validate() shape.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	Timeout        time.Duration
	RequestsPerSec float64
}

// LoadConfigFromEnv loads Chat Adapter configuration from the process
// environment. CHAT_API_KEY is required; its absence is a fatal start-up
// error per spec.md §6.
func LoadConfigFromEnv() (Config, error) {
	apiKey := os.Getenv("CHAT_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("CHAT_API_KEY is required")
	}

	rps := 5.0
	if v := os.Getenv("CHAT_REQUESTS_PER_SEC"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHAT_REQUESTS_PER_SEC: %w", err)
		}
		rps = parsed
	}

	timeout := 30 * time.Second
	if v := os.Getenv("CHAT_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHAT_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	return Config{
		Endpoint:       getEnvOrDefault("CHAT_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		APIKey:         apiKey,
		Model:          getEnvOrDefault("CHAT_MODEL", "gpt-4o-mini"),
		Timeout:        timeout,
		RequestsPerSec: rps,
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// Message is one entry in a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input to one Chat Adapter call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is a single chat-completion reply plus its token accounting.
type Response struct {
	Content         string
	InputTokens     int
	OutputTokens    int
}

// Client calls the external chat-completion endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Chat Adapter client with a bounded outbound rate,
// grounded on teradata-labs-loom's web_search.go env-configured
// *http.Client shape.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

type apiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type apiResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete issues one chat-completion call and returns the reply content
// plus token usage.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("chat rate limiter: %w", err)
	}

	body, err := json.Marshal(apiRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat endpoint returned no choices")
	}

	return &Response{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
