package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama wire types for the native /api/chat endpoint.

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// maxErrorBodySize caps how much of an error response body is read.
const maxErrorBodySize = 4096

// OllamaConfig holds the Ollama client settings.
type OllamaConfig struct {
	// Endpoint is the base URL of the Ollama server.
	Endpoint string

	// Model is the model identifier (e.g. "openchat:7b").
	Model string

	// Timeout bounds one completion round trip. Zero means no client
	// timeout beyond the caller's context.
	Timeout time.Duration
}

// Ollama is an Invoker backed by the Ollama native chat API.
type Ollama struct {
	config OllamaConfig
	client *http.Client
}

// Interface guard.
var _ Invoker = (*Ollama)(nil)

// NewOllama builds an Ollama invoker from config.
func NewOllama(cfg OllamaConfig) *Ollama {
	return &Ollama{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// ModelName implements Invoker.
func (o *Ollama) ModelName() string {
	return o.config.Model
}

// Complete implements Invoker. The whole prompt travels as a single user
// message; persona and memory are already baked into the prompt text.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	body := ollamaRequest{
		Model: o.config.Model,
		Messages: []ollamaMessage{
			{Role: "user", Content: prompt},
		},
		Stream: false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(o.config.Endpoint, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		// Caller cancellation is not a backend failure.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrBackendDown, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: status %d: %s", ErrBackendDown, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}

	if parsed.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrBackendDown, parsed.Error)
	}
	if parsed.Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Message.Content, nil
}
