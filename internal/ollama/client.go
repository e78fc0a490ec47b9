// Package ollama talks to a local Ollama server through its chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/souli/internal/llm"
)

const backend = "ollama"

type Client struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

func NewClient(baseURL, model string, temperature float64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Complete runs a non-streaming chat with a system and a user message.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  false,
		Options: chatOptions{Temperature: c.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &llm.TransportError{Backend: backend, Err: fmt.Errorf("chat call: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.TransportError{Backend: backend, Err: fmt.Errorf("read response: %w", err)}
	}

	var chat chatResponse
	decodeErr := json.Unmarshal(respBody, &chat)

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if decodeErr == nil && chat.Error != "" {
			msg = chat.Error
		}
		return "", &llm.TransportError{Backend: backend, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return "", &llm.TransportError{Backend: backend, Err: fmt.Errorf("unmarshal response: %w", decodeErr)}
	}
	if chat.Message.Content == "" {
		return "", &llm.TransportError{Backend: backend, Err: errors.New("empty response content")}
	}
	return chat.Message.Content, nil
}
