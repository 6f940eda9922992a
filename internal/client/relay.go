package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talktotj/chat/backend/internal/model/chat"
)

// ChatPath is the relay route on the server.
const ChatPath = "/api/chat"

// APIError is a structured failure returned by the relay endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Client posts messages to a relay server.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. timeout bounds each request.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		url:        strings.TrimRight(baseURL, "/") + ChatPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send relays one message and returns the assistant reply.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(chat.RelayRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody chat.ErrorResponse
		if err := json.Unmarshal(body, &errBody); err != nil || errBody.Error == "" {
			return "", &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: errBody.Error, Details: errBody.Details}
	}

	var parsed chat.RelayResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse relay response: %w", err)
	}
	return parsed.Response, nil
}
