package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ms-ordering/internal/logger"
)

// GatewaySender posts messages to a generic JSON SMS gateway.
type GatewaySender struct {
	BaseURL    string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

type gatewayRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

type gatewayResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

func NewGatewaySender(baseURL, apiKey, from string, timeout time.Duration) *GatewaySender {
	return &GatewaySender{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		From:       from,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (g *GatewaySender) Send(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(gatewayRequest{To: phone, From: g.From, Message: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out gatewayResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("gateway rejected message: %s", out.Message)
	}
	return nil
}

// LogSender is used when no gateway is configured.
type LogSender struct {
	Log *logger.Logger
}

func (s LogSender) Send(_ context.Context, phone, text string) error {
	s.Log.Info("SMS", fmt.Sprintf("dry-run to %s: %s", phone, text))
	return nil
}
