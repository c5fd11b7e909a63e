package email

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

// Config configures the HTTP transactional-email provider.
type Config struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// HTTPProvider posts messages to a transactional-email API. The provider
// answers JSON with an id on success and an error/message field otherwise.
type HTTPProvider struct {
	cfg    Config
	client *http.Client
}

func NewHTTP(cfg Config) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type sendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (p *HTTPProvider) Send(ctx context.Context, msg Message) (*Receipt, error) {
	body, err := json.Marshal(sendPayload{
		From:    p.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return nil, fmt.Errorf("encode email payload: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed sendResponse
	_ = json.Unmarshal(raw, &parsed)

	providerMessage := parsed.Message
	if providerMessage == "" {
		providerMessage = parsed.Error
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if providerMessage == "" {
			providerMessage = fmt.Sprintf("email provider returned status %d", resp.StatusCode)
		}
		return &Receipt{Success: false, Message: providerMessage}, nil
	}

	// 2xx with an explicit application-level failure flag still counts as
	// a failed send.
	if parsed.Success != nil && !*parsed.Success {
		if providerMessage == "" {
			providerMessage = "email provider reported failure"
		}
		return &Receipt{Success: false, Message: providerMessage}, nil
	}

	return &Receipt{Success: true, MessageID: parsed.ID, Message: providerMessage}, nil
}
