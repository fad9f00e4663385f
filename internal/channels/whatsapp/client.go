package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/casebridge/intake-platform/internal/intake"
	"github.com/casebridge/intake-platform/pkg/logging"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v20.0"
	defaultHTTPTimeout  = 10 * time.Second
	defaultMaxAttempts  = 3
)

// Client sends messages via the WhatsApp Cloud API, retrying transient
// failures with jittered backoff.
type Client struct {
	accessToken   string
	phoneNumberID string
	graphAPIBase  string
	maxAttempts   int
	httpClient    *http.Client
	logger        *logging.Logger
}

// ClientConfig holds Cloud API sender configuration.
type ClientConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	MaxAttempts   int
	Logger        *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGraphAPIBase
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		graphAPIBase:  strings.TrimRight(base, "/"),
		maxAttempts:   attempts,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:        logger,
	}
}

var _ intake.Dispatcher = (*Client)(nil)

// Send dispatches a text message to the recipient, retrying transient
// failures. Client errors from the API (4xx) are not retried.
func (c *Client) Send(ctx context.Context, to, body string) error {
	if c.accessToken == "" {
		return errors.New("whatsapp: access token missing")
	}
	if to == "" {
		return errors.New("whatsapp: recipient required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("whatsapp: body required")
	}

	payload, err := json.Marshal(SendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &SendText{Body: body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, c.phoneNumberID)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed SendResponse
				messageID := ""
				if json.Unmarshal(respBody, &parsed) == nil && len(parsed.Messages) > 0 {
					messageID = parsed.Messages[0].ID
				}
				c.logger.Info("whatsapp message sent", "to", to, "message_id", messageID)
				return nil
			}

			var parsed SendResponse
			if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
				lastErr = fmt.Errorf("whatsapp: API error %d: %s", parsed.Error.Code, parsed.Error.Message)
			} else {
				lastErr = fmt.Errorf("whatsapp: send failed: status %d", resp.StatusCode)
			}

			// 4xx means the request itself is wrong; retrying won't help.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
		}

		if attempt < c.maxAttempts {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}
	}

	if lastErr != nil {
		c.logger.Error("failed to send whatsapp message", "error", lastErr, "to", to)
	}
	return lastErr
}
