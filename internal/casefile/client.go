package casefile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casebridge/intake-platform/internal/intake"
)

const defaultHTTPTimeout = 10 * time.Second

// Client submits finished intakes to the case management backend.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetHTTPClient overrides the HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

type submitRequest struct {
	SenderID        string            `json:"sender_id"`
	Language        string            `json:"language"`
	CollectedFields map[string]string `json:"collected_fields"`
}

type submitResponse struct {
	CaseID string `json:"case_id"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Submit posts the intake payload and returns the case identifier assigned
// by the backend.
func (c *Client) Submit(ctx context.Context, sub intake.CaseSubmission) (string, error) {
	body, err := json.Marshal(submitRequest{
		SenderID:        sub.SenderID,
		Language:        sub.Language,
		CollectedFields: sub.Fields,
	})
	if err != nil {
		return "", fmt.Errorf("casefile: marshal submission: %w", err)
	}

	url := c.baseURL + "/v1/cases"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("casefile: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("casefile: submit case: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("casefile: read response: %w", err)
	}

	var submitResp submitResponse
	if err := json.Unmarshal(respBody, &submitResp); err != nil {
		return "", fmt.Errorf("casefile: unmarshal response: %w", err)
	}

	if submitResp.Error != nil {
		return "", fmt.Errorf("casefile: API error %d: %s", submitResp.Error.Code, submitResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("casefile: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if submitResp.CaseID == "" {
		return "", fmt.Errorf("casefile: backend returned no case id")
	}

	return submitResp.CaseID, nil
}
