package summarizer

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

// Vehicle is the payload posted to the summarization endpoint.
type Vehicle struct {
	Brand         string   `json:"brand"`
	Type          string   `json:"type"`
	Model         string   `json:"model"`
	Color         string   `json:"color"`
	ChassisNumber string   `json:"chassisNumber"`
	Mileage       int64    `json:"mileage"`
	Notes         string   `json:"notes"`
	Images        []string `json:"images,omitempty"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
	Text    string `json:"text"`
}

// Client calls an external HTTP summarization service.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewClient builds a client posting to url. A zero timeout falls back to 20s.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Summarize posts the vehicle and returns the descriptive text.
func (c *Client) Summarize(ctx context.Context, v Vehicle) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode summary request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call summarizer: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read summary response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarizer returned status %d", resp.StatusCode)
	}

	var out summaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	text := strings.TrimSpace(out.Summary)
	if text == "" {
		text = strings.TrimSpace(out.Text)
	}
	if text == "" {
		return "", fmt.Errorf("summarizer returned empty text")
	}
	return text, nil
}
