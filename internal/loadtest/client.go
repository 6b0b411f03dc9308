package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/gradepulse/internal/domain/model"
)

// Outcome is the server's answer to one POST /uploads.
type Outcome int

// Submission outcomes.
const (
	OutcomeFailed Outcome = iota
	OutcomeAccepted
	OutcomeDuplicate
	OutcomeThrottled
)

// Client talks to the GradePulse HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// PostUpload submits one upload.
func (c *Client) PostUpload(ctx context.Context, u model.UploadRecord) (Outcome, error) { //nolint:gocritic // hugeParam: value semantics
	body, err := json.Marshal(u)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to marshal upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", bytes.NewReader(body))
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("request failed: %w", err)
	}
	data, err := readBody(resp)
	if err != nil {
		return OutcomeFailed, err
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		return OutcomeAccepted, nil
	case http.StatusOK:
		if gjson.GetBytes(data, "duplicate").Bool() {
			return OutcomeDuplicate, nil
		}
		return OutcomeAccepted, nil
	case http.StatusTooManyRequests:
		return OutcomeThrottled, nil
	default:
		return OutcomeFailed, fmt.Errorf("HTTP %d: %s", resp.StatusCode, gjson.GetBytes(data, "message").String())
	}
}

// Get fetches path and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return data, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
