// Package consoleclient is a typed client for the GovAI console gateway,
// for operators and scripts that would otherwise drive it with curl.
package consoleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
)

type (
	Summary          = decisions.Summary
	Detail           = decisions.Detail
	Status           = decisions.Status
	ReviewSubmission = decisions.ReviewSubmission
	ReviewResult     = decisions.ReviewResult
	GenerateRequest  = decisions.GenerateRequest
	GenerateResponse = decisions.GenerateResponse
)

// APIError is a non-2xx answer from the gateway or, relayed, from upstream.
type APIError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the gateway at baseURL. A nil httpClient gets a
// 90s timeout, above the gateway's own upstream deadline.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// ListDecisions returns a tenant's decisions. A payload that is not a JSON
// array is treated as an empty list.
func (c *Client) ListDecisions(ctx context.Context, tenantID string, status Status, limit int) ([]Summary, error) {
	q := url.Values{}
	q.Set("tenant_id", tenantID)
	if status != "" {
		q.Set("status", string(status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	raw, err := c.do(ctx, http.MethodGet, "/decisions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out []Summary
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []Summary{}, nil
	}
	return out, nil
}

func (c *Client) DecisionDetail(ctx context.Context, decisionID string) (*Detail, error) {
	raw, err := c.do(ctx, http.MethodGet, "/decisions/"+url.PathEscape(decisionID), nil)
	if err != nil {
		return nil, err
	}
	var d Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode decision detail: %w", err)
	}
	return &d, nil
}

func (c *Client) SubmitReview(ctx context.Context, decisionID string, sub ReviewSubmission) (*ReviewResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/decisions/"+url.PathEscape(decisionID), body)
	if err != nil {
		return nil, err
	}
	var res ReviewResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode review result: %w", err)
	}
	return &res, nil
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/generate", body)
	if err != nil {
		return nil, err
	}
	var res GenerateResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: raw}
		var d struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(raw, &d) == nil {
			switch v := d.Detail.(type) {
			case string:
				apiErr.Detail = v
			case nil:
			default:
				b, _ := json.Marshal(v)
				apiErr.Detail = string(b)
			}
		}
		return nil, apiErr
	}
	return raw, nil
}
