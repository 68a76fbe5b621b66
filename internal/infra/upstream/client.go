package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
	"github.com/Revaldoo24/govai-platform/internal/metrics"
)

// Upper bound on an upstream body; pipeline answers with sources stay well below.
const maxBodyBytes = 8 << 20

// Client implements gateway.Upstream over HTTP.
// Calls are never retried and responses are never cached.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient wraps httpClient. timeout bounds each call; zero means the
// inbound context is the only deadline.
func NewClient(httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, timeout: timeout}
}

func (c *Client) Do(ctx context.Context, call gateway.Call) (*gateway.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, gateway.Transport(fmt.Errorf("build %s request: %w", call.Operation, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if len(call.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := gateway.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(string(call.Target), call.Operation, 0, time.Since(start))
		return nil, classify(ctx, call, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Ctx(ctx).Warn().Err(closeErr).Str("operation", call.Operation).Msg("failed to close upstream body")
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordUpstream(string(call.Target), call.Operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, classify(ctx, call, err)
	}

	if !json.Valid(respBody) {
		return nil, gateway.Transport(fmt.Errorf("%s: %w (status %d)", call.Operation, gateway.ErrNonJSONResponse, resp.StatusCode))
	}

	return &gateway.Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func classify(ctx context.Context, call gateway.Call, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return gateway.Timeout(fmt.Errorf("%s %s: %w", call.Method, call.URL, err))
	}
	return gateway.Transport(fmt.Errorf("%s %s: %w", call.Method, call.URL, err))
}
