package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HealthChecker probes {base}/health of one upstream service.
type HealthChecker struct {
	httpClient *http.Client
	baseURL    string
	setting    string
}

// NewHealthChecker builds a checker; setting names the config value for
// the error message when baseURL is empty.
func NewHealthChecker(httpClient *http.Client, baseURL, setting string) *HealthChecker {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HealthChecker{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		setting:    setting,
	}
}

func (h *HealthChecker) Check(ctx context.Context) error {
	if h.baseURL == "" {
		return fmt.Errorf("missing %s", h.setting)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}
