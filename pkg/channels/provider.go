package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeoutSeconds = 30
	maxResponseBytes      = 1 << 20
)

// RetryConfig defines retry behavior for provider calls. Only transport
// failures and 5xx responses are retried.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// ProviderClient calls one external provider API. Adapters share it for
// timeout and retry handling so each adapter only shapes requests and
// responses.
type ProviderClient struct {
	BaseURL string
	Retry   RetryConfig

	client *http.Client
}

// NewProviderClient creates a provider client from adapter configuration.
// Unset fields fall back to a 30s timeout and a single attempt.
func NewProviderClient(baseURL string, timeout time.Duration, retry RetryConfig) *ProviderClient {
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}

	if retry.Attempts < 1 {
		retry.Attempts = 1
	}

	return &ProviderClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Retry:   retry,
		client:  &http.Client{Timeout: timeout},
	}
}

// PostForm sends a form-encoded POST and decodes the JSON response into out.
func (p *ProviderClient) PostForm(ctx context.Context, path string, form url.Values, headers map[string]string, out any) (int, error) {
	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		for k, v := range headers {
			req.Header.Set(k, v)
		}

		return req, nil
	}

	return p.do(ctx, build, out)
}

// PostJSON sends a JSON POST and decodes the JSON response into out.
func (p *ProviderClient) PostJSON(ctx context.Context, path string, body any, headers map[string]string, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")

		for k, v := range headers {
			req.Header.Set(k, v)
		}

		return req, nil
	}

	return p.do(ctx, build, out)
}

func (p *ProviderClient) do(ctx context.Context, build func() (*http.Request, error), out any) (int, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= p.Retry.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return lastStatus, ctx.Err()
			case <-time.After(p.Retry.Delay):
			}
		}

		req, err := build()
		if err != nil {
			return 0, fmt.Errorf("failed to build provider request: %w", err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("provider request failed: %w", err)

			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read provider response: %w", err)
			lastStatus = resp.StatusCode

			continue
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode >= http.StatusInternalServerError && attempt < p.Retry.Attempts {
			lastErr = fmt.Errorf("provider returned status %d", resp.StatusCode)

			continue
		}

		if out != nil && len(body) > 0 {
			err = json.Unmarshal(body, out)
			if err != nil && resp.StatusCode < http.StatusBadRequest {
				return resp.StatusCode, fmt.Errorf("failed to decode provider response: %w", err)
			}
		}

		return resp.StatusCode, nil
	}

	return lastStatus, lastErr
}
