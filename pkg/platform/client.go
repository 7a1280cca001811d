package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HTTPClient is a JSON client that retries transport errors and 5xx responses
// with exponential backoff.
type HTTPClient struct {
	Client  *http.Client
	Retries int
	Timeout time.Duration
	APIKey  string
	Logger  zerolog.Logger
}

func NewHTTPClient(retries int, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		Retries: retries,
		Timeout: timeout,
		Logger:  log.Logger,
	}
}

// GetJSON issues a GET request.
func (c *HTTPClient) GetJSON(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// PutJSON issues a PUT request with a JSON body.
func (c *HTTPClient) PutJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var resp *http.Response
	var err error

	for i := 0; i <= c.Retries; i++ {
		req, rErr := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if rErr != nil {
			return nil, rErr
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.APIKey != "" {
			req.Header.Set("X-API-Key", c.APIKey)
		}

		resp, err = c.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			// 4xx is not retried
			return resp, nil
		}

		if i < c.Retries {
			if err == nil {
				resp.Body.Close()
			}
			c.Logger.Warn().
				Str("url", url).
				Str("method", method).
				Int("attempt", i+1).
				Err(err).
				Msg("HTTP request failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<i) * 200 * time.Millisecond):
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.Retries, err)
	}
	return resp, nil // last response even if 5xx
}
