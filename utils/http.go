package utils

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"shopify-catalog/internal/types"
)

// HTTPClient provides HTTP functionality with rate limiting and retries
type HTTPClient struct {
	client  *resty.Client
	config  *types.Config
	logger  types.Logger
	limiter *time.Ticker
}

// NewHTTPClient creates a new HTTP client with the given configuration.
// Transport errors, 429 and 5xx responses are retried up to MaxRetries
// times; other statuses are returned to the caller immediately.
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := resty.New().
		SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}).
		SetTimeout(config.Timeout).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(config.RequestDelay).
		SetRetryMaxWaitTime(10*config.RequestDelay + time.Second).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTPClient{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: time.NewTicker(config.RequestDelay),
	}
}

// Get performs a GET request with rate limiting and retries
func (h *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	if err := h.wait(ctx); err != nil {
		return nil, err
	}

	h.logger.Debugf("Making request to %s", url)
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8").
		Get(url)
	return h.body(url, resp, err)
}

// PostJSON sends body as JSON and returns the raw response body
func (h *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, body interface{}) ([]byte, error) {
	if err := h.wait(ctx); err != nil {
		return nil, err
	}

	h.logger.Debugf("Posting to %s", url)
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(url)
	return h.body(url, resp, err)
}

func (h *HTTPClient) wait(ctx context.Context) error {
	select {
	case <-h.limiter.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HTTPClient) body(url string, resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		h.logger.Warnf("Request to %s failed: %v", url, err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		h.logger.Warnf("Unexpected status code %d from %s", resp.StatusCode(), url)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	h.logger.Debugf("Successfully retrieved %d bytes from %s", len(resp.Body()), url)
	return resp.Body(), nil
}

// Close cleans up resources
func (h *HTTPClient) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}
