package save

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/smazurov/docscan/internal/version"
)

const maxResponseBytes = 1 << 20

// ClientOptions configures an HTTP save client.
type ClientOptions struct {
	Endpoint string
	Timeout  time.Duration
	// Retries is the number of extra attempts after a transport failure.
	Retries   int
	RetryWait time.Duration
	Logger    *slog.Logger
}

// Client posts save requests as JSON.
type Client struct {
	endpoint string
	http     *retryablehttp.Client
	logger   *slog.Logger
}

// NewClient creates a save client for opts.Endpoint.
//
// Only transport errors are retried. Any HTTP response, including a 5xx,
// is treated as the server's answer because the POST is not idempotent.
func NewClient(opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(opts.Retries, 0)
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 4 * opts.RetryWait
	}
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.Logger = logger
	rc.CheckRetry = retryTransportOnly

	return &Client{
		endpoint: opts.Endpoint,
		http:     rc,
		logger:   logger,
	}
}

func retryTransportOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Save implements Saver.
func (c *Client) Save(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode save request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSaveTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSaveTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %w", ErrSaveTransport, err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("%w: invalid response (status %d): %w", ErrSaveTransport, resp.StatusCode, err)
	}

	c.logger.Debug("Save endpoint answered",
		"status", resp.StatusCode,
		"success", result.Success,
		"duration", time.Since(start))

	if !result.Success {
		return result, &RejectedError{Reason: result.Error, StatusCode: resp.StatusCode}
	}
	return result, nil
}
