package retailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 3
	defaultLimit       = 10
	userAgent          = "GiftLens/1.0"
)

// errNoResults marks a 404 from a catalog API, which means "nothing matched"
var errNoResults = errors.New("no results")

// Option configures a retailer client
type Option func(*httpCore)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpCore) {
		c.httpClient = client
	}
}

// WithRateLimit sets the outbound request rate (requests per second) and burst
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpCore) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBackoff replaces the retry delay schedule
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(c *httpCore) {
		c.backoff = backoff
	}
}

// httpCore is the request loop shared by every retailer adapter
type httpCore struct {
	name        string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

func newHTTPCore(name string, opts ...Option) *httpCore {
	c := &httpCore{
		name: name,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Limit(5), 10),
		maxAttempts: defaultMaxAttempts,
		backoff:     exponentialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// getJSON performs a GET with retries and decodes a 200 body into out.
// A 404 yields errNoResults; other failures wrap domain.ErrRetailerFailure.
func (c *httpCore) getJSON(ctx context.Context, reqURL string, header http.Header, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("retailer", c.name).Int("attempt", attempt).Msg("request error")
			lastErr = fmt.Errorf("%w: %s: %v", domain.ErrRetailerFailure, c.name, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("%w: %s: read body: %v", domain.ErrRetailerFailure, c.name, readErr)
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: %s: decode response: %v", domain.ErrRetailerFailure, c.name, err)
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return errNoResults
		case isRetryable(resp.StatusCode):
			log.Warn().
				Str("retailer", c.name).
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("retryable API error")
			lastErr = fmt.Errorf("%w: %s: status %d", domain.ErrRetailerFailure, c.name, resp.StatusCode)
		default:
			return fmt.Errorf("%w: %s: status %d: %s", domain.ErrRetailerFailure, c.name, resp.StatusCode, truncate(string(body), 200))
		}
	}

	log.Error().Err(lastErr).Str("retailer", c.name).Msg("all retries failed")
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func clampLimit(limit, max int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}
