package linkcheck

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	verdictBad  = "bad"
	verdictGood = "ok"
	keyPrefix   = "linkcheck:"
)

// Config controls probe timeouts and verdict caching
type Config struct {
	Timeout time.Duration
	TTL     time.Duration
}

// Checker probes product links and caches the verdicts
type Checker struct {
	httpClient *http.Client
	cache      domain.CacheRepository
	ttl        time.Duration
}

// NewChecker creates a link checker. cache may be nil to disable caching.
func NewChecker(cfg Config, cache domain.CacheRepository) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 6 * time.Hour
	}
	return &Checker{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		cache: cache,
		ttl:   cfg.TTL,
	}
}

// IsBad reports whether rawURL is unusable. Empty and non-http(s) URLs are
// bad without a request; otherwise status >= 400 or a transport error is bad.
func (c *Checker) IsBad(ctx context.Context, rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if !isHTTPURL(rawURL) {
		return true
	}

	key := keyPrefix + rawURL
	if c.cache != nil {
		if v, err := c.cache.Get(ctx, key); err == nil {
			return string(v) == verdictBad
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn().Err(err).Msg("link verdict cache read failed")
		}
	}

	bad := c.probe(ctx, rawURL)

	if c.cache != nil {
		verdict := verdictGood
		if bad {
			verdict = verdictBad
		}
		if err := c.cache.Set(ctx, key, []byte(verdict), c.ttl); err != nil {
			log.Warn().Err(err).Msg("link verdict cache write failed")
		}
	}
	return bad
}

// Predicate binds ctx and returns a plain URL predicate
func (c *Checker) Predicate(ctx context.Context) func(string) bool {
	return func(u string) bool {
		return c.IsBad(ctx, u)
	}
}

func (c *Checker) probe(ctx context.Context, rawURL string) bool {
	status, err := c.do(ctx, http.MethodHead, rawURL)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusForbidden) {
		status, err = c.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("link probe failed")
		return true
	}
	if status >= 400 {
		log.Debug().Str("url", rawURL).Int("status", status).Msg("link is bad")
		return true
	}
	return false
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GiftLens/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// StaticPredicate marks exactly the given URLs as bad, comparing trimmed values
func StaticPredicate(badURLs []string) func(string) bool {
	set := make(map[string]struct{}, len(badURLs))
	for _, u := range badURLs {
		set[strings.TrimSpace(u)] = struct{}{}
	}
	return func(u string) bool {
		_, ok := set[strings.TrimSpace(u)]
		return ok
	}
}
