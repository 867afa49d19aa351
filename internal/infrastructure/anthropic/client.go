package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Anthropic API root
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultModel is used when no model is configured
	DefaultModel = "claude-sonnet-4-5"

	defaultMaxTokens = 4096
	maxRetries       = 2
)

// Config holds curator client settings
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client curates gifts through the Anthropic Messages API
type Client struct {
	client sdk.Client
	cfg    Config
}

// NewClient creates a new curator client. Rate limits, overloads and server
// errors are retried by the SDK with backoff.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}, opts...)

	return &Client{
		client: sdk.NewClient(opts...),
		cfg:    cfg,
	}
}

// Curate asks the model to pick gifts from the inventory and decodes its
// JSON answer. The output is untrusted; callers must run cleanup on it.
func (c *Client) Curate(ctx context.Context, profile *domain.Profile, inventory []domain.Product) (*domain.CuratorResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(BuildPrompt(profile, inventory))),
		},
	}

	text, err := c.complete(ctx, params)
	if err != nil {
		return nil, err
	}

	resp, err := ParseCuratorResponse(text)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("product_gifts", len(resp.ProductGifts)).
		Int("experience_gifts", len(resp.ExperienceGifts)).
		Int("inventory", len(inventory)).
		Msg("curator responded")
	return resp, nil
}

// complete sends a Messages request and returns the joined text blocks
func (c *Client) complete(ctx context.Context, params sdk.MessageNewParams) (string, error) {
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty response (stop reason %q)", domain.ErrCuratorFailure, msg.StopReason)
	}
	return sb.String(), nil
}

// classifyError wraps SDK failures in domain sentinels. A 429 that survives
// the SDK retries is also reported as ErrRateLimited.
func classifyError(err error) error {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		log.Warn().Err(err).Msg("curator request error")
		return fmt.Errorf("%w: %v", domain.ErrCuratorFailure, err)
	}

	log.Warn().Int("status", apiErr.StatusCode).Msg("curator request failed")
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: status %d", domain.ErrCuratorFailure, domain.ErrRateLimited, apiErr.StatusCode)
	}
	return fmt.Errorf("%w: status %d", domain.ErrCuratorFailure, apiErr.StatusCode)
}

// ParseCuratorResponse extracts the first JSON object from model output,
// tolerating markdown fences and surrounding prose.
func ParseCuratorResponse(text string) (*domain.CuratorResponse, error) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrCuratorFailure)
	}

	var out domain.CuratorResponse
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrCuratorFailure, err)
	}
	return &out, nil
}

// extractJSONObject returns the first balanced {...} block, ignoring braces
// inside string literals.
func extractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
