package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"nba_totals/pipeline/internal/cache"
	"nba_totals/pipeline/internal/metrics"
	"nba_totals/pipeline/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DateLayout is the date format the scoreboard endpoint expects
const DateLayout = "20060102"

// Client is the ESPN site API client. Requests are paced, never retried.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent on every request
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRequestInterval sets the minimum spacing between requests. Zero disables pacing.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithCache stores immutable payloads (past scoreboards, final summaries) in cache
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

// WithClock overrides the clock used to decide which dates are in the past
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new ESPN API client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		userAgent: "nba-totals-pipeline/1.0",
		limiter:   rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		now:       time.Now,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a paced GET request against the API
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("url", req.URL.String()).
		Str("method", req.Method).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	log.Debug().
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, nil
}

// cached returns a cached payload when a cache is configured
func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache lookup failed")
		return nil, false
	}
	return body, ok
}

// store saves a payload when a cache is configured. Failures are logged only.
func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache store failed")
	}
}

// FetchScoreboard fetches the scoreboard for a calendar date. Dates are
// compared in UTC. Only past scoreboards whose events are all final are cached.
func (c *Client) FetchScoreboard(ctx context.Context, date time.Time) (*models.ScoreboardResponse, error) {
	day := date.UTC().Format(DateLayout)
	key := "scoreboard:" + day
	past := day < c.now().UTC().Format(DateLayout)

	body, hit := []byte(nil), false
	if past {
		body, hit = c.cached(ctx, key)
	}
	if !hit {
		var err error
		body, err = c.get(ctx, "scoreboard", map[string]string{"dates": day})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch scoreboard for %s: %w", day, err)
		}
	}

	var scoreboard models.ScoreboardResponse
	if err := json.Unmarshal(body, &scoreboard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scoreboard for %s: %w", day, err)
	}

	if past && !hit && scoreboard.Completed() {
		c.store(ctx, key, body)
	}

	return &scoreboard, nil
}

// FetchSummary fetches the game summary (box score) for an event
func (c *Client) FetchSummary(ctx context.Context, eventID string) (*models.SummaryResponse, error) {
	key := "summary:" + eventID

	body, hit := c.cached(ctx, key)
	if !hit {
		var err error
		body, err = c.get(ctx, "summary", map[string]string{"event": eventID})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch summary for event %s: %w", eventID, err)
		}
	}

	var summary models.SummaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary for event %s: %w", eventID, err)
	}

	// Only final box scores are immutable
	if !hit && summary.Completed() {
		c.store(ctx, key, body)
	}

	return &summary, nil
}

// FetchInjuries fetches the current league injury report. Never cached.
func (c *Client) FetchInjuries(ctx context.Context) (*models.InjuriesResponse, error) {
	body, err := c.get(ctx, "injuries", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch injuries: %w", err)
	}

	var injuries models.InjuriesResponse
	if err := json.Unmarshal(body, &injuries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal injuries: %w", err)
	}

	return &injuries, nil
}

// StatusError is returned for non-200 responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d for %s", e.StatusCode, e.URL)
}
