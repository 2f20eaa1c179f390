// Package remote reads dashboard resources from the hosted backend's REST
// interface (PostgREST-style tables under /rest/v1).
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/krisalay/tunecache/dashboard"
	"github.com/krisalay/tunecache/types"
)

const defaultRequestTimeout = 10 * time.Second

var _ dashboard.Fetcher = (*Client)(nil)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
	clock   clockwork.Clock
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithAccessToken authenticates requests as a signed-in user instead of
// with the anonymous key.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   apiKey,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchProfile(ctx context.Context, userID string) (*dashboard.Profile, error) {
	var rows []dashboard.Profile
	q := url.Values{"id": {"eq." + userID}, "select": {"*"}, "limit": {"1"}}
	if err := c.get(ctx, "profiles", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile %s: %w", userID, types.ErrNoData)
	}
	return &rows[0], nil
}

func (c *Client) FetchTracks(ctx context.Context, userID string) ([]dashboard.Track, error) {
	var rows []dashboard.Track
	q := url.Values{"user_id": {"eq." + userID}, "order": {"released_at.desc"}}
	if err := c.get(ctx, "tracks", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchAnalytics returns the plays of the last period, e.g. "30d" or "12h".
func (c *Client) FetchAnalytics(ctx context.Context, userID, period string) ([]dashboard.AnalyticsEvent, error) {
	window, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	since := c.clock.Now().Add(-window).UTC().Format(time.RFC3339)

	var rows []dashboard.AnalyticsEvent
	q := url.Values{"user_id": {"eq." + userID}, "played_at": {"gte." + since}}
	if err := c.get(ctx, "analytics", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) FetchEarnings(ctx context.Context, userID string) ([]dashboard.EarningRecord, error) {
	var rows []dashboard.EarningRecord
	q := url.Values{"user_id": {"eq." + userID}}
	if err := c.get(ctx, "earnings", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) FetchNotifications(ctx context.Context, userID string) ([]dashboard.Notification, error) {
	var rows []dashboard.Notification
	q := url.Values{"user_id": {"eq." + userID}, "order": {"created_at.desc"}}
	if err := c.get(ctx, "notifications", q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) get(ctx context.Context, table string, q url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(table), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", table, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(body))
	}
	return &Error{Status: resp.StatusCode, Code: payload.Code, Message: payload.Message}
}

// ParsePeriod accepts "<n>d" day windows as well as Go durations.
func ParsePeriod(period string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(period, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid period %q", period)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(period)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	return d, nil
}
