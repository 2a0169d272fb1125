package escribe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/council-votes/internal/config"
	"github.com/pfrederiksen/council-votes/internal/logger"
)

const (
	calendarEndpoint = "MeetingsCalendarView.aspx/GetCalendarMeetings"
	userAgent        = "council-votes/1.0 (github.com/pfrederiksen/council-votes)"

	// Link metadata values identifying the English HTML post-minutes document.
	minutesLinkType   = "PostMinutes"
	minutesLinkFormat = "HTML"
	minutesLinkLang   = "English"
)

// retryInitialInterval seeds the exponential backoff between attempts.
// Package-level so tests can shrink it.
var retryInitialInterval = 500 * time.Millisecond

// DocumentLink is one document attached to a meeting in the calendar
// response, tagged with type and format metadata.
type DocumentLink struct {
	Type   string `json:"Type"`
	Format string `json:"Format"`
	URL    string `json:"Url"`
}

// Meeting is one meeting descriptor from the calendar endpoint. The parser
// only reads it; records derived from it are written by the sync stage.
type Meeting struct {
	ID            json.Number    `json:"ID"`
	MeetingName   string         `json:"MeetingName"`
	StartDate     string         `json:"StartDate"`
	URL           string         `json:"Url"`
	DocumentLinks []DocumentLink `json:"MeetingDocumentLink"`
}

// ExternalID returns the meeting's portal identifier as a string.
func (m Meeting) ExternalID() string {
	return m.ID.String()
}

// MinutesLinks returns the absolute URLs of this meeting's published English
// HTML minutes documents. Most meetings have zero or one.
func (m Meeting) MinutesLinks(baseURL string) []string {
	links := make([]string, 0, 1)
	for _, link := range m.DocumentLinks {
		if link.Type != minutesLinkType || link.Format != minutesLinkFormat {
			continue
		}
		if !strings.Contains(link.URL, minutesLinkLang) {
			continue
		}
		links = append(links, baseURL+link.URL)
	}
	return links
}

// Client fetches calendar data and minutes pages from an eScribe portal.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	zone       *time.Location
}

// NewClient builds a client from configuration. The civic timezone controls
// how calendar date bounds are rendered; an unknown zone name falls back to
// UTC. InsecureTLS skips certificate verification for this one upstream,
// whose chain is known to be misconfigured at times — it is off by default.
func NewClient(cfg config.Config) *Client {
	zone, err := time.LoadLocation(cfg.CivicTimezone)
	if err != nil {
		logger.Warn("Unknown civic timezone, using UTC", logger.Fields{"timezone": cfg.CivicTimezone})
		zone = time.UTC
	}

	transport := http.DefaultTransport
	if cfg.InsecureTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
		}
	}

	attempts := cfg.FetchAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		baseURL: cfg.EscribeBaseURL,
		httpClient: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
			Transport: transport,
		},
		attempts: attempts,
		zone:     zone,
	}
}

// BaseURL returns the portal base URL, used to absolutize document links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Meetings queries the calendar endpoint for meetings between start and end
// inclusive. Both bounds are rendered at local midnight in the civic zone.
func (c *Client) Meetings(ctx context.Context, start, end time.Time) ([]Meeting, error) {
	payload := map[string]string{
		"calendarStartDate": c.civicMidnight(start),
		"calendarEndDate":   c.civicMidnight(end),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling calendar request: %w", err)
	}

	var meetings []Meeting
	err = c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+calendarEndpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("querying calendar: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("calendar endpoint returned status %d", resp.StatusCode)
		}

		meetings = nil
		if err := json.NewDecoder(resp.Body).Decode(&meetings); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding calendar response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return meetings, nil
}

// FetchMinutes retrieves the raw HTML of one minutes page.
func (c *Client) FetchMinutes(ctx context.Context, url string) (string, error) {
	var html string
	err := c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching minutes page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("minutes page returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading minutes page: %w", err)
		}
		html = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	logger.IncrCounter("pages.fetched")
	return html, nil
}

// withRetry runs op up to the configured attempt bound with exponential
// backoff, honoring context cancellation.
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.attempts-1)), ctx)
	return backoff.Retry(op, policy)
}

// civicMidnight renders the date at 00:00:00 in the civic timezone with its
// numeric offset, the format the calendar endpoint expects.
func (c *Client) civicMidnight(t time.Time) string {
	local := t.In(c.zone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.zone)
	return midnight.Format("2006-01-02T15:04:05-07:00")
}
