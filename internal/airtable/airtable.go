package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/council-votes/internal/config"
	"github.com/pfrederiksen/council-votes/internal/logger"
	"github.com/pfrederiksen/council-votes/internal/store"
)

// batchDeleteLimit is the Airtable API's maximum records per delete call.
const batchDeleteLimit = 10

// retryInitialInterval seeds the exponential backoff between attempts.
// Package-level so tests can shrink it.
var retryInitialInterval = 500 * time.Millisecond

// Client talks to one Airtable base.
type Client struct {
	apiURL     string
	token      string
	baseID     string
	httpClient *http.Client
	attempts   int
}

// NewClient builds a client from configuration. Credentials are validated
// by the caller before any write-mode work starts.
func NewClient(cfg config.Config) *Client {
	attempts := cfg.WriteAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		apiURL: strings.TrimSuffix(cfg.AirtableAPIURL, "/"),
		token:  cfg.AirtableToken,
		baseID: cfg.AirtableBaseID,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		attempts: attempts,
	}
}

type recordPayload struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type listPayload struct {
	Records []recordPayload `json:"records"`
	Offset  string          `json:"offset"`
}

// Create inserts one record and returns it with its Airtable record ID.
// A 422 response means the payload itself is invalid; it is logged with
// full payload context and never retried.
func (c *Client) Create(ctx context.Context, table string, fields map[string]interface{}) (store.Record, error) {
	body, err := json.Marshal(map[string]interface{}{"fields": fields})
	if err != nil {
		return store.Record{}, fmt.Errorf("marshaling record: %w", err)
	}

	var created recordPayload
	err = c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(table), bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("creating record: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			if err := json.Unmarshal(respBody, &created); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding create response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusUnprocessableEntity:
			logger.Error("Store rejected record payload", logger.Fields{
				"table":    table,
				"payload":  fields,
				"response": string(respBody),
			}, nil)
			return backoff.Permanent(fmt.Errorf("%w: table %s", store.ErrInvalidPayload, table))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("store returned status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(respBody)))
		}
	})
	if err != nil {
		return store.Record{}, err
	}

	return store.Record{ID: created.ID, Fields: created.Fields}, nil
}

// FindByField returns the records whose field equals value, following
// offset paging until the result set is complete.
func (c *Client) FindByField(ctx context.Context, table, field, value string) ([]store.Record, error) {
	formula := fmt.Sprintf("{%s}='%s'", field, strings.ReplaceAll(value, "'", `\'`))
	return c.list(ctx, table, formula)
}

// List returns every record in the table.
func (c *Client) List(ctx context.Context, table string) ([]store.Record, error) {
	return c.list(ctx, table, "")
}

func (c *Client) list(ctx context.Context, table, formula string) ([]store.Record, error) {
	records := make([]store.Record, 0)
	offset := ""

	for {
		params := url.Values{}
		if formula != "" {
			params.Set("filterByFormula", formula)
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		requestURL := c.tableURL(table)
		if encoded := params.Encode(); encoded != "" {
			requestURL += "?" + encoded
		}

		var page listPayload
		err := c.withRetry(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("creating request: %w", err))
			}
			c.setHeaders(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("querying records: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("store returned status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return backoff.Permanent(fmt.Errorf("store returned status %d", resp.StatusCode))
			}

			page = listPayload{}
			if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
				return backoff.Permanent(fmt.Errorf("decoding list response: %w", err))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, r := range page.Records {
			records = append(records, store.Record{ID: r.ID, Fields: r.Fields})
		}

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// BatchDelete removes records in chunks of at most ten. A failing chunk is
// logged and the remaining chunks still run; the first failure is returned.
func (c *Client) BatchDelete(ctx context.Context, table string, ids []string) error {
	var firstErr error

	for start := 0; start < len(ids); start += batchDeleteLimit {
		end := start + batchDeleteLimit
		if end > len(ids) {
			end = len(ids)
		}

		if err := c.deleteChunk(ctx, table, ids[start:end]); err != nil {
			logger.Error("Batch delete chunk failed", logger.Fields{
				"table": table,
				"count": end - start,
			}, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (c *Client) deleteChunk(ctx context.Context, table string, ids []string) error {
	params := url.Values{}
	for _, id := range ids {
		params.Add("records[]", id)
	}

	return c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.tableURL(table)+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("deleting records: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("store returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("store returned status %d", resp.StatusCode))
		}
		return nil
	})
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.apiURL, c.baseID, url.PathEscape(table))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) withRetry(ctx context.Context, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.attempts-1)), ctx)
	return backoff.Retry(op, policy)
}
