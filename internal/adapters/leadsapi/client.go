// internal/adapters/leadsapi/client.go
package leadsapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mytravel_leads/internal/adapters/observability"
	"mytravel_leads/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

// New builds a client for the leads backend. The API key is optional: the
// backend may sit behind the same gateway as the dashboard.
func New(base, key string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) ListAccommodations(ctx context.Context, q domain.RemoteQuery) (domain.RemotePage, error) {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Region != "" {
		v.Set("region", q.Region)
	}
	if q.Type != "" {
		v.Set("accommodation_type", q.Type)
	}
	if q.LeadStatus != "" {
		v.Set("lead_status", q.LeadStatus)
	}
	if q.MinPriority != nil {
		v.Set("min_priority", strconv.FormatFloat(*q.MinPriority, 'f', -1, 64))
	}
	var out domain.RemotePage
	if err := c.get(ctx, "list", c.base+"/accommodations?"+v.Encode(), &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetAccommodation(ctx context.Context, id int64) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "get", fmt.Sprintf("%s/accommodations/%d", c.base, id), &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) StartScan(ctx context.Context, source domain.ScanSource, region string) (map[string]any, error) {
	path := "/scan/start"
	if source == domain.ScanGooglePlaces {
		path = "/scan/google-places"
	}
	var out map[string]any
	u := c.base + path + "?" + url.Values{"region": {region}}.Encode()
	if err := c.post(ctx, "scan", u, &out); err != nil {
		return out, err
	}
	return out, nil
}

// GenerateOutreach returns the backend's message text. The backend answers
// either with a JSON object carrying "message" or with a bare string.
func (c *Client) GenerateOutreach(ctx context.Context, id int64, channel domain.Channel) (string, error) {
	var raw json.RawMessage
	u := fmt.Sprintf("%s/accommodations/%d/outreach?%s", c.base, id, url.Values{"channel": {string(channel)}}.Encode())
	if err := c.post(ctx, "outreach", u, &raw); err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"message", "text", "content"} {
			if m, ok := obj[k].(string); ok {
				return m, nil
			}
		}
	}
	return string(raw), nil
}

func (c *Client) Dashboard(ctx context.Context) (domain.RemoteDashboard, error) {
	var out domain.RemoteDashboard
	if err := c.get(ctx, "dashboard", c.base+"/analytics/dashboard", &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.get(ctx, "export_csv", c.base+"/export/csv", &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("leadsapi: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("leadsapi: unauthorized: %w", domain.ErrForbidden)
	ErrForbidden    = fmt.Errorf("leadsapi: %w", domain.ErrForbidden)
)

func (c *Client) newRequest(ctx context.Context, method, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mytravel-leads/1.0")
	return req, nil
}

// post is single-attempt: scan and outreach requests are not idempotent.
func (c *Client) post(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, u)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("leadsapi", endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("leadsapi", endpoint, resp.StatusCode, time.Since(start))
	if err := statusErr(resp); err != nil {
		return err
	}
	return decode(resp, out)
}

// get performs a GET with client-side rate limiting, retries, and decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := c.newRequest(ctx, http.MethodGet, u)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("leadsapi", endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("leadsapi", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		err = statusErr(resp)
		if err == nil {
			err = decode(resp, out)
		}
		resp.Body.Close()
		return err
	}

	return lastErr
}

// statusErr maps non-success statuses; it drains small error bodies for diagnostics.
func statusErr(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := io.Copy(w, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter drawn from crypto/rand, which is safe for concurrent callers.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
