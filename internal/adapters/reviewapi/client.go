// internal/adapters/reviewapi/client.go
package reviewapi

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

	"storefront/internal/adapters/observability"
	"storefront/internal/domain"
)

const (
	maxAttempts = 4
	// Retry-After hints above this fall back to backoff
	maxRetryWait = 10 * time.Second
)

type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

// New builds a client for the review backend at base. token is a fallback
// bearer used when the request context carries no credentials.
func New(base, token string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- credentials ----

// Credentials are forwarded to the backend with each call.
type Credentials struct {
	Token  string
	UserID string
}

type credsKey struct{}

func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credsKey{}, c)
}

func credentialsFrom(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credsKey{}).(Credentials)
	return c, ok
}

// ---- Review transport ----

func (c *Client) FetchReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	var out any
	u := fmt.Sprintf("%s/products/%s/reviews", c.base, url.PathEscape(productID))
	if err := c.do(ctx, "fetch", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return mapReviews(unwrapList(out)), nil
}

func (c *Client) CreateReview(ctx context.Context, in domain.NewReview) (domain.Review, error) {
	return c.one(ctx, "create", http.MethodPost, c.base+"/reviews", in)
}

func (c *Client) UpdateReview(ctx context.Context, reviewID string, f domain.ReviewFields) (domain.Review, error) {
	return c.one(ctx, "update", http.MethodPut, c.reviewURL(reviewID, ""), f)
}

func (c *Client) DeleteReview(ctx context.Context, reviewID string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.reviewURL(reviewID, ""), nil, nil)
}

func (c *Client) ToggleLike(ctx context.Context, reviewID string) (domain.Review, error) {
	return c.one(ctx, "like", http.MethodPost, c.reviewURL(reviewID, "/like"), nil)
}

func (c *Client) reviewURL(id, suffix string) string {
	return fmt.Sprintf("%s/reviews/%s%s", c.base, url.PathEscape(id), suffix)
}

func (c *Client) one(ctx context.Context, endpoint, method, u string, body any) (domain.Review, error) {
	var out map[string]any
	if err := c.do(ctx, endpoint, method, u, body, &out); err != nil {
		return domain.Review{}, err
	}
	return mapReview(unwrapOne(out)), nil
}

// ---- Internals ----

// idempotent requests may be retried; POST (create, toggle-like) never is.
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// do performs one call with client-side rate limiting, retries for idempotent
// methods on 429/5xx and network errors, and JSON decode into out.
func (c *Client) do(ctx context.Context, endpoint, method, u string, body any, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	attempts := 1
	if idempotent(method) {
		attempts = maxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		last := i == attempts-1

		// build a fresh request each attempt
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return err
		}
		c.decorate(ctx, req, payload != nil)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("reviewapi", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrNetwork, ctx.Err())
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrNetwork, err)
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("reviewapi", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s response: %w", endpoint, err)
			}
			return nil

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			msg := errorMessage(resp)
			return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			msg := errorMessage(resp)
			return fmt.Errorf("%w: %s", domain.ErrValidation, msg)

		case http.StatusUnauthorized, http.StatusForbidden:
			msg := errorMessage(resp)
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 || wait > maxRetryWait {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrNetwork, resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			return lastErr

		default:
			msg := errorMessage(resp)
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, msg)
		}
	}
	return lastErr
}

func (c *Client) decorate(ctx context.Context, req *http.Request, hasBody bool) {
	token := c.token
	if cr, ok := credentialsFrom(ctx); ok {
		if cr.Token != "" {
			token = cr.Token
		}
		if cr.UserID != "" {
			req.Header.Set("X-User-ID", cr.UserID)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "storefront/1.0")
}

// errorMessage reads a small error body, preferring a problem/message field.
func errorMessage(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var p struct {
		Detail  string `json:"detail"`
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &p) == nil {
		for _, s := range []string{p.Detail, p.Message, p.Title} {
			if s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
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

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

