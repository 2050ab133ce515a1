package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"loans-service/internal/domain/loan"
	"loans-service/pkg/retry"
)

const defaultTimeout = 3 * time.Second

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// StatusError reports a response whose status the caller did not accept.
type StatusError struct {
	StatusCode int
	Want       int // 0 means any 2xx
}

func (e *StatusError) Error() string {
	if e.Want != 0 {
		return fmt.Sprintf("%s: got %d, want %d", ErrUnexpectedStatus, e.StatusCode, e.Want)
	}
	return fmt.Sprintf("%s: got %d", ErrUnexpectedStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Option configures a remote client.
type Option func(*client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each attempt, not the whole retry sequence.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithPolicy(p retry.Policy) Option {
	return func(c *client) { c.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *client) {
		if l != nil {
			c.log = l
		}
	}
}

// client is the retrying HTTP core shared by the users and books clients.
type client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	policy  retry.Policy
	log     *slog.Logger
}

func newClient(baseURL string, opts ...Option) *client {
	policy, _ := retry.New()
	c := &client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: defaultTimeout,
		policy:  policy,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON GETs path and decodes a 2xx body into out.
// payloadChecker is implemented by response types that reject a decoded body
// missing a field the caller depends on.
type payloadChecker interface {
	check() error
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, func(_ int, body []byte) error {
		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if pc, ok := out.(payloadChecker); ok {
			if err := pc.check(); err != nil {
				return retry.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	})
}

// postNoContent POSTs to path and accepts only 204.
func (c *client) postNoContent(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPost, path, func(status int, _ []byte) error {
		if status != http.StatusNoContent {
			return &StatusError{StatusCode: status, Want: http.StatusNoContent}
		}
		return nil
	})
}

func (c *client) do(ctx context.Context, method, path string, handle func(status int, body []byte) error) error {
	url := c.baseURL + path
	attempts, err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		start := time.Now()
		status, err := c.attempt(ctx, method, url, handle)
		c.logAttempt(ctx, method, url, attempt, time.Since(start), status, err)
		return err
	})
	if err != nil {
		c.log.ErrorContext(ctx, "http request failed after all retries",
			"http_method", method,
			"url", url,
			"total_attempts", attempts,
			"error", err.Error(),
		)
		return &loan.RemoteUnavailableError{Op: method + " " + url, Attempts: attempts, Err: err}
	}
	return nil
}

func (c *client) attempt(ctx context.Context, method, url string, handle func(status int, body []byte) error) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode}
	}
	// the body is read here, under the attempt deadline, so a reset or
	// truncated transfer counts as a failed attempt
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, handle(resp.StatusCode, body)
}

func (c *client) logAttempt(ctx context.Context, method, url string, attempt int, took time.Duration, status int, err error) {
	attrs := []any{
		"http_method", method,
		"url", url,
		"attempt", attempt,
		"duration_ms", took.Milliseconds(),
	}
	if status != 0 {
		attrs = append(attrs, "http_status", status)
	}
	if err != nil {
		attrs = append(attrs, "outcome", "error", "error", err.Error())
		c.log.WarnContext(ctx, "http request failed", attrs...)
		return
	}
	attrs = append(attrs, "outcome", "ok")
	c.log.InfoContext(ctx, "http request successful", attrs...)
}
