package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-rent/internal/resilience"
)

// Client is a typed REST client for the route payment gateway. Every call
// authenticates with HTTP Basic auth (key id / key secret), carries a JSON
// body and runs under a bounded timeout. Non-2xx responses are translated
// into *Error; a raw transport failure never escapes to callers.
type Client struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	HTTP      resilience.HTTPClient
}

// Options configures a gateway client.
type Options struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
	Breaker   *resilience.Breaker
}

// NewClient constructs a gateway client with tracing-instrumented transport.
// A nil Breaker gets defaults tuned for the gateway: trip at a 50% failure
// rate over at least 10 requests, cool off for 30 seconds.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := opts.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(10, 0.5, 30*time.Second)
	}
	return &Client{
		BaseURL:   strings.TrimRight(opts.BaseURL, "/"),
		KeyID:     opts.KeyID,
		KeySecret: opts.KeySecret,
		HTTP: resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     breaker,
			Timeout:     timeout,
			MaxAttempts: 3,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
		},
	}
}

// Error is a translated gateway failure. Description carries the provider's
// own wording when a payload was received; Payload keeps the raw body for
// diagnosis.
type Error struct {
	StatusCode  int
	Code        string
	Description string
	Payload     json.RawMessage
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Description != "" {
		return fmt.Sprintf("gateway: %s (status %d)", e.Description, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway: %v", e.Err)
	}
	return fmt.Sprintf("gateway: status %d", e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is a translated gateway error and returns it.
func IsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// errorEnvelope matches the provider error body {"error":{"code","description"}}.
type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &Error{Err: err}
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return &Error{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return translateError(resp.StatusCode, payload)
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Payload: payload, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func translateError(status int, payload []byte) *Error {
	ge := &Error{StatusCode: status, Payload: append(json.RawMessage(nil), payload...)}
	var envelope errorEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil {
		ge.Code = envelope.Error.Code
		ge.Description = envelope.Error.Description
	}
	if ge.Description == "" {
		ge.Description = strings.TrimSpace(string(payload))
		if len(ge.Description) > 256 {
			ge.Description = ge.Description[:256]
		}
	}
	return ge
}

// Ping probes gateway reachability for readiness checks. Any HTTP response,
// including an auth error, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.BaseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
