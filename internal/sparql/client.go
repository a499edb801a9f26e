package sparql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/schema"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 64 << 20

// ProbeQuery is the lightweight query used to check endpoint reachability.
const ProbeQuery = "ASK {?x ?y ?z}"

// Response is a completed HTTP exchange with a SPARQL endpoint.
type Response struct {
	Status      int
	StatusText  string
	ContentType string
	Header      http.Header
	Body        []byte
	Duration    time.Duration
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// NetworkError wraps a failure to complete the HTTP exchange at all.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("sparql request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ClientOptions configure a Client.
type ClientOptions struct {
	// Timeout bounds each request; zero leaves only the caller's context.
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	Transport    http.RoundTripper
	Logger       pslog.Logger
}

// Client executes SPARQL requests over HTTP.
type Client struct {
	plain        *http.Client
	credentialed *http.Client
	maxBody      int64
	userAgent    string
	log          pslog.Logger
}

// NewClient constructs a Client. Requests with credentials share a cookie jar.
func NewClient(opts ClientOptions) *Client {
	jar, _ := cookiejar.New(nil)
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Client{
		plain:        &http.Client{Timeout: opts.Timeout, Transport: transport},
		credentialed: &http.Client{Timeout: opts.Timeout, Transport: transport, Jar: jar},
		maxBody:      maxBody,
		userAgent:    opts.UserAgent,
		log:          opts.Logger,
	}
}

// Execute sends query using the effective configuration. Non-2xx
// responses are returned without error; transport failures return a
// *NetworkError and cancellation returns the context error.
func (c *Client) Execute(ctx context.Context, cfg schema.EffectiveRequestConfig, tab schema.TabSnapshot, query string) (*Response, error) {
	prepared, err := Prepare(cfg, tab, query)
	if err != nil {
		return nil, err
	}
	client := c.plain
	if cfg.Credentials() {
		client = c.credentialed
	}
	return c.do(ctx, client, prepared)
}

func (c *Client) do(ctx context.Context, client *http.Client, prepared Prepared) (*Response, error) {
	req, err := prepared.NewHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	log := c.logger(ctx)
	log.Debug("sparql request", "endpoint", prepared.Endpoint, "method", prepared.Method, "mode", prepared.Mode, "type", prepared.Type)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Debug("sparql request failed", "endpoint", prepared.Endpoint, "err", err)
		return nil, &NetworkError{Endpoint: prepared.Endpoint, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Endpoint: prepared.Endpoint, Err: err}
	}
	out := &Response{
		Status:      resp.StatusCode,
		StatusText:  http.StatusText(resp.StatusCode),
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header.Clone(),
		Body:        body,
		Duration:    time.Since(start),
	}
	log.Debug("sparql response", "endpoint", prepared.Endpoint, "status", out.Status, "bytes", len(body), "duration_ms", out.Duration.Milliseconds())
	return out, nil
}

// Probe sends ProbeQuery to endpoint. Any HTTP response, whatever its
// status, is a nil error; only failures to exchange at all are returned.
func (c *Client) Probe(ctx context.Context, endpoint string) error {
	prepared, err := Prepare(schema.EffectiveRequestConfig{
		RequestConfig: schema.RequestConfig{Endpoint: endpoint, Method: schema.MethodGET},
	}, schema.TabSnapshot{}, ProbeQuery)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, c.plain, prepared)
	return err
}

func (c *Client) logger(ctx context.Context) pslog.Logger {
	if c.log != nil {
		return c.log
	}
	return pslog.Ctx(ctx)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
