package forward

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/retry"
)

// hopByHopHeaders are connection-scoped headers that must not be forwarded
// in either direction (RFC 9110 section 7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// requestDenyHeaders are inbound headers dropped on top of the hop-by-hop
// set: they would leak the proxy's own routing or the caller's proxy
// credentials to the target.
var requestDenyHeaders = []string{
	"Host",
	"Origin",
	"Referer",
	"Cookie",
	"Authorization",
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
	"X-Real-Ip",
}

// Blocker reports whether a target host is on the blocklist.
type Blocker interface {
	Blocked(host string) bool
}

// Request describes one outbound call through the forwarder.
type Request struct {
	// TargetURL is the absolute http/https URL to forward to.
	TargetURL string

	// Method is the HTTP verb. Empty means GET.
	Method string

	// Header holds the caller's headers; the forwarder copies them minus
	// the deny-list.
	Header http.Header

	// Body is the request body, buffered so retries can replay it.
	// Only meaningful for non-GET/HEAD methods.
	Body []byte

	// Timeout overrides the configured per-request deadline when positive.
	Timeout time.Duration

	// AllowAuthorization forwards the Authorization header instead of
	// stripping it. Set only when the header was supplied explicitly for
	// the target, never when inherited from the inbound request.
	AllowAuthorization bool
}

// Response is the target's reply. Body streams directly from the upstream
// connection; the caller owns closing it.
type Response struct {
	// Status is the target's status code, relayed verbatim.
	Status int

	// Header holds the target's headers minus hop-by-hop ones.
	Header http.Header

	// Body is the response body stream.
	Body io.ReadCloser
}

// Forwarder performs outbound HTTP requests on behalf of proxied callers.
// It strips hop-by-hop headers both ways, stamps X-Forwarded-* markers,
// enforces a wall-clock deadline, and retries transient network failures
// with exponential backoff. Non-2xx responses from the target are not
// errors; they are relayed as-is.
type Forwarder struct {
	// client is the HTTP client with connection pooling
	client *http.Client

	// timeout is the default per-request deadline
	timeout time.Duration

	// policy is the retry schedule for transient failures
	policy retry.Policy

	// blocker guards against forwarding to blocked hosts (nil = allow all)
	blocker Blocker

	// passCookies relays Cookie/Set-Cookie instead of stripping them
	passCookies bool
}

// New creates a forwarder with a pooled transport sized from cfg.
func New(cfg config.ForwardConfig, blocker Blocker) *Forwarder {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Forwarder{
		client:      &http.Client{Transport: transport},
		timeout:     cfg.Timeout,
		policy:      retry.Policy{MaxRetries: cfg.MaxRetries, BaseDelay: time.Second, Retryable: IsTransient},
		blocker:     blocker,
		passCookies: cfg.PassCookies,
	}
}

// Forward performs the outbound call described by req.
// Transient failures (timeout, connection refused/reset, DNS errors) are
// retried up to the configured budget; everything else surfaces
// immediately. The returned response's Body must be closed by the caller.
func (f *Forwarder) Forward(ctx context.Context, req Request) (*Response, error) {
	target, err := url.Parse(req.TargetURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		return nil, &RequestError{Target: req.TargetURL, Cause: errors.New("target must be an absolute URL")}
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, &RequestError{Target: req.TargetURL, Cause: errors.New("target scheme must be http or https")}
	}
	if f.blocker != nil && f.blocker.Blocked(target.Hostname()) {
		return nil, &BlockedHostError{Host: target.Hostname()}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	timeout := f.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	var resp *Response
	err = f.policy.Do(ctx, "forward", func() error {
		r, attemptErr := f.attempt(ctx, method, target, req, timeout)
		if attemptErr != nil {
			return attemptErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// attempt performs one outbound request under its own deadline.
func (f *Forwarder) attempt(ctx context.Context, method string, target *url.URL, req Request, timeout time.Duration) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	outReq, err := http.NewRequestWithContext(reqCtx, method, target.String(), bodyReader)
	if err != nil {
		cancel()
		return nil, &RequestError{Target: target.String(), Cause: err}
	}

	outReq.Header = f.outboundHeader(req.Header, req.AllowAuthorization)
	outReq.Header.Set("X-Forwarded-Host", target.Host)
	outReq.Header.Set("X-Forwarded-Proto", target.Scheme)

	slog.Debug("forwarding request",
		"method", method,
		"target", target.String(),
		"timeout", timeout,
	)

	resp, err := f.client.Do(outReq)
	if err != nil {
		cancel()
		// Distinguish our own deadline from the caller's cancellation and
		// from plain network failures.
		if reqCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Target: target.String(), Timeout: timeout}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Target: target.String(), Cause: err}
	}

	f.stripResponseHeaders(resp.Header)

	// The body stream stays tied to the per-attempt deadline; cancel fires
	// when the caller finishes reading.
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   &cancelReadCloser{rc: resp.Body, cancel: cancel},
	}, nil
}

// outboundHeader copies the caller's headers minus hop-by-hop and
// routing-leak headers. Duplicate values are preserved.
func (f *Forwarder) outboundHeader(in http.Header, allowAuth bool) http.Header {
	out := make(http.Header, len(in))
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	for _, h := range hopByHopHeaders {
		out.Del(h)
	}
	for _, named := range in.Values("Connection") {
		for _, h := range strings.Split(named, ",") {
			out.Del(strings.TrimSpace(h))
		}
	}
	for _, h := range requestDenyHeaders {
		if h == "Cookie" && f.passCookies {
			continue
		}
		if h == "Authorization" && allowAuth {
			continue
		}
		out.Del(h)
	}
	return out
}

// stripResponseHeaders removes hop-by-hop and cookie-setting headers from
// the target's response in place.
func (f *Forwarder) stripResponseHeaders(h http.Header) {
	for _, named := range h.Values("Connection") {
		for _, hh := range strings.Split(named, ",") {
			h.Del(strings.TrimSpace(hh))
		}
	}
	for _, hh := range hopByHopHeaders {
		h.Del(hh)
	}
	if !f.passCookies {
		h.Del("Set-Cookie")
	}
}

// Close releases pooled connections.
func (f *Forwarder) Close() {
	f.client.CloseIdleConnections()
}

// cancelReadCloser ties a context cancel func to a body's lifetime.
type cancelReadCloser struct {
	rc     io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Read(p []byte) (int, error) { return c.rc.Read(p) }

func (c *cancelReadCloser) Close() error {
	err := c.rc.Close()
	c.cancel()
	return err
}
