package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"unblock-hq/corsair/pkg/cache"
	"unblock-hq/corsair/pkg/codec"
	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/forward"
	"unblock-hq/corsair/pkg/limits/ratelimit"
	"unblock-hq/corsair/pkg/proxy/middleware"
	"unblock-hq/corsair/pkg/proxy/types"
	"unblock-hq/corsair/pkg/telemetry/metrics"
)

// maxProxyBodyBytes bounds the inbound /proxy JSON envelope.
const maxProxyBodyBytes = 10 << 20 // 10MB

// Relay is the proxy entry point: it ties the codec, rate limiter,
// response cache, and forwarder together behind GET /service/{encoded}
// and POST /proxy.
type Relay struct {
	forwarder *forward.Forwarder
	cache     *cache.ResponseCache
	limiter   *ratelimit.Limiter
	collector *metrics.Collector
	logger    *slog.Logger

	cacheEnabled bool
	maxCacheBody int64
}

// NewRelay creates the relay handler.
func NewRelay(
	cacheCfg config.CacheConfig,
	forwarder *forward.Forwarder,
	responseCache *cache.ResponseCache,
	limiter *ratelimit.Limiter,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		forwarder:    forwarder,
		cache:        responseCache,
		limiter:      limiter,
		collector:    collector,
		logger:       logger,
		cacheEnabled: cacheCfg.Enabled,
		maxCacheBody: cacheCfg.MaxBodyBytes,
	}
}

// Service handles GET /service/{encoded}: decode the path segment,
// forward a GET, relay the result.
func (h *Relay) Service(w http.ResponseWriter, r *http.Request) {
	if !h.checkLimit(w, r) {
		return
	}

	target, err := codec.Decode(r.PathValue("encoded"))
	if err != nil {
		writeError(w, r, mapProxyError(err))
		return
	}

	req := forward.Request{
		TargetURL: target,
		Method:    http.MethodGet,
		Header:    r.Header,
	}
	h.relay(w, r, req, true, false)
}

// Proxy handles POST /proxy: a ProxyRequest JSON envelope with optional
// cache and timeout query options.
func (h *Relay) Proxy(w http.ResponseWriter, r *http.Request) {
	if !h.checkLimit(w, r) {
		return
	}

	var envelope ProxyRequest
	body := http.MaxBytesReader(w, r.Body, maxProxyBodyBytes)
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		writeError(w, r, types.NewError(types.ErrInvalidRequest,
			"The request body is not a valid proxy envelope.", http.StatusBadRequest))
		return
	}
	if envelope.URL == "" {
		writeError(w, r, types.NewError(types.ErrInvalidRequest,
			"The url field is required.", http.StatusBadRequest))
		return
	}

	method := strings.ToUpper(envelope.Method)
	if method == "" {
		method = http.MethodGet
	}

	header := make(http.Header, len(envelope.Headers))
	for k, v := range envelope.Headers {
		header.Set(k, v)
	}

	req := forward.Request{
		TargetURL: envelope.URL,
		Method:    method,
		Header:    header,
		// Envelope headers are chosen for the target, so an Authorization
		// value there is deliberate, unlike the inbound request's own.
		AllowAuthorization: header.Get("Authorization") != "",
	}
	if envelope.Body != "" && method != http.MethodGet && method != http.MethodHead {
		req.Body = []byte(envelope.Body)
	}

	useCache := true
	if v := r.URL.Query().Get("cache"); v != "" {
		useCache = v != "false"
	}
	if v := r.URL.Query().Get("timeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			writeError(w, r, types.NewError(types.ErrInvalidRequest,
				"The timeout query option must be a positive integer.", http.StatusBadRequest))
			return
		}
		req.Timeout = time.Duration(secs) * time.Second
	}

	// Callers asking for JSON get the target's reply wrapped in a
	// {status, statusText, headers, body} envelope instead of raw bytes.
	wantEnvelope := strings.Contains(r.Header.Get("Accept"), "application/json")

	h.relay(w, r, req, useCache, wantEnvelope)
}

// checkLimit runs the rate limiter for the caller identity and writes
// the 429 envelope when over quota. The message escalates for callers
// saturating several consecutive windows.
func (h *Relay) checkLimit(w http.ResponseWriter, r *http.Request) bool {
	identity := middleware.GetIdentity(r.Context())
	state := h.limiter.Check(identity.UserID)
	if !state.Limited {
		return true
	}

	cfg := h.limiter.Config()
	retryAfter := state.RetryAfter(cfg.Window, time.Now())

	h.logger.Warn("proxy rate limit exceeded",
		"key", identity.UserID,
		"consecutive_windows", state.ConsecutiveWindows,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	if h.collector != nil {
		h.collector.RecordRateLimited("proxy")
	}

	var msg string
	if state.ConsecutiveWindows > cfg.EscalationThreshold {
		msg = "You've been sending too many requests. Please try again later."
	} else {
		msg = fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", retryAfter)
	}

	resp := types.NewError(types.ErrRateLimited, msg, http.StatusTooManyRequests)
	resp.RetryAfter = retryAfter
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, r, resp)
	return false
}

// relay serves from cache when possible, else forwards and relays the
// target's response with the cache marker header set. When envelope is
// set the reply is wrapped as JSON instead of relayed raw.
func (h *Relay) relay(w http.ResponseWriter, r *http.Request, req forward.Request, useCache, envelope bool) {
	cacheable := h.cacheEnabled && useCache && req.Method == http.MethodGet
	key := cache.Key(req.Method, req.TargetURL)

	if cacheable {
		if entry, ok := h.cache.Get(key); ok {
			if envelope {
				h.writeEnvelope(w, entry.Status, entry.Header, entry.Body, "HIT")
				return
			}
			copyRelayHeaders(w.Header(), entry.Header)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(entry.Status)
			_, _ = w.Write(entry.Body)
			return
		}
	}

	resp, err := h.forwarder.Forward(r.Context(), req)
	if err != nil {
		writeError(w, r, mapProxyError(err))
		return
	}
	defer resp.Body.Close()

	marker := "BYPASS"
	if cacheable {
		marker = "MISS"
	}

	if envelope {
		buf, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBodyBytes))
		if err != nil {
			h.logger.Error("reading upstream body failed",
				"target", req.TargetURL,
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, r, types.NewError(types.ErrUnavailable,
				"The target could not be reached.", http.StatusBadGateway))
			return
		}
		limit := h.maxCacheBody
		if cacheable && cache.Cacheable(req.Method, resp.Status) && (limit <= 0 || int64(len(buf)) <= limit) {
			h.cache.Put(key, resp.Status, resp.Header, buf)
		}
		h.writeEnvelope(w, resp.Status, resp.Header, buf, marker)
		return
	}

	copyRelayHeaders(w.Header(), resp.Header)
	w.Header().Set("X-Cache", marker)

	// Buffer bodies small enough to cache; stream everything else.
	if cacheable && cache.Cacheable(req.Method, resp.Status) {
		limit := h.maxCacheBody
		if limit <= 0 {
			limit = maxProxyBodyBytes
		}
		buf, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			h.logger.Error("reading upstream body failed",
				"target", req.TargetURL,
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, r, types.NewError(types.ErrUnavailable,
				"The target could not be reached.", http.StatusBadGateway))
			return
		}

		if int64(len(buf)) <= limit {
			h.cache.Put(key, resp.Status, resp.Header, buf)
			w.WriteHeader(resp.Status)
			_, _ = w.Write(buf)
			return
		}

		// Too large to cache: write what we read, stream the rest.
		w.WriteHeader(resp.Status)
		_, _ = w.Write(buf)
		_, _ = io.Copy(w, resp.Body)
		return
	}

	w.WriteHeader(resp.Status)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("relay interrupted",
			"target", req.TargetURL,
			"error", err,
		)
	}
}

// writeEnvelope renders the target's reply as a JSON wrapper. The outer
// status is always 200; the target's own status travels in the payload.
func (h *Relay) writeEnvelope(w http.ResponseWriter, status int, header http.Header, body []byte, marker string) {
	headers := make(map[string]string, len(header))
	for k, values := range header {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-") {
			continue
		}
		if len(values) > 0 {
			headers[k] = values[0]
		}
	}

	w.Header().Set("X-Cache", marker)
	writeJSON(w, http.StatusOK, ProxyResponse{
		Status:     status,
		StatusText: http.StatusText(status),
		Headers:    headers,
		Body:       string(body),
	})
}

// copyRelayHeaders copies target headers to the response, dropping any
// Access-Control-* values so the CORS middleware's contract stays
// authoritative.
func copyRelayHeaders(dst, src http.Header) {
	for k, values := range src {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-") {
			continue
		}
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}
