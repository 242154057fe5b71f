package middleware

import (
	"net/http"
	"time"

	"unblock-hq/corsair/pkg/telemetry/metrics"
)

// MetricsMiddleware records one observation per completed request on the
// named endpoint. The cache outcome is read back from the X-Cache header
// the relay handlers set.
func MetricsMiddleware(collector *metrics.Collector, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			cacheResult := metrics.CacheNone
			switch rw.Header().Get("X-Cache") {
			case "HIT":
				cacheResult = metrics.CacheHit
			case "MISS":
				cacheResult = metrics.CacheMiss
			case "BYPASS":
				cacheResult = metrics.CacheBypass
			}

			collector.RecordRequest(endpoint, rw.statusCode, time.Since(start), cacheResult)
		})
	}
}
