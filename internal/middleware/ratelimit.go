// internal/middleware/ratelimit.go
//
// Per-client request limiting.
//
// Context
// -------
// Each route group owns a *ratelimit.Limiter.  The client key comes from
// requestinfo.Key, so the Enrich middleware must run first when the site
// sits behind a proxy.  Rejected requests are counted per group and never
// reach the handler.
//
// Notes
// -----
// • onLimit may be nil; the default answer is a plain 429.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"strconv"

	"github.com/yanizio/hostcat/internal/metrics"
	"github.com/yanizio/hostcat/internal/ratelimit"
	"github.com/yanizio/hostcat/internal/requestinfo"
)

// RateLimit wraps next with l.  group labels the rejection counter.
func RateLimit(l *ratelimit.Limiter, group string, onLimit http.Handler) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = http.HandlerFunc(TooManyRequests)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(requestinfo.Key(r)) {
				metrics.RateLimitedTotal.WithLabelValues(group).Inc()
				onLimit.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TooManyRequests writes the default rejection.
func TooManyRequests(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(60))
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
