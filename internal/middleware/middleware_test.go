package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/hostcat/internal/ratelimit"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func TestSecurityHeadersSetBeforeWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(true)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	h := rec.Result().Header
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.NotEmpty(t, h.Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	Security(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Result().Header.Get("Strict-Transport-Security"))
}

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true, true)(ok)

	cases := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{"plain", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "http://hosts.example/hostings_list?x=1", nil)
		}, http.StatusPermanentRedirect},
		{"tls", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "https://hosts.example/", nil)
			r.TLS = &tls.ConnectionState{}
			return r
		}, http.StatusOK},
		{"proxy", func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "http://hosts.example/", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			return r
		}, http.StatusOK},
		{"localhost", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)
		}, http.StatusOK},
		{"loopback", func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/", nil)
		}, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, c.req())
			assert.Equal(t, c.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://hosts.example/hostings_list?x=1", nil))
	assert.Equal(t, "https://hosts.example/hostings_list?x=1", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	ForceHTTPS(false, false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://hosts.example/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := ratelimit.New([]ratelimit.Rule{{Limit: 2, Period: time.Minute}}, 16).
		WithClock(func() time.Time { return now })
	h := RateLimit(l, "test", nil)(ok)

	get := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("192.0.2.1:1000"))
	assert.Equal(t, http.StatusOK, get("192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, get("192.0.2.1:1002"))
	assert.Equal(t, http.StatusOK, get("192.0.2.2:1000"), "other client")

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, get("192.0.2.1:1003"))
}

func TestRateLimitCustomHandler(t *testing.T) {
	l := ratelimit.New([]ratelimit.Rule{{Limit: 1, Period: time.Hour}}, 4)
	custom := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := RateLimit(l, "login", custom)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
