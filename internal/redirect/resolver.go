// Package redirect resolves affiliate short links to their destination.
//
// Some catalog rows point at a redirector (bitcoin-vps.com by default)
// instead of the provider.  Resolver asks the redirector once, without
// following the hop, and keeps the Location it answers with.  Any failure
// leaves the URL unchanged; the importer never stops because a redirector
// is down.
package redirect

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultDomains are the redirectors resolved when none are configured.
var DefaultDomains = []string{"bitcoin-vps.com"}

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 10 * time.Second

// Resolver looks up redirects for a fixed set of domains.
type Resolver struct {
	domains []string
	client  *http.Client
	log     *zap.Logger
}

// New returns a Resolver for domains (and their subdomains).  A zero
// timeout means DefaultTimeout; a nil logger means zap.L().
func New(domains []string, timeout time.Duration, log *zap.Logger) *Resolver {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.L()
	}
	norm := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), "."); d != "" {
			norm = append(norm, d)
		}
	}
	return &Resolver{
		domains: norm,
		log:     log,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Matches reports whether raw points at a configured redirector.
func (r *Resolver) Matches(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range r.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Resolve returns the redirect target of raw, or raw itself when raw is not
// a redirector link or the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, raw string) string {
	if !r.Matches(raw) {
		return raw
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		r.log.Warn("redirect request", zap.String("url", raw), zap.Error(err))
		return raw
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("redirect lookup failed", zap.String("url", raw), zap.Error(err))
		return raw
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		r.log.Warn("redirector did not redirect",
			zap.String("url", raw), zap.Int("status", resp.StatusCode))
		return raw
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		r.log.Warn("redirect without location", zap.String("url", raw))
		return raw
	}
	target, err := req.URL.Parse(loc)
	if err != nil {
		r.log.Warn("bad redirect location", zap.String("url", raw), zap.String("location", loc), zap.Error(err))
		return raw
	}
	r.log.Debug("redirect resolved", zap.String("from", raw), zap.String("to", target.String()))
	return target.String()
}
