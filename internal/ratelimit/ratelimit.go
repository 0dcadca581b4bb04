// internal/ratelimit/ratelimit.go
//
// Per-client request limits built on golang.org/x/time/rate.
//
// Context
// -------
// Limits are written the way operators think of them: "5/minute",
// "20/hour", "100/day".  Each rule becomes a token bucket holding Limit
// tokens that refills one token every Period/Limit, so a client may burst
// up to the limit and then continues at the average rate.  A request is
// admitted only when every rule of a Limiter admits it; otherwise the
// tokens it took from the other rules are handed back.
//
// Per-client buckets live in a bounded LRU keyed by client address.  When a
// quiet client is evicted, its next request starts with full buckets.
//
// Notes
// -----
//   - Clock is injectable so tests can step time.
//   - Oxford commas, two spaces after periods.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yanizio/hostcat/internal/cache"
)

// Rule allows Limit events per Period.
type Rule struct {
	Limit  int
	Period time.Duration
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRule reads "N/unit" or "N per unit"; unit is second, minute, hour,
// or day, optionally plural.
func ParseRule(s string) (Rule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	n, unit, ok := strings.Cut(s, "/")
	if !ok {
		n, unit, ok = strings.Cut(s, " per ")
	}
	if !ok {
		return Rule{}, fmt.Errorf("rate rule %q: want N/unit", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || limit < 1 {
		return Rule{}, fmt.Errorf("rate rule %q: bad count", s)
	}
	unit = strings.TrimSuffix(strings.TrimSpace(unit), "s")
	period, ok := units[unit]
	if !ok {
		return Rule{}, fmt.Errorf("rate rule %q: unknown unit %q", s, unit)
	}
	return Rule{Limit: limit, Period: period}, nil
}

// ParseRules parses every entry of specs.
func ParseRules(specs []string) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (r Rule) String() string {
	for name, d := range units {
		if d == r.Period {
			return fmt.Sprintf("%d/%s", r.Limit, name)
		}
	}
	return fmt.Sprintf("%d/%s", r.Limit, r.Period)
}

func (r Rule) bucket() *rate.Limiter {
	return rate.NewLimiter(rate.Every(r.Period/time.Duration(r.Limit)), r.Limit)
}

// Limiter applies a set of rules per key.
type Limiter struct {
	rules []Rule
	now   func() time.Time

	mu      sync.Mutex
	clients *cache.LRU[string, []*rate.Limiter]
}

// New returns a Limiter tracking at most maxClients keys.
func New(rules []Rule, maxClients int) *Limiter {
	if maxClients < 1 {
		maxClients = 1
	}
	return &Limiter{
		rules:   rules,
		now:     time.Now,
		clients: cache.New[string, []*rate.Limiter](maxClients),
	}
}

// WithClock replaces the time source.  Call before first use.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Rules returns the configured rules.
func (l *Limiter) Rules() []Rule { return l.rules }

// Allow reports whether key may proceed now.  A denied request consumes
// nothing.
func (l *Limiter) Allow(key string) bool {
	if len(l.rules) == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	buckets, ok := l.clients.Get(key)
	if !ok {
		buckets = make([]*rate.Limiter, len(l.rules))
		for i, r := range l.rules {
			buckets[i] = r.bucket()
		}
		l.clients.Add(key, buckets)
	}

	now := l.now()
	taken := make([]*rate.Reservation, 0, len(buckets))
	for _, b := range buckets {
		res := b.ReserveN(now, 1)
		if !res.OK() || res.DelayFrom(now) > 0 {
			res.CancelAt(now)
			for _, t := range taken {
				t.CancelAt(now)
			}
			return false
		}
		taken = append(taken, res)
	}
	return true
}
