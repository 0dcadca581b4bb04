// internal/catalog/model.go
//
// Catalog records.
//
// Context
// -------
// The catalog lives in three tables:
//
//	hosting           (hosting_id PK, hosting_name UNIQUE, url, status, risk, …)
//	category          (category_id PK, category_name UNIQUE)
//	hosting_category  (hosting_id, category_id)  – composite PK
//
// Nullable columns map to pointer fields, the same way site.Record handled
// its nullable timestamps.  A nil pointer is an absent value; it never
// carries a sentinel.
//
// Notes
// -----
//   - Field bounds are enforced by Truncate() at write time, never by
//     rejecting the record.
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"strings"
	"unicode/utf8"
)

// Column bounds, in characters.
const (
	MaxNameLen         = 500
	MaxURLLen          = 1000
	MaxStatusLen       = 500
	MaxTextLen         = 2000
	MaxLocationLen     = 500
	MaxCategoryNameLen = 100
)

// Status classes rendered by the listing templates.
const (
	StatusOK         = "ok"
	StatusContainsOK = "contains_ok"
	StatusKYC        = "kyc"
)

// Category mirrors one row in `category`.
type Category struct {
	ID   int64  `db:"category_id"`
	Name string `db:"category_name"`
}

// Hosting mirrors one row in `hosting`.  Categories is filled by the store
// after the main query; it is not a column.
type Hosting struct {
	ID              int64    `db:"hosting_id"`
	Name            string   `db:"hosting_name"`
	URL             *string  `db:"url"`
	Status          *string  `db:"status"`
	Risk            *int     `db:"risk"`
	Advantages      *string  `db:"advantages"`
	Disadvantages   *string  `db:"disadvantages"`
	HostingLocation *string  `db:"hosting_location"`
	ServersLocation *string  `db:"servers_location"`
	MinPriceUSD     *float64 `db:"min_price_in_dollars"`
	Favorite        bool     `db:"favorite"`

	Categories []Category `db:"-"`
}

// StatusClass buckets the free-text status into one of the display tiers.
// An exact "ok" wins over a substring match, and "ok" wins over "kyc".
func (h Hosting) StatusClass() string {
	if h.Status == nil || *h.Status == "" {
		return ""
	}
	s := strings.ToLower(*h.Status)
	switch {
	case s == "ok":
		return StatusOK
	case strings.Contains(s, "ok"):
		return StatusContainsOK
	case strings.Contains(s, "kyc"):
		return StatusKYC
	}
	return ""
}

// Truncate clips every bounded field to its column limit.  Empty optional
// strings collapse to nil so storage sees NULL rather than "".
func (h *Hosting) Truncate() {
	h.Name = clip(h.Name, MaxNameLen)
	h.URL = clipOpt(h.URL, MaxURLLen)
	h.Status = clipOpt(h.Status, MaxStatusLen)
	h.Advantages = clipOpt(h.Advantages, MaxTextLen)
	h.Disadvantages = clipOpt(h.Disadvantages, MaxTextLen)
	h.HostingLocation = clipOpt(h.HostingLocation, MaxLocationLen)
	h.ServersLocation = clipOpt(h.ServersLocation, MaxLocationLen)
}

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i, count := 0, 0
	for i = range s {
		if count == n {
			break
		}
		count++
	}
	return s[:i]
}

func clipOpt(p *string, n int) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := clip(*p, n)
	return &v
}

// Str returns a pointer to s, or nil for the empty string.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
