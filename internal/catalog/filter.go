// internal/catalog/filter.go
//
// Listing filters and the sort-field table.
//
// Context
// -------
// One Filter value drives both the SQL builder (query.go) and the in-memory
// store (memory.go).  Sorting goes through an explicit table of recognized
// names; an unknown name selects the hosting_name entry.
//
// Ordering rules shared by both paths:
//   - absent (NULL) values sort last in either direction,
//   - ties fall back to hosting_id ascending.
package catalog

import (
	"cmp"
	"strings"
)

// Filter lists optional predicates.  Nil pointers, false, and empty strings
// mean "no constraint".  All set predicates combine with AND.
type Filter struct {
	CategoryID       *int64
	MaxPrice         *float64
	NameContains     string
	FavoriteOnly     bool
	StatusContains   string
	MaxRisk          *int
	LocationContains string

	Sort Sort
}

// Sort selects the ordering column and direction.
type Sort struct {
	Field SortField
	Desc  bool
}

// SortField is an index into sortFields.  The zero value is hosting_name.
type SortField int

const (
	SortName SortField = iota
	SortURL
	SortStatus
	SortRisk
	SortAdvantages
	SortDisadvantages
	SortHostingLocation
	SortServersLocation
	SortPrice
	SortFavorite
	SortID
)

type sortSpec struct {
	column string
	// cmp compares two present values; present reports whether h has one.
	present func(h *Hosting) bool
	cmp     func(a, b *Hosting) int
}

var sortFields = map[SortField]sortSpec{
	SortName: {"h.hosting_name", always, func(a, b *Hosting) int { return strings.Compare(a.Name, b.Name) }},
	SortURL:  {"h.url", func(h *Hosting) bool { return h.URL != nil }, strCmp(func(h *Hosting) *string { return h.URL })},
	SortStatus: {"h.status", func(h *Hosting) bool { return h.Status != nil },
		strCmp(func(h *Hosting) *string { return h.Status })},
	SortRisk: {"h.risk", func(h *Hosting) bool { return h.Risk != nil },
		func(a, b *Hosting) int { return cmp.Compare(*a.Risk, *b.Risk) }},
	SortAdvantages: {"h.advantages", func(h *Hosting) bool { return h.Advantages != nil },
		strCmp(func(h *Hosting) *string { return h.Advantages })},
	SortDisadvantages: {"h.disadvantages", func(h *Hosting) bool { return h.Disadvantages != nil },
		strCmp(func(h *Hosting) *string { return h.Disadvantages })},
	SortHostingLocation: {"h.hosting_location", func(h *Hosting) bool { return h.HostingLocation != nil },
		strCmp(func(h *Hosting) *string { return h.HostingLocation })},
	SortServersLocation: {"h.servers_location", func(h *Hosting) bool { return h.ServersLocation != nil },
		strCmp(func(h *Hosting) *string { return h.ServersLocation })},
	SortPrice: {"h.min_price_in_dollars", func(h *Hosting) bool { return h.MinPriceUSD != nil },
		func(a, b *Hosting) int { return cmp.Compare(*a.MinPriceUSD, *b.MinPriceUSD) }},
	SortFavorite: {"h.favorite", always, func(a, b *Hosting) int { return cmp.Compare(b2i(a.Favorite), b2i(b.Favorite)) }},
	SortID:       {"h.hosting_id", always, func(a, b *Hosting) int { return cmp.Compare(a.ID, b.ID) }},
}

// sortNames maps request-level names to fields.  Column names come first so
// links built against the original column-named API keep working.
var sortNames = map[string]SortField{
	"hosting_name":         SortName,
	"url":                  SortURL,
	"status":               SortStatus,
	"risk":                 SortRisk,
	"advantages":           SortAdvantages,
	"disadvantages":        SortDisadvantages,
	"hosting_location":     SortHostingLocation,
	"servers_location":     SortServersLocation,
	"min_price_in_dollars": SortPrice,
	"favorite":             SortFavorite,
	"hosting_id":           SortID,

	"name":            SortName,
	"price":           SortPrice,
	"minPriceUsd":     SortPrice,
	"hostingLocation": SortHostingLocation,
	"serversLocation": SortServersLocation,
	"id":              SortID,
}

// ParseSort resolves a field name and direction.  An unknown field yields
// name ascending whatever direction was asked for; otherwise any direction
// other than "desc" ascends.
func ParseSort(field, direction string) Sort {
	f, ok := sortNames[field]
	if !ok {
		return Sort{Field: SortName}
	}
	return Sort{Field: f, Desc: strings.EqualFold(strings.TrimSpace(direction), "desc")}
}

// String returns the canonical column name for f.
func (f SortField) String() string {
	sf, ok := sortFields[f]
	if !ok {
		sf = sortFields[SortName]
	}
	return strings.TrimPrefix(sf.column, "h.")
}

func (s Sort) field() sortSpec {
	sf, ok := sortFields[s.Field]
	if !ok {
		return sortFields[SortName]
	}
	return sf
}

// Compare orders a and b under s.  Absent values go last regardless of
// direction, and equal keys fall back to ascending ID.
func (s Sort) Compare(a, b *Hosting) int {
	sf := s.field()
	pa, pb := sf.present(a), sf.present(b)
	switch {
	case pa && !pb:
		return -1
	case !pa && pb:
		return 1
	case pa && pb:
		c := sf.cmp(a, b)
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// Match reports whether h satisfies every predicate in f.  categoryIDs are
// the category links of h.
func (f Filter) Match(h *Hosting, categoryIDs []int64) bool {
	if f.CategoryID != nil && !containsID(categoryIDs, *f.CategoryID) {
		return false
	}
	if f.MaxPrice != nil && (h.MinPriceUSD == nil || *h.MinPriceUSD > *f.MaxPrice) {
		return false
	}
	if f.NameContains != "" && !containsFold(h.Name, f.NameContains) {
		return false
	}
	if f.FavoriteOnly && !h.Favorite {
		return false
	}
	if f.StatusContains != "" && (h.Status == nil || !containsFold(*h.Status, f.StatusContains)) {
		return false
	}
	if f.MaxRisk != nil && (h.Risk == nil || *h.Risk > *f.MaxRisk) {
		return false
	}
	if f.LocationContains != "" {
		inHosting := h.HostingLocation != nil && containsFold(*h.HostingLocation, f.LocationContains)
		inServers := h.ServersLocation != nil && containsFold(*h.ServersLocation, f.LocationContains)
		if !inHosting && !inServers {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func always(*Hosting) bool { return true }

func strCmp(get func(*Hosting) *string) func(a, b *Hosting) int {
	return func(a, b *Hosting) int { return strings.Compare(*get(a), *get(b)) }
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
