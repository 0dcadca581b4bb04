package web

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanizio/hostcat/internal/catalog"
)

// ParseFilter maps listing query parameters onto a catalog.Filter.
// Malformed numbers are dropped rather than rejected, and category <= 0
// means all categories.
func ParseFilter(q url.Values) catalog.Filter {
	f := catalog.Filter{
		NameContains:     strings.TrimSpace(q.Get("hosting_name")),
		FavoriteOnly:     truthy(q.Get("favorite")),
		StatusContains:   strings.TrimSpace(q.Get("status")),
		LocationContains: strings.TrimSpace(q.Get("location")),
		Sort:             catalog.ParseSort(q.Get("sort_by"), q.Get("sort_order")),
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(q.Get("category")), 10, 64); err == nil && id > 0 {
		f.CategoryID = &id
	}
	if p, err := strconv.ParseFloat(strings.TrimSpace(q.Get("max_price")), 64); err == nil &&
		!math.IsNaN(p) && !math.IsInf(p, 0) {
		f.MaxPrice = &p
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("max_risk"))); err == nil {
		f.MaxRisk = &n
	}
	return f
}

// truthy treats any non-empty value except 0, false, and off as set.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "off":
		return false
	}
	return true
}
