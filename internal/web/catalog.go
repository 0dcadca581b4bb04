// internal/web/catalog.go
//
// Listing handlers.  /hostings_list renders the filter form with the
// category choices; /hostings_table renders only the table, so the form
// can reload it in place.

package web

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/metrics"
)

func (s *Server) handleHostingsList(w http.ResponseWriter, r *http.Request) {
	defer observe("hostings_list", time.Now())

	cats, err := s.store.Categories(r.Context())
	if err != nil {
		s.log.Error("list categories", zap.Error(err))
		metrics.ListingRequestsTotal.WithLabelValues("hostings_list", "error").Inc()
		internalError(w)
		return
	}

	p := s.newPage(w, r, "Hostings")
	p.Categories = cats
	s.render(w, "hostings_list", p)
	metrics.ListingRequestsTotal.WithLabelValues("hostings_list", "ok").Inc()
}

// tableData feeds the hostings_table fragment.
type tableData struct {
	Hostings  []catalog.Hosting
	SortBy    string
	SortOrder string
}

func (s *Server) handleHostingsTable(w http.ResponseWriter, r *http.Request) {
	defer observe("hostings_table", time.Now())

	f := ParseFilter(r.URL.Query())
	rows, err := s.store.List(r.Context(), f)
	if err != nil {
		s.log.Error("list hostings", zap.Error(err))
		metrics.ListingRequestsTotal.WithLabelValues("hostings_table", "error").Inc()
		internalError(w)
		return
	}

	order := "asc"
	if f.Sort.Desc {
		order = "desc"
	}
	s.render(w, "hostings_table", tableData{Hostings: rows, SortBy: f.Sort.Field.String(), SortOrder: order})
	metrics.ListingRequestsTotal.WithLabelValues("hostings_table", "ok").Inc()
}

func observe(page string, start time.Time) {
	metrics.ListingDuration.WithLabelValues(page).Observe(time.Since(start).Seconds())
}
