// internal/web/web.go
//
// hostcat – HTTP surface.
//
// Context
// -------
// One chi router serves the catalog pages, the shared-password login, and
// the operational endpoints.  Middleware order, outermost first:
//
//	Recoverer → ForceHTTPS → Security → requestinfo.Enrich → route groups
//
// Route groups
// ------------
//   - /healthz, /metrics, /static/*   no limit
//   - POST /login                     Limits.Login, flashes on rejection
//   - everything else                 Limits.Default, plain 429
//
// Notes
// -----
//   - Handlers never see a *sqlx.DB; they read through catalog.Reader.
//   - Oxford commas, two spaces after periods.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/form"
	"github.com/yanizio/hostcat/internal/middleware"
	"github.com/yanizio/hostcat/internal/ratelimit"
	"github.com/yanizio/hostcat/internal/requestinfo"
	"github.com/yanizio/hostcat/internal/session"
	"github.com/yanizio/hostcat/internal/view"
)

// Limits holds the per-group limiters.  A nil limiter disables its group.
type Limits struct {
	Default *ratelimit.Limiter
	Login   *ratelimit.Limiter
}

// Options tunes the outer middleware.
type Options struct {
	ForceHTTPS bool
	TrustProxy bool
	Geo        requestinfo.GeoDB // optional
}

// Server bundles handler dependencies.
type Server struct {
	store        catalog.Reader
	views        *view.Engine
	sessions     *session.Manager
	csrf         *form.CSRF
	passwordHash []byte
	log          *zap.Logger
}

// New returns a Server.  passwordHash is a bcrypt hash; empty disables
// login.
func New(store catalog.Reader, views *view.Engine, sessions *session.Manager,
	csrf *form.CSRF, passwordHash string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.L()
	}
	return &Server{
		store:        store,
		views:        views,
		sessions:     sessions,
		csrf:         csrf,
		passwordHash: []byte(passwordHash),
		log:          log.Named("web"),
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes(lim Limits, opt Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(opt.ForceHTTPS, opt.TrustProxy))
	r.Use(middleware.Security(opt.ForceHTTPS))
	r.Use(requestinfo.Middleware{TrustProxy: opt.TrustProxy, Geo: opt.Geo, Log: s.log}.Enrich)

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", view.Static())

	r.Group(func(r chi.Router) {
		if lim.Login != nil {
			r.Use(middleware.RateLimit(lim.Login, "login", http.HandlerFunc(s.loginLimited)))
		}
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		if lim.Default != nil {
			r.Use(middleware.RateLimit(lim.Default, "default", nil))
		}
		r.Get("/", s.page("index", "Home"))
		r.Get("/hostings_list", s.handleHostingsList)
		r.Get("/hostings_table", s.handleHostingsTable)
		r.Get("/logout", s.handleLogout)
		r.Get("/xray_client_setup", s.page("xray_client_setup", "Xray client setup"))
		r.Get("/xray_server_setup", s.page("xray_server_setup", "Xray server setup"))
	})

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

/*──────────────────────────── page plumbing ────────────────────────────────*/

// Page is the data every full page receives.
type Page struct {
	Title         string
	Authenticated bool
	Flashes       []session.Flash
	CSRF          string
	Info          *requestinfo.RequestInfo
	Categories    []catalog.Category
}

// newPage pops flashes, issues a CSRF token, and fills the chrome fields.
func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title string) Page {
	d, flashes := s.sessions.PopFlashes(w, r)
	tok, err := s.csrf.Token()
	if err != nil {
		s.log.Warn("csrf token", zap.Error(err))
	}
	return Page{
		Title:         title,
		Authenticated: d.Authenticated,
		Flashes:       flashes,
		CSRF:          tok,
		Info:          requestinfo.FromContext(r.Context()),
	}
}

func (s *Server) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, name, s.newPage(w, r, title))
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.views.Render(w, name, data); err != nil {
		s.log.Error("render", zap.String("template", name), zap.Error(err))
		internalError(w)
	}
}

func internalError(w http.ResponseWriter) {
	http.Error(w, "internal error", http.StatusInternalServerError)
}
