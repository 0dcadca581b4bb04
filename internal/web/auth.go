// internal/web/auth.go
//
// Shared-password login.
//
// Context
// -------
// There are no user accounts.  Operators configure one bcrypt hash; a
// matching password sets the session's authenticated flag.  Every outcome
// redirects back to the page the form was posted from, carrying a flash.
//
// Order of checks on POST /login: rate limit (middleware), CSRF token,
// password.  A CSRF failure never reaches bcrypt.
//
//------------------------------------------------------------------------------

package web

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/hostcat/internal/form"
	"github.com/yanizio/hostcat/internal/metrics"
	"github.com/yanizio/hostcat/internal/requestinfo"
)

// Flash texts.
const (
	MsgLoggedIn      = "Logged in."
	MsgWrongPassword = "Wrong password."
	MsgLoggedOut     = "You have logged out."
	MsgTooMany       = "Too many login attempts.  Try again later."
	MsgFormExpired   = "The form expired.  Please try again."
)

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	back := backTo(r)

	if !s.csrf.Verify(r.PostFormValue(form.FieldName)) {
		metrics.LoginAttemptsTotal.WithLabelValues("csrf").Inc()
		s.sessions.AddFlash(w, r, "error", MsgFormExpired)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if !s.checkPassword(r.PostFormValue("password")) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		s.log.Info("login failed", zap.String("ip", requestinfo.Key(r)))
		s.sessions.AddFlash(w, r, "error", MsgWrongPassword)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info("login", zap.String("ip", requestinfo.Key(r)))
	s.sessions.Login(w, r, MsgLoggedIn)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// loginLimited answers POST /login once the login rules are exhausted.
func (s *Server) loginLimited(w http.ResponseWriter, r *http.Request) {
	metrics.LoginAttemptsTotal.WithLabelValues("limited").Inc()
	s.sessions.AddFlash(w, r, "error", MsgTooMany)
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r, MsgLoggedOut)
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (s *Server) checkPassword(pw string) bool {
	if len(s.passwordHash) == 0 || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.passwordHash, []byte(pw)) == nil
}

// backTo returns the Referer's path when it points at this host, else "/".
// Foreign referers are ignored so the redirect cannot leave the site.
func backTo(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || u.Path == "" || u.Path[0] != '/' {
		return "/"
	}
	if len(u.Path) > 1 && u.Path[1] == '/' {
		return "/" // protocol-relative
	}
	return u.RequestURI()
}
