// internal/session/session.go
//
// hostcat – signed cookie sessions.
//
// Context
//   The site has one shared admin password.  After a successful login the
//   browser carries an “authenticated” flag, plus one-shot flash messages
//   shown on the next page.  Both live in a single cookie:
//
//      base64url(json) "." base64url(HMAC_SHA256(key, json))
//
//   The payload is readable by the client but cannot be altered without the
//   key.  It carries its issue time so stale cookies expire server-side
//   even if the browser ignores Max-Age.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	cookieName = "hostcat_session"
	maxAge     = 14 * 24 * time.Hour
	maxFlashes = 8
)

// Flash is a one-shot message.  Category is "success", "error", or "info".
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Data is the session payload.
type Data struct {
	Authenticated bool    `json:"a,omitempty"`
	Flashes       []Flash `json:"f,omitempty"`
	Issued        int64   `json:"t"`
}

// Manager signs and verifies session cookies.
type Manager struct {
	key    []byte
	secure bool
	now    func() time.Time
}

// NewManager returns a Manager signing with key.  secure marks cookies
// HTTPS-only.
func NewManager(key string, secure bool) *Manager {
	return &Manager{key: []byte(key), secure: secure, now: time.Now}
}

// Load returns the verified session of r, or the zero Data when the cookie
// is missing, forged, or expired.
func (m *Manager) Load(r *http.Request) Data {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Data{}
	}
	payload, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return Data{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Data{}
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil || !hmac.Equal(got, m.sign(raw)) {
		return Data{}
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}
	}
	if m.now().Sub(time.Unix(d.Issued, 0)) > maxAge {
		return Data{}
	}
	return d
}

// Save writes d to the response.
func (m *Manager) Save(w http.ResponseWriter, d Data) {
	if len(d.Flashes) > maxFlashes {
		d.Flashes = d.Flashes[len(d.Flashes)-maxFlashes:]
	}
	if d.Issued == 0 {
		d.Issued = m.now().Unix()
	}
	raw, _ := json.Marshal(d)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw) + "." + base64.RawURLEncoding.EncodeToString(m.sign(raw)),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge / time.Second),
	})
}

// Login marks the session authenticated and queues msg.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, msg string) {
	d := m.Load(r)
	d.Authenticated = true
	d.Issued = m.now().Unix()
	d.Flashes = append(d.Flashes, Flash{Category: "success", Message: msg})
	m.Save(w, d)
}

// Logout clears the flag and queues msg.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request, msg string) {
	d := m.Load(r)
	d.Authenticated = false
	d.Flashes = append(d.Flashes, Flash{Category: "info", Message: msg})
	m.Save(w, d)
}

// AddFlash queues a message without touching the flag.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, msg string) {
	d := m.Load(r)
	d.Flashes = append(d.Flashes, Flash{Category: category, Message: msg})
	m.Save(w, d)
}

// PopFlashes returns queued messages and clears them.  The cookie is only
// rewritten when there was something to clear.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) (Data, []Flash) {
	d := m.Load(r)
	flashes := d.Flashes
	if len(flashes) > 0 {
		d.Flashes = nil
		m.Save(w, d)
	}
	return d, flashes
}

func (m *Manager) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, m.key)
	mac.Write(b)
	return mac.Sum(nil)
}
