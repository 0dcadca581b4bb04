package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/form"
	"github.com/yanizio/hostcat/internal/ratelimit"
	"github.com/yanizio/hostcat/internal/session"
	"github.com/yanizio/hostcat/internal/view"
)

const sessionKey = "0123456789abcdef0123456789abcdef"

func seed(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	ctx := context.Background()
	m := catalog.NewMemoryStore()
	vps, err := m.CreateCategory(ctx, "VPS")
	require.NoError(t, err)

	b, err := m.Begin(ctx)
	require.NoError(t, err)
	p1, p2 := 4.5, 10.0
	alpha, err := b.Insert(ctx, &catalog.Hosting{Name: "Alpha", Status: catalog.Str("OK"), MinPriceUSD: &p1})
	require.NoError(t, err)
	require.NoError(t, b.Link(ctx, alpha, vps.ID))
	_, err = b.Insert(ctx, &catalog.Hosting{Name: "Bravo", Status: catalog.Str("KYC"), MinPriceUSD: &p2, Favorite: true})
	require.NoError(t, err)
	require.NoError(t, b.Commit())
	return m
}

func newServer(t *testing.T, lim Limits) http.Handler {
	t.Helper()
	views, err := view.New()
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	s := New(seed(t), views, session.NewManager(sessionKey, false),
		form.NewCSRF(sessionKey, nil), string(hash), zap.NewNop())
	return s.Routes(lim, Options{})
}

// client carries cookies between requests.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func (c *client) do(r *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, r)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

var tokenRe = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func (c *client) login(password, referer string) *httptest.ResponseRecorder {
	page := c.get("/")
	m := tokenRe.FindStringSubmatch(page.Body.String())
	require.Len(c.t, m, 2, "csrf token on page")

	body := url.Values{"csrf_token": {m[1]}, "password": {password}}.Encode()
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", referer)
	return c.do(r)
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func TestHostingsTable(t *testing.T) {
	c := newClient(t, newServer(t, Limits{}))

	rec := c.get("/hostings_table?hosting_name=alp")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alpha")
	assert.NotContains(t, rec.Body.String(), "Bravo")

	rec = c.get("/hostings_table?sort_by=price&sort_order=desc&max_price=abc")
	body := rec.Body.String()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, strings.Index(body, "Bravo"), strings.Index(body, "Alpha"), "price desc")

	rec = c.get("/hostings_table?favorite=on")
	assert.Contains(t, rec.Body.String(), "Bravo")
	assert.NotContains(t, rec.Body.String(), "Alpha")

	rec = c.get("/hostings_table?category=1")
	assert.Contains(t, rec.Body.String(), "Alpha")
	assert.NotContains(t, rec.Body.String(), "Bravo")
}

func TestHostingsListShowsCategories(t *testing.T) {
	c := newClient(t, newServer(t, Limits{}))
	rec := c.get("/hostings_list")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="1">VPS</option>`)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestLoginFlow(t *testing.T) {
	c := newClient(t, newServer(t, Limits{}))

	rec := c.login("s3cret", "http://example.com/hostings_list?category=1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/hostings_list?category=1", rec.Header().Get("Location"))

	page := c.get("/").Body.String()
	assert.Contains(t, page, MsgLoggedIn)
	assert.Contains(t, page, `href="/logout"`)

	page = c.get("/").Body.String()
	assert.NotContains(t, page, MsgLoggedIn, "flash shown once")

	r := httptest.NewRequest(http.MethodGet, "/logout", nil)
	r.Header.Set("Referer", "https://evil.example/phish")
	rec = c.do(r)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	page = c.get("/").Body.String()
	assert.Contains(t, page, MsgLoggedOut)
	assert.Contains(t, page, `action="/login"`)
}

func TestLoginRejections(t *testing.T) {
	c := newClient(t, newServer(t, Limits{}))

	rec := c.login("wrong", "")
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, c.get("/").Body.String(), MsgWrongPassword)

	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("password=s3cret"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = c.do(r)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	page := c.get("/").Body.String()
	assert.Contains(t, page, "The form expired.")
	assert.NotContains(t, page, `href="/logout"`)
}

func TestLoginRateLimit(t *testing.T) {
	lim := Limits{Login: ratelimit.New([]ratelimit.Rule{{Limit: 1, Period: time.Minute}}, 8)}
	c := newClient(t, newServer(t, lim))

	c.login("wrong", "http://example.com/hostings_list")
	c.get("/") // drain the flash

	rec := c.login("s3cret", "http://example.com/hostings_list")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/hostings_list", rec.Header().Get("Location"))

	page := c.get("/").Body.String()
	assert.Contains(t, page, "Too many login attempts.")
	assert.NotContains(t, page, `href="/logout"`)
}

func TestDefaultRateLimit(t *testing.T) {
	lim := Limits{Default: ratelimit.New([]ratelimit.Rule{{Limit: 2, Period: 24 * time.Hour}}, 8)}
	c := newClient(t, newServer(t, lim))

	assert.Equal(t, http.StatusOK, c.get("/").Code)
	assert.Equal(t, http.StatusOK, c.get("/xray_client_setup").Code)
	rec := c.get("/hostings_list")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too Many Requests")

	assert.Equal(t, http.StatusOK, c.get("/healthz").Code, "health is never limited")
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(url.Values{
		"category":     {"3"},
		"max_price":    {"12.5"},
		"hosting_name": {" alp "},
		"favorite":     {"yes"},
		"max_risk":     {"40"},
		"location":     {"NL"},
		"sort_by":      {"risk"},
		"sort_order":   {"DESC"},
	})
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(3), *f.CategoryID)
	assert.Equal(t, 12.5, *f.MaxPrice)
	assert.Equal(t, "alp", f.NameContains)
	assert.True(t, f.FavoriteOnly)
	assert.Equal(t, 40, *f.MaxRisk)
	assert.Equal(t, "NL", f.LocationContains)
	assert.Equal(t, catalog.Sort{Field: catalog.SortRisk, Desc: true}, f.Sort)

	f = ParseFilter(url.Values{
		"category":   {"0"},
		"max_price":  {"cheap"},
		"max_risk":   {"1.5"},
		"favorite":   {"off"},
		"sort_by":    {"nope"},
		"sort_order": {"desc"},
	})
	assert.Nil(t, f.CategoryID)
	assert.Nil(t, f.MaxPrice)
	assert.Nil(t, f.MaxRisk)
	assert.False(t, f.FavoriteOnly)
	assert.Equal(t, catalog.Sort{Field: catalog.SortName}, f.Sort)

	for _, v := range []string{"", "0", "false", "FALSE", "off"} {
		assert.False(t, truthy(v), v)
	}
	assert.Nil(t, ParseFilter(url.Values{"max_price": {"NaN"}}).MaxPrice)
}

func TestBackTo(t *testing.T) {
	cases := map[string]string{
		"":                                 "/",
		"http://example.com/hostings_list": "/hostings_list",
		"http://example.com/a?b=c":         "/a?b=c",
		"https://other.example/x":          "/",
		"/relative":                        "/relative",
		"//evil.example/x":                 "/",
		"http://example.com":               "/",
	}
	for ref, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if ref != "" {
			r.Header.Set("Referer", ref)
		}
		assert.Equal(t, want, backTo(r), ref)
	}
}
