// internal/view/render.go
//
// Central view engine: embedded templates, func-map injection, and one
// parsed *template.Template* set per page.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML (tests, fragments).
//
// Layout
// ------
// Every page set is `layout.html` + `partials/*.html` + `pages/<name>.html`.
// Fragments (`fragments/<name>.html`) are parsed with the partials only, so
// they can be served to fetch() calls without the page chrome.
//
// execName() chooses the template to execute:
//   – If the set has "<name>.html" (the file itself), run that.  Pages
//     call {{ template "layout" . }} and define their own "content".
//   – Else fall back to "<name>", a root template defined via {{ define }}.
//
// Rendering goes through a buffer so a template error never leaves a half
// page on the wire.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
)

//go:embed templates
var files embed.FS

//go:embed static
var static embed.FS

// Engine holds the parsed template sets keyed by logical name.
type Engine struct {
	sets map[string]*template.Template
}

// New parses every page and fragment under templates/.
func New() (*Engine, error) {
	e := &Engine{sets: map[string]*template.Template{}}

	add := func(dir string, withLayout bool) error {
		matches, err := fs.Glob(files, "templates/"+dir+"/*.html")
		if err != nil {
			return err
		}
		for _, m := range matches {
			name := strings.TrimSuffix(path.Base(m), ".html")
			patterns := []string{"templates/partials/*.html"}
			if withLayout {
				patterns = append(patterns, "templates/layout.html")
			}
			patterns = append(patterns, m)

			t, err := template.New(name).Funcs(funcMap()).ParseFS(files, patterns...)
			if err != nil {
				return fmt.Errorf("parse %s: %w", m, err)
			}
			e.sets[name] = t
		}
		return nil
	}

	if err := add("pages", true); err != nil {
		return nil, err
	}
	if err := add("fragments", false); err != nil {
		return nil, err
	}
	return e, nil
}

// Render executes the named set and streams it to w with status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data any) error {
	html, err := e.RenderToString(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write([]byte(html))
	return err
}

// RenderToString mirrors Render, but returns the markup.
func (e *Engine) RenderToString(name string, data any) (template.HTML, error) {
	t, ok := e.sets[name]
	if !ok {
		return "", fmt.Errorf("view: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Static serves the embedded assets under /static/.
func Static() http.Handler {
	sub, _ := fs.Sub(static, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

func funcMap() template.FuncMap {
	fm := template.FuncMap{
		"dict":  dict,
		"deref": deref,
		"price": price,
		"risk":  risk,
	}
	for k, v := range uaFuncMap() {
		fm[k] = v
	}
	return fm
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// deref prints an optional string, or "" when absent.
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// price prints an optional amount without trailing zeros: 5, 4.5, 12.99.
func price(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func risk(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
