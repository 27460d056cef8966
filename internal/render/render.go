// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the reveal page, the
// sign-in flow and the admin interface. It supports full-page and HTMX
// partial rendering, automatically detecting the request type via the
// HX-Request header.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"giftshuffle/internal/markdown"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active sidebar section (e.g., "dashboard", "themes")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Status    int            // Response status; zero means 200
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	fragments *template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the admin layout (they have their own <html>, <head>, etc.).
var standaloneTemplates = map[string]bool{
	"login":         true,
	"2fa_verify":    true,
	"access_denied": true,
	"reveal":        true,
}

// fragmentTemplates are partials rendered to bytes rather than pages.
var fragmentTemplates = map[string]bool{
	"stage": true,
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Each admin page template is paired with the base layout.
// When devMode is true, pages show a development banner.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "nav-link is-active"
				}
				return "nav-link"
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"isDev": func() bool {
				return devMode
			},
			"markdown": markdown.Render,
			"formatTime": func(t time.Time) string {
				if t.IsZero() {
					return ""
				}
				return t.Format("2006-01-02 15:04:05")
			},
			"derefID": func(id *int64) string {
				if id == nil {
					return "-"
				}
				return fmt.Sprintf("%d", *id)
			},
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	var fragmentFiles []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".html") || name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		if fragmentTemplates[tmplName] {
			fragmentFiles = append(fragmentFiles, "templates/"+name)
			continue
		}

		var tmpl *template.Template
		if standaloneTemplates[tmplName] {
			tmpl, err = template.New(name).Funcs(r.funcMap).ParseFS(templateFS, "templates/"+name)
		} else {
			tmpl, err = template.New("base.html").Funcs(r.funcMap).ParseFS(
				templateFS, "templates/base.html", "templates/"+name,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	if len(fragmentFiles) > 0 {
		r.fragments, err = template.New("fragments").Funcs(r.funcMap).ParseFS(templateFS, fragmentFiles...)
		if err != nil {
			return nil, fmt.Errorf("parse fragments: %w", err)
		}
	}

	return r, nil
}

// Page renders a full page or an HTMX partial, depending on the request
// headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}
	if isHTMX(r) && !standaloneTemplates[name] {
		execName = "content"
	}

	// Render into a buffer so a template error still yields a clean 500.
	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if data.Status != 0 {
		w.WriteHeader(data.Status)
	}
	w.Write(buf.Bytes())
}

// Fragment renders a partial template to bytes. Fragments carry no
// request-scoped data, which makes the output safe to cache.
func (rn *Renderer) Fragment(name string, data any) ([]byte, error) {
	if rn.fragments == nil || rn.fragments.Lookup(name+".html") == nil {
		return nil, fmt.Errorf("fragment %q not found", name)
	}
	var buf bytes.Buffer
	if err := executeTemplate(&buf, rn.fragments, name+".html", data); err != nil {
		return nil, fmt.Errorf("render fragment %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
