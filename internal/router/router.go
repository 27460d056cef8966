// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// gift shuffle server. Routes are grouped into open auth pages, the
// logged-in reveal area and the admin-only panel.
package router

import (
	"io/fs"
	"net/http"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"

	"giftshuffle/internal/handlers"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
	"giftshuffle/web"
)

// Options carries the non-handler settings the router needs.
type Options struct {
	// ThemesDir is served read-only under ThemesURLPrefix.
	ThemesDir       string
	ThemesURLPrefix string

	// Secure marks the CSRF cookie HTTPS-only and turns on HSTS.
	Secure bool

	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionLoader, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.ClientAddr(opts.TrustedProxies))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.Secure))
	r.Use(middleware.LoadSession(sessions))

	// Health check: no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Embedded app assets.
	static, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Theme directory assets.
	if opts.ThemesDir != "" {
		prefix := "/" + strings.Trim(opts.ThemesURLPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.ThemesDir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.Secure))

		// Auth pages, reachable without a completed login.
		r.Get("/login", auth.LoginPage)
		r.Post("/login", auth.LoginSubmit)
		r.Get("/login/2fa", auth.TwoFAPage)
		r.Post("/login/2fa", auth.TwoFASubmit)
		r.Post("/logout", auth.Logout)
		r.Get(middleware.AccessDeniedPath, auth.AccessDenied)

		// Reveal page and its API: any logged-in role.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Get("/", public.Reveal)
			r.Get("/reveal/ws", public.RevealSocket)

			r.Route("/api", func(r chi.Router) {
				r.Get("/themes", public.ThemesJSON)
				r.Get("/themes/{id}", public.ThemeJSON)
				r.Post("/activity", public.RecordCompletion)
			})
		})

		// Admin panel.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(models.RoleAdmin)))

			r.Get("/", admin.Dashboard)
			r.Get("/dashboard", admin.Dashboard)

			r.Get("/settings", admin.SettingsPage)
			r.Post("/settings", admin.SettingsSave)

			r.Route("/themes", func(r chi.Router) {
				r.Get("/", admin.ThemesList)
				r.Post("/", admin.ThemeCreate)
				r.Post("/{id}", admin.ThemeUpdate)
				r.Post("/{id}/activate", admin.ThemeActivate)
				r.Post("/{id}/deactivate", admin.ThemeDeactivate)
				r.Post("/{id}/delete", admin.ThemeDelete)
				r.Post("/{id}/preview", admin.ThemePreviewUpload)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", admin.UsersList)
				r.Post("/", admin.UserCreate)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})

			r.Get("/2fa", auth.TwoFASetupPage)
			r.Post("/2fa", auth.TwoFASetupSubmit)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
