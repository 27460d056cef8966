// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"giftshuffle/internal/models"
)

// Resolver merges the theme providers by precedence: database first, then
// the directory scan (only when the database offered nothing), then the
// built-ins for any ID still missing. Every lookup degrades to the
// built-ins; provider errors are logged, never returned.
type Resolver struct {
	db      Provider
	scan    Provider
	dir     *DirProvider
	builtin BuiltinProvider
}

// NewResolver creates a resolver. db may be nil when no database is
// configured; dir may be nil to disable filesystem themes.
func NewResolver(db Provider, dir *DirProvider) *Resolver {
	r := &Resolver{db: db, dir: dir}
	if dir != nil {
		r.scan = dir
	}
	return r
}

// WithScanner replaces the directory scan source, typically with a
// caching Watcher over the same DirProvider.
func (r *Resolver) WithScanner(p Provider) *Resolver {
	r.scan = p
	return r
}

// AvailableThemes returns the merged theme list. The built-ins guarantee
// at least four entries.
func (r *Resolver) AvailableThemes(ctx context.Context) []models.Theme {
	items := r.list(ctx, r.db)
	if len(items) == 0 {
		items = r.list(ctx, r.scan)
	}

	seen := make(map[int64]bool, len(items)+len(builtinThemes))
	merged := make([]models.Theme, 0, len(items)+len(builtinThemes))
	for _, t := range items {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		merged = append(merged, r.attachPath(t))
	}

	for _, t := range Builtins() {
		if !seen[t.ID] {
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// ThemeByID resolves one theme: a database point lookup first, then the
// merged list, then the built-ins. It returns nil when no source has id.
func (r *Resolver) ThemeByID(ctx context.Context, id int64) *models.Theme {
	if r.db != nil {
		t, err := r.db.Find(ctx, id)
		if err != nil {
			slog.Error("theme lookup failed", "provider", r.db.Name(), "theme_id", id, "error", err)
		} else if t != nil {
			resolved := r.attachPath(*t)
			return &resolved
		}
	}

	if t := findIn(r.AvailableThemes(ctx), id); t != nil {
		return t
	}

	t, _ := r.builtin.Find(ctx, id)
	return t
}

// LoadAssets returns the stylesheets and scripts for a theme. Unresolved
// IDs fall back to the first built-in; built-ins have no asset files.
func (r *Resolver) LoadAssets(ctx context.Context, id int64) models.ThemeAssets {
	assets := models.ThemeAssets{CSS: []string{}, JS: []string{}}

	t := r.resolveOrFallback(ctx, id)
	if t.IsDefault || t.Path == "" || r.dir == nil {
		return assets
	}

	assets.CSS = r.globAssets(t, "css", "*.css")
	assets.JS = r.globAssets(t, "js", "*.js")
	return assets
}

// ThemeHTML returns the markup fragment for a theme. Directory themes
// supply theme.html; when it is absent the prize wheel is used.
func (r *Resolver) ThemeHTML(ctx context.Context, id int64) string {
	t := r.resolveOrFallback(ctx, id)
	if t.IsDefault {
		return DefaultThemeHTML(t.ID)
	}
	if t.Path == "" {
		return DefaultThemeHTML(PrizeWheelID)
	}

	raw, err := os.ReadFile(filepath.Join(t.Path, htmlFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read theme html", "theme_id", t.ID, "error", err)
		}
		return DefaultThemeHTML(PrizeWheelID)
	}
	return string(raw)
}

func (r *Resolver) resolveOrFallback(ctx context.Context, id int64) *models.Theme {
	if t := r.ThemeByID(ctx, id); t != nil {
		return t
	}
	t, _ := r.builtin.Find(ctx, PrizeWheelID)
	return t
}

// list reads one provider, logging and discarding any error.
func (r *Resolver) list(ctx context.Context, p Provider) []models.Theme {
	if p == nil {
		return nil
	}
	items, err := p.List(ctx)
	if err != nil {
		slog.Error("theme listing failed", "provider", p.Name(), "error", err)
		return nil
	}
	return items
}

// attachPath fills Path for records that name a directory but were not
// loaded from disk, such as database rows.
func (r *Resolver) attachPath(t models.Theme) models.Theme {
	if t.Path == "" && t.Directory != "" && r.dir != nil {
		t.Path = r.dir.PathFor(t.Directory)
	}
	return t
}

func (r *Resolver) globAssets(t *models.Theme, sub, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(t.Path, sub, pattern))
	if err != nil || len(matches) == 0 {
		return []string{}
	}

	// Glob returns matches in lexical order.
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, r.dir.URL(t.Directory, sub+"/"+filepath.Base(m)))
	}
	return urls
}
