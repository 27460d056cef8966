// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"giftshuffle/internal/animation"
	"giftshuffle/internal/cache"
	"giftshuffle/internal/markdown"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
	"giftshuffle/internal/render"
	"giftshuffle/internal/theme"
)

const defaultSiteName = "Gift Shuffle"

// SettingReader looks up one setting. *store.SettingStore satisfies it.
type SettingReader interface {
	Get(ctx context.Context, name string) (string, bool)
}

// ActivityLogger appends to the activity log. *store.ActivityStore
// satisfies it.
type ActivityLogger interface {
	Log(ctx context.Context, userID int64, activityType, details, ip string) (int64, bool)
}

// Public groups the handlers behind the login wall that run a shuffle:
// the reveal page, its websocket sequencer and the theme JSON API. The
// rendered stage of each theme is kept in the Valkey page cache.
type Public struct {
	renderer  *render.Renderer
	themes    *theme.Resolver
	settings  SettingReader
	activity  ActivityLogger
	pageCache *cache.PageCache
	unit      time.Duration
	upgrader  websocket.Upgrader
}

// NewPublic creates a new Public handler group. pageCache may be nil to
// disable stage caching. unit is the length of one animation time-unit.
func NewPublic(renderer *render.Renderer, themes *theme.Resolver, settings SettingReader, activity ActivityLogger, pageCache *cache.PageCache, unit time.Duration) *Public {
	return &Public{
		renderer:  renderer,
		themes:    themes,
		settings:  settings,
		activity:  activity,
		pageCache: pageCache,
		unit:      unit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Reveal renders the reveal page for the active theme, or for the theme
// named by ?theme=ID.
func (p *Public) Reveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t := p.requestedTheme(r)

	stage, err := p.stage(ctx, t)
	if err != nil {
		slog.Error("render reveal stage failed", "theme_id", t.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	siteName := p.setting(ctx, models.SettingSiteName, defaultSiteName)
	p.renderer.Page(w, r, "reveal", &render.PageData{
		Title: siteName,
		Data: map[string]any{
			"SiteName":     siteName,
			"EventTitle":   p.setting(ctx, models.SettingEventTitle, siteName),
			"Theme":        t,
			"Themes":       p.themes.AvailableThemes(ctx),
			"Stage":        stage,
			"Assets":       p.themes.LoadAssets(ctx, t.ID),
			"Sequence":     p.sequence(),
			"SoundEnabled": p.soundEnabled(ctx),
			"IsAdmin":      middleware.HasRole(ctx, string(models.RoleAdmin)),
			"WSPath":       "/reveal/ws?theme=" + strconv.FormatInt(t.ID, 10),
		},
	})
}

// stage returns the rendered theme markup, from the page cache when
// possible. The fragment holds nothing user-specific.
func (p *Public) stage(ctx context.Context, t *models.Theme) (template.HTML, error) {
	key := cache.ThemeKey(t.ID)
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		return template.HTML(cached), nil
	}

	seq := p.sequence()
	out, err := p.renderer.Fragment("stage", map[string]any{
		"Theme":    t,
		"HTML":     template.HTML(p.themes.ThemeHTML(ctx, t.ID)),
		"Sparkles": animation.Sparkles(seq.SparkleCount, nil),
	})
	if err != nil {
		return "", err
	}

	p.pageCache.Set(ctx, key, out)
	return template.HTML(out), nil
}

// requestedTheme resolves ?theme=ID, falling back to the active_theme_id
// setting and finally to the first built-in.
func (p *Public) requestedTheme(r *http.Request) *models.Theme {
	ctx := r.Context()

	if raw := r.URL.Query().Get("theme"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if t := p.themes.ThemeByID(ctx, id); t != nil {
				return t
			}
		}
	}
	if t := p.themes.ThemeByID(ctx, activeThemeID(ctx, p.settings)); t != nil {
		return t
	}
	return p.themes.ThemeByID(ctx, theme.PrizeWheelID)
}

func (p *Public) sequence() animation.Sequence {
	return animation.DefaultSequence(p.unit)
}

func (p *Public) setting(ctx context.Context, name, fallback string) string {
	if v, ok := p.settings.Get(ctx, name); ok && v != "" {
		return v
	}
	return fallback
}

func (p *Public) soundEnabled(ctx context.Context) bool {
	on, err := strconv.ParseBool(p.setting(ctx, models.SettingSoundEnabled, "true"))
	return err != nil || on
}

// activeThemeID reads the active_theme_id setting, defaulting to the
// first built-in when unset or malformed.
func activeThemeID(ctx context.Context, settings SettingReader) int64 {
	v, ok := settings.Get(ctx, models.SettingActiveTheme)
	if !ok {
		return theme.PrizeWheelID
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return theme.PrizeWheelID
	}
	return id
}

// --- JSON API ---

// themeView is the API representation of a theme.
type themeView struct {
	models.Theme
	DescriptionHTML template.HTML      `json:"description_html"`
	Assets          models.ThemeAssets `json:"assets"`
}

// ThemesJSON lists every available theme with its assets.
func (p *Public) ThemesJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	available := p.themes.AvailableThemes(ctx)

	views := make([]themeView, 0, len(available))
	for _, t := range available {
		views = append(views, p.view(ctx, t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_theme_id": activeThemeID(ctx, p.settings),
		"themes":          views,
	})
}

// ThemeJSON returns one theme with its assets and animation sequence.
func (p *Public) ThemeJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid theme id"})
		return
	}
	t := p.themes.ThemeByID(ctx, id)
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "theme not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"theme":    p.view(ctx, *t),
		"sequence": p.sequence(),
	})
}

func (p *Public) view(ctx context.Context, t models.Theme) themeView {
	return themeView{
		Theme:           t,
		DescriptionHTML: markdown.Render(t.Description),
		Assets:          p.themes.LoadAssets(ctx, t.ID),
	}
}

// completionRequest is the body of POST /api/activity.
type completionRequest struct {
	AnimationID string `json:"animation_id"`
	ThemeID     int64  `json:"theme_id"`
}

// maxActivityBody caps the completion report body.
const maxActivityBody = 4 << 10

// RecordCompletion logs a shuffle the browser finished showing.
func (p *Public) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	var req completionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxActivityBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.AnimationID = strings.TrimSpace(req.AnimationID)
	if req.AnimationID == "" || len(req.AnimationID) > 64 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "animation_id is required"})
		return
	}

	details := fmt.Sprintf("theme=%d animation=%s", req.ThemeID, req.AnimationID)
	id, ok := p.activity.Log(ctx, sess.UserID, models.ActivityShuffleDone, details, middleware.ClientIP(r))
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "activity not recorded"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response failed", "error", err)
	}
}
