// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the gift shuffle server.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"giftshuffle/internal/cache"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
	"giftshuffle/internal/render"
	"giftshuffle/internal/storage"
	"giftshuffle/internal/store"
	"giftshuffle/internal/theme"
)

// recentActivityLimit is how many log entries the dashboard shows.
const recentActivityLimit = 25

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer      *render.Renderer
	settingStore  *store.SettingStore
	activityStore *store.ActivityStore
	themeStore    *store.ThemeStore
	userStore     *store.UserStore
	themes        *theme.Resolver
	storageClient *storage.Client
	pageCache     *cache.PageCache
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// storageClient may be nil if S3 is not configured; pageCache may be nil
// to disable stage caching.
func NewAdmin(renderer *render.Renderer, settingStore *store.SettingStore, activityStore *store.ActivityStore, themeStore *store.ThemeStore, userStore *store.UserStore, themes *theme.Resolver, storageClient *storage.Client, pageCache *cache.PageCache) *Admin {
	return &Admin{
		renderer:      renderer,
		settingStore:  settingStore,
		activityStore: activityStore,
		themeStore:    themeStore,
		userStore:     userStore,
		themes:        themes,
		storageClient: storageClient,
		pageCache:     pageCache,
	}
}

// Dashboard renders the admin dashboard with recent activity.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activity, err := a.activityStore.Recent(ctx, recentActivityLimit)
	if err != nil {
		slog.Error("load recent activity failed", "error", err)
	}
	users, err := a.userStore.List(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Activity":    activity,
			"ActiveTheme": a.themes.ThemeByID(ctx, activeThemeID(ctx, a.settingStore)),
			"ThemeCount":  len(a.themes.AvailableThemes(ctx)),
			"UserCount":   len(users),
		},
	})
}

// --- Settings ---

// SettingsPage renders the settings form.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	a.renderSettings(w, r, "", nil)
}

// SettingsSave stores the settings form in one transaction.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	siteName := strings.TrimSpace(r.FormValue("site_name"))
	eventTitle := strings.TrimSpace(r.FormValue("event_title"))
	if msg := validateSettings(siteName, eventTitle); msg != "" {
		a.renderSettings(w, r, msg, nil)
		return
	}

	themeID, err := strconv.ParseInt(r.FormValue("active_theme_id"), 10, 64)
	if err != nil || a.themes.ThemeByID(ctx, themeID) == nil {
		a.renderSettings(w, r, "Choose one of the available themes.", nil)
		return
	}

	values := map[string]string{
		models.SettingSiteName:     siteName,
		models.SettingEventTitle:   eventTitle,
		models.SettingActiveTheme:  strconv.FormatInt(themeID, 10),
		models.SettingSoundEnabled: strconv.FormatBool(r.FormValue("sound_enabled") == "true"),
	}
	if err := a.settingStore.SetMany(ctx, values, sess.UserID); err != nil {
		slog.Error("save settings failed", "error", err)
		a.renderSettings(w, r, "Failed to save settings.", nil)
		return
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	a.activityStore.Log(ctx, sess.UserID, models.ActivitySettingUpdated, strings.Join(names, ","), middleware.ClientIP(r))
	a.pageCache.InvalidateAll(ctx)

	slog.Info("settings updated", "user", sess.Username)
	a.renderSettings(w, r, "", []render.Flash{{Type: "success", Message: "Settings saved."}})
}

func (a *Admin) renderSettings(w http.ResponseWriter, r *http.Request, errMsg string, flashes []render.Flash) {
	ctx := r.Context()
	settings, err := a.settingStore.All(ctx)
	if err != nil {
		slog.Error("load settings failed", "error", err)
		settings = models.Settings{}
	}

	data := map[string]any{
		"SiteName":      settings.Get(models.SettingSiteName, defaultSiteName),
		"EventTitle":    settings.Get(models.SettingEventTitle, ""),
		"ActiveThemeID": settings.Int64(models.SettingActiveTheme, theme.PrizeWheelID),
		"SoundEnabled":  settings.Bool(models.SettingSoundEnabled, true),
		"Themes":        a.themes.AvailableThemes(ctx),
	}
	status := 0
	if errMsg != "" {
		data["Error"] = errMsg
		status = http.StatusUnprocessableEntity
	}

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Settings",
		Section: "settings",
		Status:  status,
		Data:    data,
		Flashes: flashes,
	})
}

// --- Themes ---

// ThemesList renders the theme management page.
func (a *Admin) ThemesList(w http.ResponseWriter, r *http.Request) {
	a.renderThemes(w, r, map[string]any{})
}

// ThemeCreate adds a database theme from the form.
func (a *Admin) ThemeCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	directory := strings.TrimSpace(r.FormValue("directory"))
	form := map[string]any{"Name": name, "Description": description, "Directory": directory}

	if msg := validateTheme(name, description, directory); msg != "" {
		form["Error"] = msg
		a.renderThemes(w, r, form)
		return
	}

	t := &models.Theme{
		Name:        name,
		Description: description,
		Directory:   directory,
		IsActive:    true,
	}
	if err := a.themeStore.Create(ctx, t); err != nil {
		slog.Error("create theme failed", "error", err)
		form["Error"] = "Failed to create theme."
		a.renderThemes(w, r, form)
		return
	}

	a.themeChanged(ctx, r, sess.UserID, t.ID, "created")
	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// ThemeUpdate changes a theme's name, description and directory.
func (a *Admin) ThemeUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	id, ok := themeIDParam(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	directory := strings.TrimSpace(r.FormValue("directory"))
	if msg := validateTheme(name, description, directory); msg != "" {
		a.renderThemes(w, r, map[string]any{"Error": msg, "Name": name, "Description": description, "Directory": directory})
		return
	}

	if err := a.themeStore.Update(ctx, id, name, description, directory); err != nil {
		a.themeStoreError(w, err, "update theme failed", id)
		return
	}

	a.themeChanged(ctx, r, sess.UserID, id, "updated")
	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// ThemeActivate makes a theme available on the reveal page.
func (a *Admin) ThemeActivate(w http.ResponseWriter, r *http.Request) {
	a.setThemeActive(w, r, true)
}

// ThemeDeactivate hides a theme from the reveal page.
func (a *Admin) ThemeDeactivate(w http.ResponseWriter, r *http.Request) {
	a.setThemeActive(w, r, false)
}

func (a *Admin) setThemeActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	id, ok := themeIDParam(w, r)
	if !ok {
		return
	}
	if err := a.themeStore.SetActive(ctx, id, active); err != nil {
		a.themeStoreError(w, err, "set theme active failed", id)
		return
	}

	action := "deactivated"
	if active {
		action = "activated"
	}
	a.themeChanged(ctx, r, sess.UserID, id, action)
	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// ThemeDelete removes a database theme and its uploaded preview.
func (a *Admin) ThemeDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	id, ok := themeIDParam(w, r)
	if !ok {
		return
	}

	preview := a.storedPreview(ctx, id)

	if err := a.themeStore.Delete(ctx, id); err != nil {
		a.themeStoreError(w, err, "delete theme failed", id)
		return
	}

	a.deletePreviewObject(ctx, id, preview, "")

	a.themeChanged(ctx, r, sess.UserID, id, "deleted")
	http.Redirect(w, r, "/admin/themes", http.StatusSeeOther)
}

// storedPreview returns the preview URL recorded for a managed theme, or
// "" when it has none or cannot be read.
func (a *Admin) storedPreview(ctx context.Context, id int64) string {
	managed, err := a.themeStore.List(ctx)
	if err != nil {
		return ""
	}
	for _, t := range managed {
		if t.ID == id {
			return t.PreviewImage
		}
	}
	return ""
}

// deletePreviewObject removes the stored object behind previewURL unless
// it is keepKey. URLs outside the bucket are left alone.
func (a *Admin) deletePreviewObject(ctx context.Context, themeID int64, previewURL, keepKey string) {
	if a.storageClient == nil || previewURL == "" {
		return
	}
	key, ok := a.storageClient.ExtractKey(previewURL)
	if !ok || key == keepKey {
		return
	}
	if err := a.storageClient.Delete(ctx, key); err != nil {
		slog.Warn("delete theme preview failed", "theme_id", themeID, "key", key, "error", err)
	}
}

func (a *Admin) renderThemes(w http.ResponseWriter, r *http.Request, data map[string]any) {
	ctx := r.Context()

	managed, err := a.themeStore.List(ctx)
	if err != nil {
		slog.Error("list themes failed", "error", err)
	}

	for _, k := range []string{"Name", "Description", "Directory"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	data["Managed"] = managed
	data["Available"] = a.themes.AvailableThemes(ctx)
	data["UploadsEnabled"] = a.storageClient != nil

	status := 0
	if _, failed := data["Error"]; failed {
		status = http.StatusUnprocessableEntity
	}

	a.renderer.Page(w, r, "themes", &render.PageData{
		Title:   "Themes",
		Section: "themes",
		Status:  status,
		Data:    data,
	})
}

// themeChanged records a theme mutation and drops cached stages.
func (a *Admin) themeChanged(ctx context.Context, r *http.Request, userID, themeID int64, action string) {
	a.activityStore.Log(ctx, userID, models.ActivityThemeChanged,
		fmt.Sprintf("theme %d %s", themeID, action), middleware.ClientIP(r))
	a.pageCache.InvalidateAll(ctx)
	slog.Info("theme changed", "theme_id", themeID, "action", action)
}

func (a *Admin) themeStoreError(w http.ResponseWriter, err error, msg string, id int64) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	slog.Error(msg, "theme_id", id, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// themeIDParam parses the {id} URL parameter, answering 400 when invalid.
func themeIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// --- Users ---

// UsersList renders the user management page.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	a.renderUsers(w, r, map[string]any{"Username": "", "Role": string(models.RoleViewer)})
}

// UserCreate handles the new user form submission.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := models.Role(r.FormValue("role"))
	form := map[string]any{"Username": username, "Role": string(role)}

	if msg := validateUser(username, password, role); msg != "" {
		form["Error"] = msg
		a.renderUsers(w, r, form)
		return
	}

	existing, err := a.userStore.FindByUsername(ctx, username)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
	}
	if existing != nil {
		form["Error"] = "A user with this username already exists."
		a.renderUsers(w, r, form)
		return
	}

	if _, err := a.userStore.Create(ctx, username, password, role); err != nil {
		slog.Error("create user failed", "error", err)
		form["Error"] = "Failed to create user."
		a.renderUsers(w, r, form)
		return
	}

	slog.Info("user created", "admin", sess.Username, "new_user", username, "role", role)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/admin/users")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// UserResetTwoFA clears another user's 2FA so they sign in with a
// password only until they enrol again.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	// Cannot reset your own 2FA.
	if targetID == sess.UserID {
		http.Error(w, "Cannot reset your own 2FA", http.StatusForbidden)
		return
	}

	if err := a.userStore.ResetTOTP(ctx, targetID); err != nil {
		slog.Error("reset 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("2fa reset by admin", "admin", sess.Username, "target_user", targetID)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (a *Admin) renderUsers(w http.ResponseWriter, r *http.Request, data map[string]any) {
	users, err := a.userStore.List(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
	}
	data["Users"] = users
	data["Roles"] = roles

	status := 0
	if _, failed := data["Error"]; failed {
		status = http.StatusUnprocessableEntity
	}

	a.renderer.Page(w, r, "users", &render.PageData{
		Title:   "Users",
		Section: "users",
		Status:  status,
		Data:    data,
	})
}
