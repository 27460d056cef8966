// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
	"giftshuffle/internal/render"
	"giftshuffle/internal/session"
	"giftshuffle/internal/store"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "Gift Shuffle"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer  *render.Renderer
	sessions  *session.Store
	userStore *store.UserStore
	activity  *store.ActivityStore
	limiter   *middleware.RateLimiter
}

// NewAuth creates a new Auth handler group. limiter may be nil to disable
// login throttling.
func NewAuth(renderer *render.Renderer, sessions *session.Store, userStore *store.UserStore, activity *store.ActivityStore, limiter *middleware.RateLimiter) *Auth {
	return &Auth{
		renderer:  renderer,
		sessions:  sessions,
		userStore: userStore,
		activity:  activity,
		limiter:   limiter,
	}
}

// allow applies the login limiter to ip and sets Retry-After when the
// attempt is throttled.
func (a *Auth) allow(w http.ResponseWriter, ip string) (bool, time.Duration) {
	if a.limiter == nil {
		return true, 0
	}
	ok, wait := a.limiter.Allow(ip)
	if !ok {
		w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
	}
	return ok, wait
}

// retrySeconds rounds a wait up to whole seconds, never below one.
func retrySeconds(wait time.Duration) int {
	return max(1, int((wait+time.Second-1)/time.Second))
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.IsLoggedIn(r.Context()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{},
	})
}

// LoginSubmit checks the username and password. Users enrolled in 2FA get
// a pending session and are sent to the code form; everyone else is
// logged in straight away.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := middleware.ClientIP(r)
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	loginError := func(status int, msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title:  "Sign In",
			Status: status,
			Data:   map[string]any{"Error": msg, "Username": username},
		})
	}

	if ok, wait := a.allow(w, ip); !ok {
		loginError(http.StatusTooManyRequests, fmt.Sprintf("Too many sign-in attempts. Please try again in %d seconds.", retrySeconds(wait)))
		return
	}

	user, err := a.userStore.FindByUsername(ctx, username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		loginError(http.StatusServiceUnavailable, "An unexpected error occurred.")
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		var uid int64
		if user != nil {
			uid = user.ID
		}
		a.activity.Log(ctx, uid, models.ActivityLoginFailed, "username="+username, ip)
		loginError(http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	pending := user.Needs2FA()
	_, err = a.sessions.Create(ctx, w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		LoggedIn: !pending,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if pending {
		http.Redirect(w, r, "/login/2fa", http.StatusSeeOther)
		return
	}

	a.activity.Log(ctx, user.ID, models.ActivityLogin, "password", ip)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFAPage renders the code form for a session waiting on its second factor.
func (a *Auth) TwoFAPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if sess.LoggedIn {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
		Data:  map[string]any{},
	})
}

// TwoFASubmit validates the TOTP code and completes the login.
func (a *Auth) TwoFASubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if sess.LoggedIn {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ip := middleware.ClientIP(r)
	codeError := func(status int, msg string) {
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title:  "Two-Factor Authentication",
			Status: status,
			Data:   map[string]any{"Error": msg},
		})
	}

	if ok, wait := a.allow(w, ip); !ok {
		codeError(http.StatusTooManyRequests, fmt.Sprintf("Too many attempts. Please try again in %d seconds.", retrySeconds(wait)))
		return
	}

	user, err := a.userStore.FindByID(ctx, sess.UserID)
	if err != nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	// The secret was reset since the password step; start over.
	if user == nil || !user.Needs2FA() {
		a.sessions.Destroy(ctx, w, r)
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, *user.TOTPSecret) {
		a.activity.Log(ctx, user.ID, models.ActivityLoginFailed, "invalid 2fa code", ip)
		codeError(http.StatusUnauthorized, "Invalid code. Please try again.")
		return
	}

	sess.LoggedIn = true
	if _, err := a.sessions.Rotate(ctx, w, r, sess); err != nil {
		slog.Error("session rotate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.activity.Log(ctx, user.ID, models.ActivityLogin, "password+2fa", ip)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// TwoFASetupPage shows the enrolment QR code for the signed-in user. A
// fresh secret is generated on every visit until enrolment completes.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	user, err := a.userStore.FindByID(ctx, sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "user_id", sess.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPEnabled {
		a.renderer.Page(w, r, "2fa_setup", &render.PageData{
			Title:   "Two-Factor Authentication",
			Section: "2fa",
			Data:    map[string]any{"Enabled": true},
		})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.userStore.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderSetup(w, r, user.Username, key.Secret(), "")
}

// TwoFASetupSubmit confirms enrolment with a first valid code.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	user, err := a.userStore.FindByID(ctx, sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa setup failed", "user_id", sess.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa", http.StatusSeeOther)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa", http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, *user.TOTPSecret) {
		a.renderSetup(w, r, user.Username, *user.TOTPSecret, "Invalid code. Please try again.")
		return
	}

	if err := a.userStore.EnableTOTP(ctx, user.ID); err != nil {
		slog.Error("enable totp failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.activity.Log(ctx, user.ID, models.ActivityTwoFAEnrolled, "", middleware.ClientIP(r))
	http.Redirect(w, r, "/admin/2fa", http.StatusSeeOther)
}

// renderSetup renders the enrolment page with a QR code for secret.
func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, username, secret, errMsg string) {
	png, err := qrcode.Encode(otpauthURL(username, secret), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"QRCode": base64.StdEncoding.EncodeToString(png),
		"Secret": secret,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title:   "Two-Factor Authentication",
		Section: "2fa",
		Data:    data,
	})
}

// otpauthURL builds the key URI authenticator apps scan.
func otpauthURL(username, secret string) string {
	label := url.PathEscape(totpIssuer + ":" + username)
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", totpIssuer)
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess := middleware.SessionFromCtx(ctx); sess != nil && sess.LoggedIn {
		a.activity.Log(ctx, sess.UserID, models.ActivityLogout, "", middleware.ClientIP(r))
	}
	if err := a.sessions.Destroy(ctx, w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// AccessDenied tells a signed-in user their role cannot open a page.
func (a *Auth) AccessDenied(w http.ResponseWriter, r *http.Request) {
	a.renderer.Page(w, r, "access_denied", &render.PageData{
		Title:  "Access Denied",
		Status: http.StatusForbidden,
	})
}
