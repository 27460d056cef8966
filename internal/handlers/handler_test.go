// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Integration tests are skipped when PostgreSQL or Valkey are unavailable;
// the public handlers also run against in-memory fakes.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"giftshuffle/internal/cache"
	"giftshuffle/internal/database"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
	"giftshuffle/internal/query"
	"giftshuffle/internal/render"
	"giftshuffle/internal/session"
	"giftshuffle/internal/store"
	"giftshuffle/internal/theme"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "giftshuffle")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "giftshuffle")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "reveal:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Renderer      *render.Renderer
	Sessions      *session.Store
	UserStore     *store.UserStore
	SettingStore  *store.SettingStore
	ActivityStore *store.ActivityStore
	ThemeStore    *store.ThemeStore
	PageCache     *cache.PageCache
	Themes        *theme.Resolver
	Admin         *Admin
	Auth          *Auth
	Public        *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	exec := query.NewExecutor(db)
	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(exec)
	settingStore := store.NewSettingStore(exec)
	activityStore := store.NewActivityStore(exec)
	themeStore := store.NewThemeStore(exec)
	pageCache := cache.NewPageCache(vk, time.Minute)
	themes := theme.NewResolver(theme.NewDBProvider(themeStore), theme.NewDirProvider(t.TempDir(), "/themes"))

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Renderer:      renderer,
		Sessions:      sessions,
		UserStore:     userStore,
		SettingStore:  settingStore,
		ActivityStore: activityStore,
		ThemeStore:    themeStore,
		PageCache:     pageCache,
		Themes:        themes,
		Admin:         NewAdmin(renderer, settingStore, activityStore, themeStore, userStore, themes, nil, pageCache),
		Auth:          NewAuth(renderer, sessions, userStore, activityStore, nil),
		Public:        NewPublic(renderer, themes, settingStore, activityStore, pageCache, 5*time.Millisecond),
	}
}

// createUser inserts a user and removes it when the test ends.
func createUser(t *testing.T, env *testEnv, username, password string, role models.Role) *models.User {
	t.Helper()
	env.DB.Exec("DELETE FROM users WHERE username = $1", username)
	u, err := env.UserStore.Create(context.Background(), username, password, role)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// countActivity returns how many log rows of a type exist for a user.
func countActivity(t *testing.T, db *sql.DB, userID int64, activityType string) int {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE user_id = $1 AND activity_type = $2`,
		userID, activityType).Scan(&n)
	if err != nil {
		t.Fatalf("count activity: %v", err)
	}
	return n
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a logged-in session.Data for testing.
func testSession(userID int64, username string, role models.Role) *session.Data {
	return &session.Data{
		UserID:   userID,
		Username: username,
		Role:     string(role),
		LoggedIn: true,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	r = withChiURLParam(r, key, value)
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// sessionCookie extracts the session cookie set on a response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// --- in-memory fakes for the public handlers ---

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

type loggedActivity struct {
	UserID  int64
	Type    string
	Details string
	IP      string
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []loggedActivity
	fail    bool
}

func (f *fakeActivity) Log(_ context.Context, userID int64, activityType, details, ip string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, false
	}
	f.entries = append(f.entries, loggedActivity{userID, activityType, details, ip})
	return int64(len(f.entries)), true
}

func (f *fakeActivity) ofType(activityType string) []loggedActivity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []loggedActivity
	for _, e := range f.entries {
		if e.Type == activityType {
			out = append(out, e)
		}
	}
	return out
}

// newTestPublic builds a Public handler over built-in themes only.
func newTestPublic(t *testing.T, settings fakeSettings) (*Public, *fakeActivity) {
	t.Helper()
	renderer, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	activity := &fakeActivity{}
	return NewPublic(renderer, theme.NewResolver(nil, nil), settings, activity, nil, 5*time.Millisecond), activity
}
