package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/cache"
	"github.com/aman-churiwal/blog-api/internal/config"
	"github.com/aman-churiwal/blog-api/internal/handler"
	"github.com/aman-churiwal/blog-api/internal/healthcheck"
	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/ratelimit"
	"github.com/aman-churiwal/blog-api/internal/repository"
	"github.com/aman-churiwal/blog-api/internal/service"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"github.com/aman-churiwal/blog-api/internal/tier"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noUsers struct{}

func (noUsers) FindBySubject(context.Context, string) (*models.User, error) { return nil, nil }

type noRules struct{}

func (noRules) GetTier(context.Context, uint) (*models.Tier, error) { return nil, nil }

func (noRules) FindRule(context.Context, uint, string) (*models.RateLimit, error) { return nil, nil }

type testEnv struct {
	srv    *Server
	mr     *miniredis.Miniredis
	tokens *auth.TokenManager
	m      *metrics.Metrics
}

// newTestEnv wires a server over miniredis. Handlers get nil services
// unless wire replaces them.
func newTestEnv(t *testing.T, defaults ratelimit.Policy, users auth.UserLookup, wire func(*Dependencies)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := storage.NewRedis(storage.RedisOptions{Name: "test", Addr: mr.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	checker := healthcheck.NewChecker(healthcheck.Config{
		Probes: []healthcheck.Probe{{Name: "redis", Critical: true, Check: store.Ping}},
	})
	checker.CheckAll()

	tokens := auth.NewTokenManager("secret", time.Hour, 24*time.Hour, nil)
	cfg := config.Default()

	deps := Dependencies{
		Metrics:          m,
		Auth:             auth.NewResolver(tokens, users),
		Tiers:            tier.NewResolver(noRules{}, defaults),
		Limiter:          ratelimit.NewFixedWindow(store, ratelimit.WithMetrics(m)),
		LoginGuard:       ratelimit.NewLocalGuard(1, 1),
		Cache:            cache.New(store, time.Hour, m),
		AuthHandler:      handler.NewAuthHandler(nil, false),
		UserHandler:      handler.NewUserHandler(nil),
		PostHandler:      handler.NewPostHandler(nil),
		TierHandler:      handler.NewTierHandler(nil),
		RateLimitHandler: handler.NewRateLimitHandler(nil),
		SystemHandler:    handler.NewSystemHandler(checker),
	}
	if wire != nil {
		wire(&deps)
	}

	return &testEnv{srv: New(cfg, deps), mr: mr, tokens: tokens, m: m}
}

func newTestServer(t *testing.T, defaults ratelimit.Policy) (*Server, *metrics.Metrics) {
	env := newTestEnv(t, defaults, noUsers{}, nil)
	return env.srv, env.m
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func (e *testEnv) send(t *testing.T, method, target, username, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if username != "" {
		token, err := e.tokens.Issue(username, auth.AccessToken)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

// directory is an in-memory user and tier table for routes whose cache
// behavior depends on real handler outcomes.
type directory struct {
	users map[string]*models.User
	tiers map[string]*models.Tier
}

func newDirectory() *directory {
	proID := uint(1)
	return &directory{
		users: map[string]*models.User{
			"alice": {ID: 1, Username: "alice", Email: "alice@example.com", TierID: &proID},
			"bob":   {ID: 2, Username: "bob", Email: "bob@example.com"},
			"root":  {ID: 3, Username: "root", Email: "root@example.com", IsSuperuser: true},
		},
		tiers: map[string]*models.Tier{
			"pro": {ID: proID, Name: "pro"},
		},
	}
}

func (d *directory) FindBySubject(_ context.Context, subject string) (*models.User, error) {
	return d.users[subject], nil
}

func (d *directory) userByID(id any) (string, *models.User) {
	for name, u := range d.users {
		if u.ID == id {
			return name, u
		}
	}
	return "", nil
}

type userTable struct {
	service.UserStore
	d *directory
}

func (u userTable) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	return u.d.FindBySubject(ctx, subject)
}

func (u userTable) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return u.d.users[username], nil
}

func (u userTable) GetWithTier(_ context.Context, username string) (*models.UserTier, error) {
	user := u.d.users[username]
	if user == nil || user.TierID == nil {
		return nil, nil
	}
	for _, t := range u.d.tiers {
		if t.ID == *user.TierID {
			return &models.UserTier{User: *user, TierName: t.Name}, nil
		}
	}
	return nil, nil
}

func (u userTable) Exists(_ context.Context, filter repository.Filter) (bool, error) {
	for _, user := range u.d.users {
		if filter["username"] == user.Username || filter["email"] == user.Email {
			return true, nil
		}
	}
	return false, nil
}

func (u userTable) Update(_ context.Context, filter repository.Filter, values map[string]any) error {
	name, user := u.d.userByID(filter["id"])
	if user == nil {
		return nil
	}
	if renamed, ok := values["username"].(string); ok {
		delete(u.d.users, name)
		user.Username = renamed
		u.d.users[renamed] = user
	}
	return nil
}

type tierTable struct {
	service.TierStore
	d *directory
}

func (tt tierTable) GetByName(_ context.Context, name string) (*models.Tier, error) {
	return tt.d.tiers[name], nil
}

func (tt tierTable) Exists(_ context.Context, filter repository.Filter) (bool, error) {
	name, _ := filter["name"].(string)
	return tt.d.tiers[name] != nil, nil
}

func (tt tierTable) Update(_ context.Context, filter repository.Filter, values map[string]any) error {
	for name, t := range tt.d.tiers {
		if t.ID == filter["id"] {
			delete(tt.d.tiers, name)
			t.Name = values["name"].(string)
			tt.d.tiers[t.Name] = t
		}
	}
	return nil
}

// HardDelete detaches users the way ON DELETE SET NULL does.
func (tt tierTable) HardDelete(_ context.Context, filter repository.Filter) error {
	for name, t := range tt.d.tiers {
		if t.ID != filter["id"] {
			continue
		}
		delete(tt.d.tiers, name)
		for _, u := range tt.d.users {
			if u.TierID != nil && *u.TierID == t.ID {
				u.TierID = nil
			}
		}
	}
	return nil
}

func newDirectoryEnv(t *testing.T) (*testEnv, *directory) {
	d := newDirectory()
	env := newTestEnv(t, ratelimit.Policy{Limit: 100, Period: 3600}, d, func(deps *Dependencies) {
		users, tiers := userTable{d: d}, tierTable{d: d}
		deps.UserHandler = handler.NewUserHandler(service.NewUserService(users, tiers, nil, nil))
		deps.TierHandler = handler.NewTierHandler(service.NewTierService(tiers))
	})
	return env, d
}

func TestRoutesRegistered(t *testing.T) {
	srv, _ := newTestServer(t, ratelimit.Policy{Limit: 10, Period: 3600})

	registered := make(map[string]bool)
	for _, r := range srv.Router().Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /metrics",
		"POST /api/v1/login",
		"POST /api/v1/refresh",
		"POST /api/v1/logout",
		"POST /api/v1/user",
		"GET /api/v1/users",
		"GET /api/v1/user/me",
		"GET /api/v1/user/:username",
		"PATCH /api/v1/user/:username",
		"DELETE /api/v1/user/:username",
		"DELETE /api/v1/db_user/:username",
		"GET /api/v1/user/:username/rate_limits",
		"GET /api/v1/user/:username/tier",
		"PATCH /api/v1/user/:username/tier",
		"POST /api/v1/:username/post",
		"GET /api/v1/:username/posts",
		"GET /api/v1/:username/post/:id",
		"PATCH /api/v1/:username/post/:id",
		"DELETE /api/v1/:username/post/:id",
		"DELETE /api/v1/:username/db_post/:id",
		"POST /api/v1/tier",
		"GET /api/v1/tiers",
		"GET /api/v1/tier/:name",
		"PATCH /api/v1/tier/:name",
		"DELETE /api/v1/tier/:name",
		"POST /api/v1/tier/:name/rate_limit",
		"GET /api/v1/tier/:name/rate_limits",
		"GET /api/v1/tier/:name/rate_limit/:id",
		"PATCH /api/v1/tier/:name/rate_limit/:id",
		"DELETE /api/v1/tier/:name/rate_limit/:id",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, ratelimit.Policy{Limit: 10, Period: 3600})

	w := do(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(srv, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `blog_api_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestAPIIsRateLimitedBeforeAuth(t *testing.T) {
	srv, _ := newTestServer(t, ratelimit.Policy{Limit: 1, Period: 3600})

	w := do(srv, http.MethodPost, "/api/v1/logout")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(srv, http.MethodPost, "/api/v1/logout")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = do(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code, "system routes are not rate limited")
}

func TestSuperuserRoutesRejectAnonymous(t *testing.T) {
	srv, _ := newTestServer(t, ratelimit.Policy{Limit: 100, Period: 3600})

	for _, target := range []string{"/api/v1/tier", "/api/v1/tier/free/rate_limit"} {
		w := do(srv, http.MethodPost, target)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	}
}

func TestTierChangeDropsCachedUserTiers(t *testing.T) {
	env, _ := newDirectoryEnv(t)

	w := env.send(t, http.MethodGet, "/api/v1/user/alice/tier", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier_name":"pro"`)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = env.send(t, http.MethodGet, "/api/v1/user/alice/tier", "", "")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	require.True(t, env.mr.Exists("alice_user_tier:alice"))
	require.NoError(t, env.mr.Set("bob_user_cache:bob", "x"))

	w = env.send(t, http.MethodPatch, "/api/v1/tier/pro", "root", `{"name":"gold"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, env.mr.Exists("alice_user_tier:alice"))
	assert.False(t, env.mr.Exists("bob_user_cache:bob"))

	w = env.send(t, http.MethodGet, "/api/v1/user/alice/tier", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"tier_name":"gold"`)

	w = env.send(t, http.MethodDelete, "/api/v1/tier/gold", "root", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.send(t, http.MethodGet, "/api/v1/user/alice/tier", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "a deleted tier must not be served from cache")
}

func TestFailedTierChangeKeepsCache(t *testing.T) {
	env, _ := newDirectoryEnv(t)
	require.NoError(t, env.mr.Set("alice_user_tier:alice", "x"))

	w := env.send(t, http.MethodDelete, "/api/v1/tier/missing", "root", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, env.mr.Exists("alice_user_tier:alice"))

	w = env.send(t, http.MethodDelete, "/api/v1/tier/pro", "bob", "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, env.mr.Exists("alice_user_tier:alice"))
}

func TestUserRenameDropsEntriesKeyedByOldName(t *testing.T) {
	env, d := newDirectoryEnv(t)

	stale := []string{
		"alice_user_cache:alice",
		"alice_user_tier:alice",
		"alice_posts:page_1:items_per_page:10",
		"alice_posts:page_2:items_per_page:5",
		"alice_post_cache:3",
	}
	kept := []string{
		"bob_user_cache:bob",
		"bob_posts:page_1:items_per_page:10",
		"bob_post_cache:4",
	}
	for _, key := range append(stale, kept...) {
		require.NoError(t, env.mr.Set(key, "x"))
	}

	w := env.send(t, http.MethodPatch, "/api/v1/user/alice", "alice", `{"username":"alicia"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, d.users, "alicia")

	for _, key := range stale {
		assert.False(t, env.mr.Exists(key), key)
	}
	for _, key := range kept {
		assert.True(t, env.mr.Exists(key), key)
	}

	w = env.send(t, http.MethodGet, "/api/v1/user/alice", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
