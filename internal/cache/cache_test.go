package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/aman-churiwal/blog-api/internal/response"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	postConfig = Config{KeyTemplate: "{username}_post_cache", ResourceIDField: "id"}
	listConfig = Config{
		KeyTemplate:     "{username}_posts:page_{page}:items_per_page:{items_per_page}",
		ResourceIDField: "username",
		Expiration:      60 * time.Second,
		Paginated:       true,
	}
	patchConfig = Config{
		KeyTemplate:          "{username}_post_cache",
		ResourceIDField:      "id",
		InvalidationPatterns: []string{"{username}_posts:*"},
	}
	deleteConfig = Config{
		KeyTemplate:          "{username}_post_cache",
		ResourceIDField:      "id",
		ExtraInvalidation:    map[string]string{"{username}_posts": "{username}"},
		InvalidationPatterns: []string{"{username}_posts:*"},
	}
)

type fixture struct {
	mr     *miniredis.Miniredis
	cache  *Cache
	router *gin.Engine
	calls  int
	status int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := storage.NewRedis(storage.RedisOptions{Name: "cache", Addr: mr.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{mr: mr, cache: New(store, time.Hour, metrics.New()), status: http.StatusOK}

	r := gin.New()
	read := func(c *gin.Context) {
		f.calls++
		response.JSON(c, f.status, gin.H{"id": c.Param("id"), "title": "hello", "call": f.calls})
	}
	list := func(c *gin.Context) {
		f.calls++
		response.JSON(c, http.StatusOK, gin.H{"items": []string{}, "page": c.Query("page")})
	}
	write := func(c *gin.Context) {
		response.Message(c, f.status, "ok")
	}

	r.GET("/:username/post/:id", f.cache.Handler(postConfig), read)
	r.GET("/:username/posts", f.cache.Handler(listConfig), list)
	r.PATCH("/:username/post/:id", f.cache.Handler(patchConfig), write)
	r.DELETE("/:username/post/:id", f.cache.Handler(deleteConfig), write)
	f.router = r

	return f
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHitReplaysExactResponse(t *testing.T) {
	f := newFixture(t)

	first := f.do(http.MethodGet, "/alice/post/3")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.True(t, f.mr.Exists("alice_post_cache:3"))

	second := f.do(http.MethodGet, "/alice/post/3")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
	assert.Equal(t, 1, f.calls)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/alice/post/3")
	f.mr.FastForward(time.Hour + time.Second)

	w := f.do(http.MethodGet, "/alice/post/3")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, f.calls)
}

func TestNonOKResponsesAreNotStored(t *testing.T) {
	f := newFixture(t)
	f.status = http.StatusNotFound

	f.do(http.MethodGet, "/alice/post/3")
	f.do(http.MethodGet, "/alice/post/3")

	assert.Equal(t, 2, f.calls)
	assert.False(t, f.mr.Exists("alice_post_cache:3"))
}

func TestPaginatedKeyIncludesNormalizedPage(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/alice/posts")
	f.do(http.MethodGet, "/alice/posts?page=2&items_per_page=5")

	assert.True(t, f.mr.Exists("alice_posts:page_1:items_per_page:10:alice"))
	assert.True(t, f.mr.Exists("alice_posts:page_2:items_per_page:5:alice"))
	assert.Equal(t, 60*time.Second, f.mr.TTL("alice_posts:page_1:items_per_page:10:alice"))

	f.do(http.MethodGet, "/alice/posts?page=1&items_per_page=10")
	assert.Equal(t, 2, f.calls, "explicit defaults share the default key")
}

func TestPaginatedBadInputBypassesCache(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/alice/posts?page=zero")
	f.do(http.MethodGet, "/alice/posts?page=zero")

	assert.Equal(t, 2, f.calls)
	assert.Empty(t, f.mr.Keys())
}

func TestPatternInvalidationIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, k := range []string{
		"alice_posts:page_1:items_per_page:10",
		"alice_posts:page_2:items_per_page:10",
		"bob_posts:page_1:items_per_page:10",
	} {
		require.NoError(t, f.cache.Set(ctx, k, Entry{Status: 200, Body: []byte(`{}`)}, time.Minute))
	}

	n, err := f.cache.Invalidate(ctx, nil, []string{"alice_posts:*"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"bob_posts:page_1:items_per_page:10"}, f.mr.Keys())
}

func TestInvalidatingAbsentKeyIsNoop(t *testing.T) {
	f := newFixture(t)

	n, err := f.cache.Invalidate(context.Background(), []string{"alice_post_cache:404"}, []string{"nobody_posts:*"})
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPatchInvalidatesPostAndLists(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/alice/post/3")
	f.do(http.MethodGet, "/alice/posts")
	f.do(http.MethodGet, "/bob/posts")
	require.Len(t, f.mr.Keys(), 3)

	w := f.do(http.MethodPatch, "/alice/post/3")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"bob_posts:page_1:items_per_page:10:bob"}, f.mr.Keys())
}

func TestDeleteInvalidatesExtraKey(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mr.Set("alice_posts:alice", "{}"))

	f.do(http.MethodGet, "/alice/post/3")
	f.do(http.MethodDelete, "/alice/post/3")

	assert.Empty(t, f.mr.Keys())
}

func TestFailedWriteDoesNotInvalidate(t *testing.T) {
	f := newFixture(t)

	f.do(http.MethodGet, "/alice/post/3")
	f.status = http.StatusForbidden
	f.do(http.MethodPatch, "/alice/post/3")

	assert.True(t, f.mr.Exists("alice_post_cache:3"))
}

func TestStoreFaultOnReadIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.mr.SetError("LOADING Redis is loading the dataset in memory")

	w := f.do(http.MethodGet, "/alice/post/3")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Cache store unavailable"}`, w.Body.String())
	assert.Zero(t, f.calls)
}

func TestInvalidConfigPanics(t *testing.T) {
	c := New(nil, time.Minute, nil)
	assert.Panics(t, func() { c.Handler(Config{}) })
}
