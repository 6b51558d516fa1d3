package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yatube/app/cache"
	"yatube/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *cache.BadgerStore {
	t.Helper()
	store, err := cache.NewBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// postList renders whatever posts currently exist.
type postList struct {
	posts []string
	calls int
}

func (p *postList) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls++
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(strings.Join(p.posts, ",")))
}

func get(h http.Handler, target string, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user))
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestCachePageServesStaleContentWithinTTL(t *testing.T) {
	store := newCache(t)
	page := &postList{posts: []string{"first", "second"}}
	handler := CachePage(store, "index_page", time.Minute)(page)

	rw := get(handler, "/", nil)
	assert.Equal(t, "first,second", rw.Body.String())
	assert.Equal(t, "miss", rw.Header().Get(CacheHeader))

	page.posts = []string{"second"}
	rw = get(handler, "/", nil)
	assert.Equal(t, "first,second", rw.Body.String(), "deleted post still shown while cached")
	assert.Equal(t, "hit", rw.Header().Get(CacheHeader))
	assert.Equal(t, "text/html; charset=utf-8", rw.Header().Get("Content-Type"))
	assert.Equal(t, 1, page.calls)

	require.NoError(t, store.Clear())
	rw = get(handler, "/", nil)
	assert.Equal(t, "second", rw.Body.String())
	assert.Equal(t, 2, page.calls)
}

func TestCachePageKeys(t *testing.T) {
	store := newCache(t)
	page := &postList{posts: []string{"a"}}
	handler := CachePage(store, "index_page", time.Minute)(page)

	get(handler, "/", nil)
	get(handler, "/?page=2", nil)
	get(handler, "/", &models.User{ID: 7, Username: "leo"})
	assert.Equal(t, 3, page.calls, "query string and viewer are part of the key")

	get(handler, "/?page=2", nil)
	get(handler, "/", &models.User{ID: 7, Username: "leo"})
	assert.Equal(t, 3, page.calls)
}

func TestCachePageSkipsNonGETAndErrors(t *testing.T) {
	store := newCache(t)
	calls := 0
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	handler := CachePage(store, "index_page", time.Minute)(failing)

	get(handler, "/", nil)
	get(handler, "/", nil)
	assert.Equal(t, 2, calls, "error responses are not cached")

	req := httptest.NewRequest("HEAD", "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 3, calls)
}

func TestCachePageExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a TTL to elapse")
	}
	store := newCache(t)
	page := &postList{posts: []string{"a", "b"}}
	handler := CachePage(store, "index_page", time.Second)(page)

	get(handler, "/", nil)
	page.posts = []string{"b"}
	assert.Equal(t, "a,b", get(handler, "/", nil).Body.String())

	time.Sleep(2100 * time.Millisecond)
	assert.Equal(t, "b", get(handler, "/", nil).Body.String())
}
