package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yatube/app/auth"
	"yatube/app/cache"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *mux.Router
	store  *repositories.Store
	cache  *cache.BadgerStore
	svc    *Services
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth.ConfigureJWT("routes-test", 1)

	db, err := repositories.OpenBadger("")
	require.NoError(t, err)
	store := repositories.NewBadgerStore(db)
	t.Cleanup(func() { store.Close() })

	pageCache, err := cache.NewBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { pageCache.Close() })

	router := SetupRoutes(Options{
		Store:        store,
		PageCache:    pageCache,
		Templates:    views.MustLoad(),
		PageCacheTTL: 20 * time.Second,
		PerPage:      10,
	})
	return &testEnv{
		router: router,
		store:  store,
		cache:  pageCache,
		svc:    NewServices(store, 10),
	}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	require.NoError(t, e.svc.Users.Register(u, "password123"))
	return u
}

func (e *testEnv) session(t *testing.T, u *models.User) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(u)
	require.NoError(t, err)
	return &http.Cookie{Name: "yatube_session", Value: token}
}

func (e *testEnv) apiToken(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := e.svc.Users.APIToken(u)
	require.NoError(t, err)
	return "Token " + token
}

type request struct {
	method  string
	target  string
	body    io.Reader
	ctype   string
	auth    string
	cookies []*http.Cookie
}

func (e *testEnv) serve(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.target, r.body)
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
