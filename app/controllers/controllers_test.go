package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/app/auth"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/repositories/mock"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	store  *repositories.Store
	router *mux.Router
	posts  *services.PostService
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	auth.ConfigureJWT("controllers-test", 1)

	store := mock.NewStore()
	templates := views.MustLoad()
	posts := services.NewPostService(store, 10)
	groups := services.NewGroupService(store)
	users := services.NewUserService(store)
	follows := services.NewFollowService(store, posts)

	pc := NewPostController(posts, groups, users, follows, templates)
	cc := NewCommentController(services.NewCommentService(store), templates)
	fc := NewFollowController(follows, users, templates)
	ac := NewAuthController(users, false, templates)

	// Register routes manually; login enforcement is the router's concern.
	router := mux.NewRouter()
	router.HandleFunc("/", pc.Index).Methods("GET")
	router.HandleFunc("/group/{slug}/", pc.GroupPosts).Methods("GET")
	router.HandleFunc("/profile/{username}/", pc.Profile).Methods("GET")
	router.HandleFunc("/posts/{id:[0-9]+}/", pc.Detail).Methods("GET")
	router.HandleFunc("/create/", pc.Create).Methods("GET", "POST")
	router.HandleFunc("/posts/{id:[0-9]+}/edit/", pc.Edit).Methods("GET", "POST")
	router.HandleFunc("/posts/{id:[0-9]+}/comment/", cc.Create).Methods("POST")
	router.HandleFunc("/follow/", pc.FollowIndex).Methods("GET")
	router.HandleFunc("/profile/{username}/follow/", fc.Follow).Methods("POST")
	router.HandleFunc("/profile/{username}/unfollow/", fc.Unfollow).Methods("POST")
	router.HandleFunc("/auth/signup/", ac.Signup).Methods("GET", "POST")
	router.HandleFunc("/auth/login/", ac.Login).Methods("GET", "POST")
	router.HandleFunc("/auth/logout/", ac.Logout).Methods("POST")
	router.NotFoundHandler = NotFound(templates)

	return &testApp{store: store, router: router, posts: posts}
}

func (a *testApp) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, a.store.Users.Create(u))
	return u
}

func (a *testApp) post(t *testing.T, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	p := &models.Post{Text: text}
	p.SetGroup(group)
	require.NoError(t, a.posts.Create(author, p))
	return p
}

func (a *testApp) do(method, target string, form url.Values, user *models.User) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func countPosts(body string) int {
	return strings.Count(body, `class="post"`)
}

func TestIndexPagination(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "leo")
	for i := 0; i < 15; i++ {
		p := &models.Post{Text: fmt.Sprintf("post number %d", i), PubDate: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC)}
		require.NoError(t, app.posts.Create(author, p))
	}

	w := app.do("GET", "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, countPosts(w.Body.String()))
	assert.Contains(t, w.Body.String(), "post number 14")
	assert.NotContains(t, w.Body.String(), "post number 4<")

	w = app.do("GET", "/?page=2", nil, nil)
	assert.Equal(t, 5, countPosts(w.Body.String()))
	assert.Contains(t, w.Body.String(), "post number 0")

	w = app.do("GET", "/?page=abc", nil, nil)
	assert.Equal(t, 10, countPosts(w.Body.String()))

	w = app.do("GET", "/?page=100", nil, nil)
	assert.Equal(t, 5, countPosts(w.Body.String()))
}

func TestGroupPosts(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "leo")
	cats := &models.Group{Title: "Cats", Slug: "cats", Description: "purr"}
	require.NoError(t, app.store.Groups.Create(cats))
	app.post(t, author, "in group", cats)
	app.post(t, author, "no group", nil)

	w := app.do("GET", "/group/cats/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "in group")
	assert.NotContains(t, w.Body.String(), "no group")
	assert.Equal(t, 1, countPosts(w.Body.String()))

	w = app.do("GET", "/group/dogs/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "author")
	reader := app.user(t, "reader")
	app.post(t, author, "one", nil)
	app.post(t, author, "two", nil)

	w := app.do("GET", "/profile/author/", nil, reader)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span class="post-count">2</span>`)
	assert.Contains(t, body, "/profile/author/follow/")

	_, err := app.store.Follows.Add(reader.ID, author.ID)
	require.NoError(t, err)
	w = app.do("GET", "/profile/author/", nil, reader)
	assert.Contains(t, w.Body.String(), "/profile/author/unfollow/")

	w = app.do("GET", "/profile/author/", nil, author)
	assert.NotContains(t, w.Body.String(), "/profile/author/follow/", "no follow button on your own profile")

	w = app.do("GET", "/profile/nobody/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostDetail(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "author")
	reader := app.user(t, "reader")
	p := app.post(t, author, "hello world", nil)
	app.post(t, author, "another", nil)
	_, err := services.NewCommentService(app.store).Create(reader, p.ID, "great post")
	require.NoError(t, err)

	w := app.do("GET", fmt.Sprintf("/posts/%d/", p.ID), nil, reader)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "hello world")
	assert.Contains(t, body, "great post")
	assert.Contains(t, body, `<span class="post-count">2</span>`)
	assert.Contains(t, body, fmt.Sprintf(`action="/posts/%d/comment/"`, p.ID))
	assert.NotContains(t, body, "/edit/", "only the author sees the edit link")

	w = app.do("GET", fmt.Sprintf("/posts/%d/", p.ID), nil, author)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("/posts/%d/edit/", p.ID))

	w = app.do("GET", "/posts/999/", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePost(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "leo")
	cats := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, app.store.Groups.Create(cats))

	t.Run("form lists groups", func(t *testing.T) {
		w := app.do("GET", "/create/", nil, author)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Cats")
	})

	t.Run("valid post without group", func(t *testing.T) {
		w := app.do("POST", "/create/", url.Values{"text": {"test post"}, "group": {""}}, author)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))

		posts, err := app.store.Posts.List(repositories.PostFilter{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "test post", posts[0].Text)
		assert.Nil(t, posts[0].GroupID)
		assert.Equal(t, author.ID, posts[0].AuthorID)
	})

	t.Run("valid post with group", func(t *testing.T) {
		w := app.do("POST", "/create/", url.Values{"text": {"meow"}, "group": {fmt.Sprint(cats.ID)}}, author)
		assert.Equal(t, http.StatusFound, w.Code)
		n, _ := app.store.Posts.Count(repositories.PostFilter{GroupID: cats.ID})
		assert.Equal(t, 1, n)
	})

	t.Run("empty text is rejected", func(t *testing.T) {
		before, _ := app.store.Posts.Count(repositories.PostFilter{})
		w := app.do("POST", "/create/", url.Values{"text": {"   "}}, author)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), models.EmptyTextMessage)
		after, _ := app.store.Posts.Count(repositories.PostFilter{})
		assert.Equal(t, before, after)
	})

	t.Run("malformed group", func(t *testing.T) {
		w := app.do("POST", "/create/", url.Values{"text": {"x"}, "group": {"abc"}}, author)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Select a valid group")
	})
}

func TestEditPost(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "author")
	other := app.user(t, "other")
	p := app.post(t, author, "original", nil)
	editURL := fmt.Sprintf("/posts/%d/edit/", p.ID)
	detailURL := fmt.Sprintf("/posts/%d/", p.ID)

	t.Run("non-author is redirected", func(t *testing.T) {
		w := app.do("GET", editURL, nil, other)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, detailURL, w.Header().Get("Location"))

		w = app.do("POST", editURL, url.Values{"text": {"hijacked"}}, other)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, detailURL, w.Header().Get("Location"))

		stored, _ := app.store.Posts.GetByID(p.ID)
		assert.Equal(t, "original", stored.Text)
	})

	t.Run("author sees prefilled form", func(t *testing.T) {
		w := app.do("GET", editURL, nil, author)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "original")
		assert.Contains(t, w.Body.String(), "Edit post")
	})

	t.Run("author saves", func(t *testing.T) {
		w := app.do("POST", editURL, url.Values{"text": {"edited"}}, author)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, detailURL, w.Header().Get("Location"))
		stored, _ := app.store.Posts.GetByID(p.ID)
		assert.Equal(t, "edited", stored.Text)
	})

	t.Run("author submits empty text", func(t *testing.T) {
		w := app.do("POST", editURL, url.Values{"text": {""}}, author)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), models.EmptyTextMessage)
		stored, _ := app.store.Posts.GetByID(p.ID)
		assert.Equal(t, "edited", stored.Text)
	})

	t.Run("unknown post", func(t *testing.T) {
		w := app.do("GET", "/posts/999/edit/", nil, author)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAddComment(t *testing.T) {
	app := setupTestApp(t)
	author := app.user(t, "author")
	reader := app.user(t, "reader")
	p := app.post(t, author, "hello", nil)
	target := fmt.Sprintf("/posts/%d/comment/", p.ID)

	w := app.do("POST", target, url.Values{"text": {"nice"}}, reader)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))

	w = app.do("POST", target, url.Values{"text": {" "}}, reader)
	assert.Equal(t, http.StatusFound, w.Code, "invalid comments still redirect")

	comments, err := app.store.Comments.ListByPost(p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Text)
	assert.Equal(t, reader.ID, comments[0].AuthorID)

	w = app.do("POST", "/posts/999/comment/", url.Values{"text": {"x"}}, reader)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowFlow(t *testing.T) {
	app := setupTestApp(t)
	a := app.user(t, "a")
	b := app.user(t, "b")
	c := app.user(t, "c")

	w := app.do("POST", "/profile/a/follow/", nil, b)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/follow/", w.Header().Get("Location"))

	w = app.do("POST", "/profile/a/follow/", nil, b)
	assert.Equal(t, http.StatusFound, w.Code)
	authors, _ := app.store.Follows.ListAuthors(b.ID)
	assert.Equal(t, []int{a.ID}, authors, "following twice keeps one edge")

	app.post(t, a, "news from a", nil)

	w = app.do("GET", "/follow/", nil, b)
	assert.Contains(t, w.Body.String(), "news from a")
	w = app.do("GET", "/follow/", nil, c)
	assert.NotContains(t, w.Body.String(), "news from a")
	assert.Equal(t, 0, countPosts(w.Body.String()))

	w = app.do("POST", "/profile/a/follow/", nil, a)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/a/", w.Header().Get("Location"))
	self, _ := app.store.Follows.Exists(a.ID, a.ID)
	assert.False(t, self)

	w = app.do("POST", "/profile/a/unfollow/", nil, b)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	following, _ := app.store.Follows.Exists(b.ID, a.ID)
	assert.False(t, following)

	w = app.do("POST", "/profile/a/unfollow/", nil, b)
	assert.Equal(t, http.StatusFound, w.Code, "unfollow is idempotent")

	w = app.do("POST", "/profile/ghost/follow/", nil, b)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	app := setupTestApp(t)

	t.Run("signup", func(t *testing.T) {
		w := app.do("GET", "/auth/signup/", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		form := url.Values{
			"username":  {"newbie"},
			"email":     {"newbie@example.com"},
			"password1": {"password123"},
			"password2": {"password123"},
		}
		w = app.do("POST", "/auth/signup/", form, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		cookie := sessionCookie(w)
		require.NotNil(t, cookie)
		claims, err := auth.ValidateToken(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "newbie", claims.Username)
	})

	t.Run("signup password mismatch", func(t *testing.T) {
		form := url.Values{"username": {"other"}, "password1": {"password123"}, "password2": {"password124"}}
		w := app.do("POST", "/auth/signup/", form, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "didn&#39;t match")
		_, err := app.store.Users.GetByUsername("other")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("login", func(t *testing.T) {
		form := url.Values{"username": {"newbie"}, "password": {"password123"}, "next": {"/create/"}}
		w := app.do("POST", "/auth/login/", form, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/create/", w.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(w))
	})

	t.Run("login rejects bad password", func(t *testing.T) {
		form := url.Values{"username": {"newbie"}, "password": {"nope"}}
		w := app.do("POST", "/auth/login/", form, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "correct username and password")
		assert.Nil(t, sessionCookie(w))
	})

	t.Run("login ignores external next", func(t *testing.T) {
		form := url.Values{"username": {"newbie"}, "password": {"password123"}, "next": {"//evil.example.com/"}}
		w := app.do("POST", "/auth/login/", form, nil)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("logout", func(t *testing.T) {
		w := app.do("POST", "/auth/logout/", nil, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		cookie := sessionCookie(w)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	})
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                   "/",
		"/follow/":           "/follow/",
		"https://evil.test/": "/",
		"//evil.test/":       "/",
		`/\evil.test`:        "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), in)
	}
}
