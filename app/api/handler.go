// Package api serves the JSON API under /api/v1.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"yatube/app/auth"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/pkg/logger"

	"github.com/gorilla/mux"
)

// Handler holds the services behind every API endpoint.
type Handler struct {
	posts    *services.PostService
	comments *services.CommentService
	groups   *services.GroupService
	users    *services.UserService
	follows  *services.FollowService
	perPage  int
}

func NewHandler(posts *services.PostService, comments *services.CommentService, groups *services.GroupService,
	users *services.UserService, follows *services.FollowService, perPage int) *Handler {
	if perPage < 1 {
		perPage = pagination.DefaultPerPage
	}
	return &Handler{
		posts:    posts,
		comments: comments,
		groups:   groups,
		users:    users,
		follows:  follows,
		perPage:  perPage,
	}
}

// Register mounts the endpoints on router, which should be the /api/v1 subrouter.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/api-token-auth/", h.ObtainToken).Methods(http.MethodPost)
	router.HandleFunc("/jwt/create/", h.CreateJWT).Methods(http.MethodPost)
	router.HandleFunc("/jwt/verify/", h.VerifyJWT).Methods(http.MethodPost)

	router.HandleFunc("/posts/", h.ListPosts).Methods(http.MethodGet)
	router.Handle("/posts/", authed(h.CreatePost)).Methods(http.MethodPost)
	router.HandleFunc("/posts/{id:[0-9]+}/", h.GetPost).Methods(http.MethodGet)
	router.Handle("/posts/{id:[0-9]+}/", authed(h.UpdatePost)).Methods(http.MethodPut, http.MethodPatch)
	router.Handle("/posts/{id:[0-9]+}/", authed(h.DeletePost)).Methods(http.MethodDelete)

	router.HandleFunc("/groups/", h.ListGroups).Methods(http.MethodGet)
	router.HandleFunc("/groups/{id:[0-9]+}/", h.GetGroup).Methods(http.MethodGet)

	router.HandleFunc("/posts/{post_id:[0-9]+}/comments/", h.ListComments).Methods(http.MethodGet)
	router.Handle("/posts/{post_id:[0-9]+}/comments/", authed(h.CreateComment)).Methods(http.MethodPost)
	router.HandleFunc("/posts/{post_id:[0-9]+}/comments/{id:[0-9]+}/", h.GetComment).Methods(http.MethodGet)
	router.Handle("/posts/{post_id:[0-9]+}/comments/{id:[0-9]+}/", authed(h.UpdateComment)).Methods(http.MethodPut, http.MethodPatch)
	router.Handle("/posts/{post_id:[0-9]+}/comments/{id:[0-9]+}/", authed(h.DeleteComment)).Methods(http.MethodDelete)

	router.Handle("/follow/", authed(h.ListFollows)).Methods(http.MethodGet)
	router.Handle("/follow/", authed(h.CreateFollow)).Methods(http.MethodPost)
}

func authed(fn http.HandlerFunc) http.Handler {
	return middleware.RequireAPIAuth(fn)
}

func routeID(r *http.Request, name string) int {
	id, _ := strconv.Atoi(mux.Vars(r)[name])
	return id
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ObtainToken returns the caller's opaque API token, creating it on first use.
func (h *Handler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Authenticate(in.Username, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		logger.FromContext(r.Context()).Warn("api_token_auth_failed", map[string]interface{}{
			"username": in.Username,
			"password": in.Password,
		})
		sendValidation(w, models.ValidationErrors{"non_field_errors": "Unable to log in with provided credentials"})
		return
	}
	if err != nil {
		sendServiceError(w, r, "api_token_auth", err)
		return
	}
	token, err := h.users.APIToken(user)
	if err != nil {
		sendServiceError(w, r, "api_token_auth", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateJWT exchanges credentials for a signed access token.
func (h *Handler) CreateJWT(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Authenticate(in.Username, in.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		logger.FromContext(r.Context()).Warn("jwt_create_failed", map[string]interface{}{"username": in.Username})
		sendError(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	if err != nil {
		sendServiceError(w, r, "jwt_create", err)
		return
	}
	access, err := auth.GenerateToken(user)
	if err != nil {
		sendServiceError(w, r, "jwt_create", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"access": access})
}

// VerifyJWT reports whether a token is valid.
func (h *Handler) VerifyJWT(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if _, err := auth.ValidateToken(in.Token); err != nil {
		logger.FromContext(r.Context()).Warn("jwt_verify_failed", map[string]interface{}{
			"token": in.Token,
			"error": err.Error(),
		})
		sendError(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{})
}

// postInput accepts full (PUT/POST) and partial (PATCH) post bodies.
// Group is kept raw so an explicit null can be told apart from absence.
type postInput struct {
	Text  *string         `json:"text"`
	Group json.RawMessage `json:"group"`
	Image *string         `json:"image"`
}

func (in postInput) apply(post *models.Post, partial bool) error {
	if in.Text != nil {
		post.Text = *in.Text
	} else if !partial {
		post.Text = ""
	}
	if in.Image != nil {
		post.Image = *in.Image
	} else if !partial {
		post.Image = ""
	}

	switch {
	case len(in.Group) == 0:
		if !partial {
			post.GroupID = nil
		}
	case string(in.Group) == "null":
		post.GroupID = nil
	default:
		var id int
		if err := json.Unmarshal(in.Group, &id); err != nil {
			return models.ValidationErrors{"group": "Select a valid group"}
		}
		post.GroupID = &id
	}
	return nil
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.Page(repositories.PostFilter{}, r.URL.Query().Get("page"))
	if err != nil {
		sendServiceError(w, r, "api_list_posts", err)
		return
	}
	sendPage(w, r, page.Page, toPostsJSON(page.Posts))
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if !decodeJSON(w, r, &in) {
		return
	}
	post := &models.Post{}
	if err := in.apply(post, false); err != nil {
		sendServiceError(w, r, "api_create_post", err)
		return
	}
	if err := h.posts.Create(middleware.CurrentUser(r.Context()), post); err != nil {
		sendServiceError(w, r, "api_create_post", err)
		return
	}
	sendJSON(w, http.StatusCreated, toPostJSON(post))
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(routeID(r, "id"))
	if err != nil {
		sendServiceError(w, r, "api_get_post", err)
		return
	}
	sendJSON(w, http.StatusOK, toPostJSON(post))
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	existing, err := h.posts.Get(routeID(r, "id"))
	if err != nil {
		sendServiceError(w, r, "api_update_post", err)
		return
	}
	viewer := middleware.CurrentUser(r.Context())
	if existing.AuthorID != viewer.ID {
		sendServiceError(w, r, "api_update_post", services.ErrForbidden)
		return
	}

	var in postInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.apply(existing, r.Method == http.MethodPatch); err != nil {
		sendServiceError(w, r, "api_update_post", err)
		return
	}
	if err := h.posts.Update(viewer, existing); err != nil {
		sendServiceError(w, r, "api_update_post", err)
		return
	}
	sendJSON(w, http.StatusOK, toPostJSON(existing))
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(middleware.CurrentUser(r.Context()), routeID(r, "id")); err != nil {
		sendServiceError(w, r, "api_delete_post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List()
	if err != nil {
		sendServiceError(w, r, "api_list_groups", err)
		return
	}
	page := pagination.Paginate(len(groups), r.URL.Query().Get("page"), h.perPage)
	sendPage(w, r, page, pagination.Slice(groups, page))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(routeID(r, "id"))
	if err != nil {
		sendServiceError(w, r, "api_get_group", err)
		return
	}
	sendJSON(w, http.StatusOK, group)
}

type commentInput struct {
	Text string `json:"text"`
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(routeID(r, "post_id"))
	if err != nil {
		sendServiceError(w, r, "api_list_comments", err)
		return
	}
	page := pagination.Paginate(len(comments), r.URL.Query().Get("page"), h.perPage)
	sendPage(w, r, page, toCommentsJSON(pagination.Slice(comments, page)))
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	comment, err := h.comments.Create(middleware.CurrentUser(r.Context()), routeID(r, "post_id"), in.Text)
	if err != nil {
		sendServiceError(w, r, "api_create_comment", err)
		return
	}
	sendJSON(w, http.StatusCreated, toCommentJSON(comment))
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.Get(routeID(r, "post_id"), routeID(r, "id"))
	if err != nil {
		sendServiceError(w, r, "api_get_comment", err)
		return
	}
	sendJSON(w, http.StatusOK, toCommentJSON(comment))
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	postID, id := routeID(r, "post_id"), routeID(r, "id")
	existing, err := h.comments.Get(postID, id)
	if err != nil {
		sendServiceError(w, r, "api_update_comment", err)
		return
	}

	var in struct {
		Text *string `json:"text"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	text := existing.Text
	switch {
	case in.Text != nil:
		text = *in.Text
	case r.Method == http.MethodPut:
		text = ""
	}

	comment, err := h.comments.Update(middleware.CurrentUser(r.Context()), postID, id, text)
	if err != nil {
		sendServiceError(w, r, "api_update_comment", err)
		return
	}
	sendJSON(w, http.StatusOK, toCommentJSON(comment))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.comments.Delete(middleware.CurrentUser(r.Context()), routeID(r, "post_id"), routeID(r, "id"))
	if err != nil {
		sendServiceError(w, r, "api_delete_comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFollows lists whom the caller follows, filtered by ?search=.
func (h *Handler) ListFollows(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.CurrentUser(r.Context())
	authors, err := h.follows.Following(viewer, r.URL.Query().Get("search"))
	if err != nil {
		sendServiceError(w, r, "api_list_follows", err)
		return
	}
	out := make([]followJSON, 0, len(authors))
	for _, a := range authors {
		out = append(out, followJSON{User: viewer.Username, Following: a.Username})
	}
	page := pagination.Paginate(len(out), r.URL.Query().Get("page"), h.perPage)
	sendPage(w, r, page, pagination.Slice(out, page))
}

// CreateFollow subscribes the caller to the author named in "following".
// It answers 201 for a new subscription and 200 when it already existed.
func (h *Handler) CreateFollow(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Following string `json:"following"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Following == "" {
		sendValidation(w, models.ValidationErrors{"following": "This field is required"})
		return
	}

	author, err := h.users.GetByUsername(in.Following)
	if errors.Is(err, repositories.ErrNotFound) {
		sendValidation(w, models.ValidationErrors{"following": "User does not exist"})
		return
	}
	if err != nil {
		sendServiceError(w, r, "api_create_follow", err)
		return
	}

	viewer := middleware.CurrentUser(r.Context())
	created, err := h.follows.Follow(viewer, author)
	if err != nil {
		sendServiceError(w, r, "api_create_follow", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	sendJSON(w, status, followJSON{User: viewer.Username, Following: author.Username})
}
