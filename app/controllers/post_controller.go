package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/pkg/logger"

	"github.com/gorilla/mux"
)

// PostController serves the post listings, post pages and post forms.
type PostController struct {
	renderer
	posts   *services.PostService
	groups  *services.GroupService
	users   *services.UserService
	follows *services.FollowService
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, groups *services.GroupService, users *services.UserService,
	follows *services.FollowService, templates map[string]*template.Template) *PostController {
	return &PostController{
		renderer: renderer{templates: templates},
		posts:    posts,
		groups:   groups,
		users:    users,
		follows:  follows,
	}
}

// Index lists every post, newest first.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	page, err := pc.posts.Page(repositories.PostFilter{}, r.URL.Query().Get("page"))
	if err != nil {
		pc.serverError(w, r, "index", err)
		return
	}
	pc.render(w, r, "index", http.StatusOK, &viewData{
		Title: "Latest posts",
		Posts: page.Posts,
		Page:  page.Page,
	})
}

// GroupPosts lists the posts of one group.
func (pc *PostController) GroupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := pc.groups.GetBySlug(mux.Vars(r)["slug"])
	if errors.Is(err, repositories.ErrNotFound) {
		pc.notFound(w, r)
		return
	}
	if err != nil {
		pc.serverError(w, r, "group_posts", err)
		return
	}

	page, err := pc.posts.Page(repositories.PostFilter{GroupID: group.ID}, r.URL.Query().Get("page"))
	if err != nil {
		pc.serverError(w, r, "group_posts", err)
		return
	}
	pc.render(w, r, "group", http.StatusOK, &viewData{
		Title: group.Title,
		Group: group,
		Posts: page.Posts,
		Page:  page.Page,
	})
}

// Profile lists an author's posts with their post count and follow state.
func (pc *PostController) Profile(w http.ResponseWriter, r *http.Request) {
	author, err := pc.users.GetByUsername(mux.Vars(r)["username"])
	if errors.Is(err, repositories.ErrNotFound) {
		pc.notFound(w, r)
		return
	}
	if err != nil {
		pc.serverError(w, r, "profile", err)
		return
	}

	page, err := pc.posts.Page(repositories.PostFilter{AuthorID: author.ID}, r.URL.Query().Get("page"))
	if err != nil {
		pc.serverError(w, r, "profile", err)
		return
	}

	viewer := middleware.CurrentUser(r.Context())
	following, err := pc.follows.IsFollowing(viewer, author)
	if err != nil {
		pc.serverError(w, r, "profile", err)
		return
	}

	pc.render(w, r, "profile", http.StatusOK, &viewData{
		Title:     "Profile of " + author.Username,
		Author:    author,
		Posts:     page.Posts,
		Page:      page.Page,
		PostCount: page.Page.Count,
		Following: following,
		IsSelf:    viewer != nil && viewer.ID == author.ID,
	})
}

// Detail shows one post, its author's post count and its comments.
func (pc *PostController) Detail(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.loadPost(w, r)
	if !ok {
		return
	}

	count, err := pc.posts.CountByAuthor(post.AuthorID)
	if err != nil {
		pc.serverError(w, r, "post_detail", err)
		return
	}
	pc.render(w, r, "detail", http.StatusOK, &viewData{
		Title:     "Post " + post.String(),
		Post:      post,
		PostCount: count,
		Comments:  post.Comments,
	})
}

// Create shows the new post form and publishes submitted posts.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		pc.renderForm(w, r, &viewData{Title: "New post", Form: map[string]string{}})
		return
	}

	viewer := middleware.CurrentUser(r.Context())
	post, form, formErrs := parsePostForm(r)
	if formErrs == nil {
		err := pc.posts.Create(viewer, post)
		if !asValidation(err, &formErrs) {
			if err != nil {
				pc.serverError(w, r, "post_create", err)
				return
			}
			logger.FromContext(r.Context()).InfoWithUser(viewer.Username, "post_created", map[string]interface{}{"post_id": post.ID})
			http.Redirect(w, r, profileURL(viewer.Username), http.StatusFound)
			return
		}
	}

	pc.renderForm(w, r, &viewData{Title: "New post", Form: form, Errors: formErrs})
}

// Edit lets the author change a post; anyone else is sent to the post page.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	existing, ok := pc.loadPost(w, r)
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(r.Context())
	if existing.AuthorID != viewer.ID {
		http.Redirect(w, r, postURL(existing.ID), http.StatusFound)
		return
	}

	if r.Method != http.MethodPost {
		form := map[string]string{"text": existing.Text, "image": existing.Image}
		if existing.GroupID != nil {
			form["group"] = strconv.Itoa(*existing.GroupID)
		}
		pc.renderForm(w, r, &viewData{Title: "Edit post", Form: form, IsEdit: true, Post: existing})
		return
	}

	post, form, formErrs := parsePostForm(r)
	if formErrs == nil {
		post.ID = existing.ID
		err := pc.posts.Update(viewer, post)
		if errors.Is(err, services.ErrForbidden) {
			http.Redirect(w, r, postURL(existing.ID), http.StatusFound)
			return
		}
		if !asValidation(err, &formErrs) {
			if err != nil {
				pc.serverError(w, r, "post_edit", err)
				return
			}
			http.Redirect(w, r, postURL(post.ID), http.StatusFound)
			return
		}
	}

	pc.renderForm(w, r, &viewData{Title: "Edit post", Form: form, Errors: formErrs, IsEdit: true, Post: existing})
}

// FollowIndex lists posts by the authors the viewer follows.
func (pc *PostController) FollowIndex(w http.ResponseWriter, r *http.Request) {
	page, err := pc.follows.Feed(middleware.CurrentUser(r.Context()), r.URL.Query().Get("page"))
	if err != nil {
		pc.serverError(w, r, "follow_index", err)
		return
	}
	pc.render(w, r, "follow", http.StatusOK, &viewData{
		Title: "Subscriptions",
		Posts: page.Posts,
		Page:  page.Page,
	})
}

func (pc *PostController) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		pc.notFound(w, r)
		return nil, false
	}
	post, err := pc.posts.Get(id)
	if errors.Is(err, repositories.ErrNotFound) {
		pc.notFound(w, r)
		return nil, false
	}
	if err != nil {
		pc.serverError(w, r, "load_post", err)
		return nil, false
	}
	return post, true
}

func (pc *PostController) renderForm(w http.ResponseWriter, r *http.Request, data *viewData) {
	groups, err := pc.groups.List()
	if err != nil {
		pc.serverError(w, r, "post_form", err)
		return
	}
	data.Groups = groups
	pc.render(w, r, "form", http.StatusOK, data)
}

// parsePostForm reads text, group and image. The raw values are returned for
// redisplay; errs is non-nil when the group choice is malformed.
func parsePostForm(r *http.Request) (*models.Post, map[string]string, models.ValidationErrors) {
	form := map[string]string{
		"text":  r.PostFormValue("text"),
		"group": r.PostFormValue("group"),
		"image": r.PostFormValue("image"),
	}
	post := &models.Post{Text: form["text"], Image: form["image"]}
	if form["group"] != "" {
		id, err := strconv.Atoi(form["group"])
		if err != nil {
			return post, form, models.ValidationErrors{"group": "Select a valid group"}
		}
		post.GroupID = &id
	}
	return post, form, nil
}

// asValidation stores err in target and reports true when err is a validation failure.
func asValidation(err error, target *models.ValidationErrors) bool {
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		*target = verrs
		return true
	}
	return false
}
