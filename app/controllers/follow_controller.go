package controllers

import (
	"errors"
	"html/template"
	"net/http"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/gorilla/mux"
)

// FollowController subscribes and unsubscribes the viewer from authors.
type FollowController struct {
	renderer
	follows *services.FollowService
	users   *services.UserService
}

func NewFollowController(follows *services.FollowService, users *services.UserService, templates map[string]*template.Template) *FollowController {
	return &FollowController{
		renderer: renderer{templates: templates},
		follows:  follows,
		users:    users,
	}
}

// Follow subscribes the viewer; following yourself just returns to the profile.
func (fc *FollowController) Follow(w http.ResponseWriter, r *http.Request) {
	author, ok := fc.loadAuthor(w, r)
	if !ok {
		return
	}
	_, err := fc.follows.Follow(middleware.CurrentUser(r.Context()), author)
	if errors.Is(err, services.ErrSelfFollow) {
		http.Redirect(w, r, profileURL(author.Username), http.StatusFound)
		return
	}
	if err != nil {
		fc.serverError(w, r, "profile_follow", err)
		return
	}
	http.Redirect(w, r, "/follow/", http.StatusFound)
}

// Unfollow removes the subscription if there is one.
func (fc *FollowController) Unfollow(w http.ResponseWriter, r *http.Request) {
	author, ok := fc.loadAuthor(w, r)
	if !ok {
		return
	}
	if _, err := fc.follows.Unfollow(middleware.CurrentUser(r.Context()), author); err != nil {
		fc.serverError(w, r, "profile_unfollow", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (fc *FollowController) loadAuthor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	author, err := fc.users.GetByUsername(mux.Vars(r)["username"])
	if errors.Is(err, repositories.ErrNotFound) {
		fc.notFound(w, r)
		return nil, false
	}
	if err != nil {
		fc.serverError(w, r, "load_author", err)
		return nil, false
	}
	return author, true
}
