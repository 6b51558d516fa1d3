package controllers

import (
	"errors"
	"html/template"
	"net/http"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/pkg/logger"
)

// CommentController handles comment submission from the post page.
type CommentController struct {
	renderer
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService, templates map[string]*template.Template) *CommentController {
	return &CommentController{
		renderer: renderer{templates: templates},
		comments: comments,
	}
}

// Create stores a valid comment and always returns to the post page.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		cc.notFound(w, r)
		return
	}

	viewer := middleware.CurrentUser(r.Context())
	comment, err := cc.comments.Create(viewer, postID, r.PostFormValue("text"))
	var verrs models.ValidationErrors
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		cc.notFound(w, r)
		return
	case errors.As(err, &verrs):
		logger.FromContext(r.Context()).InfoWithUser(viewer.Username, "comment_rejected", map[string]interface{}{"post_id": postID})
	case err != nil:
		cc.serverError(w, r, "add_comment", err)
		return
	default:
		logger.FromContext(r.Context()).InfoWithUser(viewer.Username, "comment_created", map[string]interface{}{
			"post_id":    postID,
			"comment_id": comment.ID,
		})
	}
	http.Redirect(w, r, postURL(postID), http.StatusFound)
}
