package controllers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/pkg/logger"

	"github.com/gorilla/mux"
)

// viewData is the single shape every page template renders from.
type viewData struct {
	Viewer    *models.User
	Title     string
	Posts     []*models.Post
	Page      pagination.Page
	Group     *models.Group
	Author    *models.User
	PostCount int
	Following bool
	IsSelf    bool
	Post      *models.Post
	Comments  []*models.Comment
	Groups    []*models.Group
	IsEdit    bool
	Form      map[string]string
	Errors    models.ValidationErrors
	Next      string
	Message   string
}

// renderer executes page templates; controllers embed it.
type renderer struct {
	templates map[string]*template.Template
}

func (rd renderer) render(w http.ResponseWriter, r *http.Request, name string, status int, data *viewData) {
	data.Viewer = middleware.CurrentUser(r.Context())

	tmpl, ok := rd.templates[name]
	if !ok {
		rd.serverError(w, r, "render", errTemplateMissing(name))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.serverError(w, r, "render", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd renderer) notFound(w http.ResponseWriter, r *http.Request) {
	rd.render(w, r, "error", http.StatusNotFound, &viewData{
		Title:   "Page not found",
		Message: "The page " + r.URL.Path + " does not exist.",
	})
}

func (rd renderer) serverError(w http.ResponseWriter, r *http.Request, action string, err error) {
	logger.FromContext(r.Context()).Error(action, err, map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound renders the 404 page for unmatched routes.
func NotFound(templates map[string]*template.Template) http.Handler {
	rd := renderer{templates: templates}
	return http.HandlerFunc(rd.notFound)
}

type errTemplateMissing string

func (e errTemplateMissing) Error() string {
	return "template " + string(e) + " is not loaded"
}

// pathID reads a numeric route variable; mux patterns guarantee the digits.
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil
}

func postURL(id int) string {
	return "/posts/" + strconv.Itoa(id) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
