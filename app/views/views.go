// Package views embeds the HTML templates and parses them into named pages.
package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"yatube/app/pagination"
)

//go:embed layout.html shared/*.html posts/*.html auth/*.html errors/*.html
var files embed.FS

//go:embed static
var static embed.FS

var pages = map[string]string{
	"index":   "posts/index.html",
	"group":   "posts/group.html",
	"profile": "posts/profile.html",
	"detail":  "posts/detail.html",
	"form":    "posts/form.html",
	"follow":  "posts/follow.html",
	"login":   "auth/login.html",
	"signup":  "auth/signup.html",
	"error":   "errors/error.html",
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2 January 2006 15:04")
	},
	"deref": func(id *int) int {
		if id == nil {
			return 0
		}
		return *id
	},
	"pageRange": func(p pagination.Page) []int {
		return p.Numbers()
	},
}

// Load parses every page together with the layout and shared partials.
// Each result is executed through its "layout" template.
func Load() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for name, page := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", "shared/*.html", page)
		if err != nil {
			return nil, err
		}
		templates[name] = t
	}
	return templates, nil
}

// MustLoad is Load for program start-up and tests.
func MustLoad() map[string]*template.Template {
	templates, err := Load()
	if err != nil {
		panic(err)
	}
	return templates
}

// Static serves the embedded stylesheets; mount it under StaticPrefix.
func Static() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix(StaticPrefix, http.FileServer(http.FS(sub)))
}

// StaticPrefix is the URL path the static handler expects.
const StaticPrefix = "/static/"
