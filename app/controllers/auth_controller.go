package controllers

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"yatube/app/auth"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/services"
	"yatube/pkg/logger"
)

// AuthController handles signup, login and logout for browser sessions.
type AuthController struct {
	renderer
	users        *services.UserService
	secureCookie bool
}

func NewAuthController(users *services.UserService, secureCookie bool, templates map[string]*template.Template) *AuthController {
	return &AuthController{
		renderer:     renderer{templates: templates},
		users:        users,
		secureCookie: secureCookie,
	}
}

// Signup registers an account and logs it in.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ac.render(w, r, "signup", http.StatusOK, &viewData{Title: "Sign up", Form: map[string]string{}})
		return
	}

	form := map[string]string{
		"username":   strings.TrimSpace(r.PostFormValue("username")),
		"email":      strings.TrimSpace(r.PostFormValue("email")),
		"first_name": strings.TrimSpace(r.PostFormValue("first_name")),
		"last_name":  strings.TrimSpace(r.PostFormValue("last_name")),
	}
	password := r.PostFormValue("password1")

	user := &models.User{
		Username:  form["username"],
		Email:     form["email"],
		FirstName: form["first_name"],
		LastName:  form["last_name"],
	}

	var formErrs models.ValidationErrors
	if password != r.PostFormValue("password2") {
		formErrs = models.ValidationErrors{"password2": "The two password fields didn't match"}
	} else {
		err := ac.users.Register(user, password)
		if !asValidation(err, &formErrs) {
			if err != nil {
				ac.serverError(w, r, "signup", err)
				return
			}
			logger.FromContext(r.Context()).InfoWithUser(user.Username, "user_registered", nil)
			ac.startSession(w, r, user, "/")
			return
		}
	}

	ac.render(w, r, "signup", http.StatusOK, &viewData{Title: "Sign up", Form: form, Errors: formErrs})
}

// Login checks credentials and starts a session.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if r.Method != http.MethodPost {
		ac.render(w, r, "login", http.StatusOK, &viewData{Title: "Log in", Next: next, Form: map[string]string{}})
		return
	}

	if v := r.PostFormValue("next"); v != "" {
		next = v
	}
	username := r.PostFormValue("username")
	user, err := ac.users.Authenticate(username, r.PostFormValue("password"))
	if errors.Is(err, services.ErrInvalidCredentials) {
		logger.FromContext(r.Context()).Warn("login_failed", map[string]interface{}{"username": username})
		ac.render(w, r, "login", http.StatusOK, &viewData{
			Title:   "Log in",
			Next:    next,
			Form:    map[string]string{"username": username},
			Message: "Please enter a correct username and password",
		})
		return
	}
	if err != nil {
		ac.serverError(w, r, "login", err)
		return
	}
	ac.startSession(w, r, user, next)
}

// Logout ends the session.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (ac *AuthController) startSession(w http.ResponseWriter, r *http.Request, user *models.User, next string) {
	token, err := auth.GenerateToken(user)
	if err != nil {
		ac.serverError(w, r, "session", err)
		return
	}
	middleware.SetSessionCookie(w, token, auth.TokenLifetime(), ac.secureCookie)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
