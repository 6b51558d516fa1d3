package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yatube/app/auth"
	"yatube/app/models"
	"yatube/pkg/logger"
)

const (
	// SessionCookie holds the JWT of a logged in browser session.
	SessionCookie = "yatube_session"
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth/login/"
)

// UserLookup resolves the principals referenced by credentials.
type UserLookup interface {
	Get(id int) (*models.User, error)
	GetByToken(token string) (*models.User, error)
}

type userKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}

// Authenticate resolves the request principal from an Authorization header
// ("Token <key>" or "Bearer <jwt>") or the session cookie. Requests with no
// or bad credentials continue anonymously.
func Authenticate(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, users)
			if user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, users UserLookup) *models.User {
	log := logger.FromContext(r.Context())

	if header := r.Header.Get("Authorization"); header != "" {
		scheme, credential, _ := strings.Cut(header, " ")
		credential = strings.TrimSpace(credential)
		switch strings.ToLower(scheme) {
		case "token":
			user, err := users.GetByToken(credential)
			if err != nil {
				log.Warn("auth_token_rejected", nil)
				return nil
			}
			return user
		case "bearer":
			return userFromJWT(r, users, credential)
		}
		return nil
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return userFromJWT(r, users, cookie.Value)
}

func userFromJWT(r *http.Request, users UserLookup, token string) *models.User {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.FromContext(r.Context()).Warn("auth_jwt_rejected", map[string]interface{}{"reason": err.Error()})
		return nil
	}
	user, err := users.Get(claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// RequireLogin redirects anonymous visitors to the login page, remembering
// where they were going.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPIAuth rejects anonymous API calls with 401.
func RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Token realm="api"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Authentication credentials were not provided",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie stores a session JWT in an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
