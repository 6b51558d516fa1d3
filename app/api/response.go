package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"yatube/app/models"
	"yatube/app/pagination"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/pkg/logger"
)

// pageEnvelope wraps every paginated list response.
type pageEnvelope struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	NumPages int         `json:"num_pages"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]string{"error": message})
}

func sendValidation(w http.ResponseWriter, errs models.ValidationErrors) {
	sendJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}

func sendPage(w http.ResponseWriter, r *http.Request, page pagination.Page, results interface{}) {
	env := pageEnvelope{
		Count:    page.Count,
		Page:     page.Number,
		NumPages: page.NumPages,
		Results:  results,
	}
	if page.HasNext() {
		next := pageURL(r, page.NextNumber())
		env.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(r, page.PreviousNumber())
		env.Previous = &prev
	}
	sendJSON(w, http.StatusOK, env)
}

// pageURL rewrites the page parameter of the current request URL.
func pageURL(r *http.Request, number int) string {
	u := url.URL{Path: r.URL.Path}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()
	return u.String()
}

// sendServiceError maps service and repository errors onto HTTP responses.
func sendServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		sendValidation(w, verrs)
	case errors.Is(err, repositories.ErrNotFound):
		sendError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		sendError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrSelfFollow):
		sendValidation(w, models.ValidationErrors{"following": "You cannot follow yourself"})
	default:
		logger.FromContext(r.Context()).Error(action, err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		sendError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}
