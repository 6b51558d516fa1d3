package views

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesEveryPage(t *testing.T) {
	templates, err := Load()
	require.NoError(t, err)
	for name := range pages {
		tmpl, ok := templates[name]
		require.True(t, ok, name)
		assert.NotNil(t, tmpl.Lookup("layout"), name)
		assert.NotNil(t, tmpl.Lookup("content"), name)
	}
}

func TestErrorPageRenders(t *testing.T) {
	templates := MustLoad()
	var buf bytes.Buffer
	data := struct {
		Viewer  interface{}
		Title   string
		Message string
	}{Title: "Page not found", Message: "nothing here"}

	require.NoError(t, templates["error"].ExecuteTemplate(&buf, "layout", data))
	assert.Contains(t, buf.String(), "Page not found")
	assert.Contains(t, buf.String(), "nothing here")
	assert.Contains(t, buf.String(), "Log in")
}

func TestStaticServesStylesheet(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), "article.post")

	rec = httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
