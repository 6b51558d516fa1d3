package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"yatube/app/cache"
	"yatube/pkg/logger"
)

// CacheHeader reports whether a response came from the page cache.
const CacheHeader = "X-Page-Cache"

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter passes the response through while keeping a copy of it.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// CachePage serves successful GET responses from store for ttl. Entries are
// keyed by prefix, the viewer and the request URI, so a page rendered for one
// user is never shown to another.
func CachePage(store cache.Store, prefix string, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			log := logger.FromContext(r.Context())
			key := pageKey(r, prefix)

			if data, ok, err := store.Get(key); err != nil {
				log.Error("page_cache_get", err, map[string]interface{}{"key": key})
			} else if ok {
				var page cachedPage
				if err := json.Unmarshal(data, &page); err == nil {
					log.Info("page_cache_hit", map[string]interface{}{"key": key})
					if page.ContentType != "" {
						w.Header().Set("Content-Type", page.ContentType)
					}
					w.Header().Set(CacheHeader, "hit")
					w.WriteHeader(page.Status)
					w.Write(page.Body)
					return
				}
			}

			w.Header().Set(CacheHeader, "miss")
			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status != http.StatusOK {
				return
			}

			data, err := json.Marshal(cachedPage{
				Status:      capture.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				err = store.Set(key, data, ttl)
			}
			if err != nil {
				log.Error("page_cache_set", err, map[string]interface{}{"key": key})
				return
			}
			log.Info("page_cache_miss", map[string]interface{}{"key": key})
		})
	}
}

func pageKey(r *http.Request, prefix string) string {
	viewer := "anon"
	if user := CurrentUser(r.Context()); user != nil {
		viewer = "user" + strconv.Itoa(user.ID)
	}
	return prefix + ":" + viewer + ":" + r.URL.RequestURI()
}
