package cache

import (
	"bytes"
	"net/http"
)

// HeaderCache reports HIT or MISS on cached routes.
const HeaderCache = "X-Cache"

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves GET requests from c, keyed by request URI. Only 200
// responses are stored; other methods and statuses pass through untouched.
func Middleware(c *LRU) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c == nil || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := r.URL.RequestURI()
			if body, ok := c.Get(key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(HeaderCache, "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			cw := &captureWriter{ResponseWriter: w}
			cw.Header().Set(HeaderCache, "MISS")
			next.ServeHTTP(cw, r)
			if cw.status == http.StatusOK {
				c.Set(key, bytes.Clone(cw.body.Bytes()))
			}
		})
	}
}
