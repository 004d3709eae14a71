package middleware

import (
	"net/http"
	"strings"
)

const (
	allowMethods    = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
	allowHeaders    = "Authorization, Content-Type, Accept"
	preflightMaxAge = "86400"
)

// CORS restricts cross-origin access to the configured origins. Preflight
// OPTIONS requests are answered with 204; other requests from an allowed
// origin get the Allow-Origin headers stamped onto the response.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSuffix(strings.TrimSpace(origin), "/"); origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		_, ok := allowed[origin]

		if r.Method == http.MethodOptions {
			if ok {
				hdr := w.Header()
				hdr.Set("Access-Control-Allow-Origin", origin)
				hdr.Set("Access-Control-Allow-Methods", allowMethods)
				hdr.Set("Access-Control-Allow-Headers", allowHeaders)
				hdr.Set("Access-Control-Max-Age", preflightMaxAge)
				hdr.Set("Access-Control-Allow-Credentials", "true")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(&corsWriter{ResponseWriter: w, origin: origin}, r)
	})
}

// corsWriter stamps the allow headers just before the status line is written,
// so handlers that never touch headers still get them.
type corsWriter struct {
	http.ResponseWriter
	origin string
}

func (w *corsWriter) WriteHeader(code int) {
	w.Header().Set("Access-Control-Allow-Origin", w.origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.ResponseWriter.WriteHeader(code)
}
