package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Authorization, Content-Type, Accept, X-Request-ID"
	corsExposeHeaders = "X-Request-ID, Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining"
	corsMaxAge        = "86400"
)

// originSet matches request origins against the configured list.
// A "*" entry admits any origin; the origin is still echoed back so that
// credentialed requests keep working.
type originSet struct {
	any     bool
	origins map[string]bool
}

func newOriginSet(list []string) originSet {
	set := originSet{origins: make(map[string]bool, len(list))}
	for _, o := range list {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			set.any = true
		default:
			set.origins[o] = true
		}
	}
	return set
}

func (s originSet) allows(origin string) bool {
	if origin == "" {
		return false
	}
	return s.any || s.origins[origin]
}

// CORS answers preflight requests with 204 and decorates every response to an
// allowed origin with the CORS headers. Requests from other origins pass
// through untouched; the browser enforces the rest.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	set := newOriginSet(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		hdr := w.Header()
		hdr.Add("Vary", "Origin")
		allowed := set.allows(origin)
		if allowed {
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method != http.MethodOptions {
			if allowed {
				hdr.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}
			next.ServeHTTP(w, r)
			return
		}

		if allowed {
			hdr.Set("Access-Control-Allow-Methods", corsAllowMethods)
			hdr.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			hdr.Set("Access-Control-Max-Age", corsMaxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
