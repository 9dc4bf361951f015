package controllers

import (
	"net/http"
	"time"

	h "academicevents/internal/delivery/http/helpers"
	"academicevents/internal/delivery/http/middleware"
	"academicevents/internal/domain"
)

// requirePrincipal returns the authenticated caller or writes a 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return domain.Principal{}, false
	}
	return p, true
}

// queryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date. Missing values yield nil.
func queryTime(r *http.Request, key string) (*time.Time, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}
