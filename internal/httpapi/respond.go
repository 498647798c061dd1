package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/oivindh/raceday/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error taxonomy to HTTP statuses. Anything outside the
// taxonomy is logged and surfaced as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		status, msg = http.StatusUnauthorized, err.Error()
	case apperr.KindForbidden:
		status, msg = http.StatusForbidden, err.Error()
	case apperr.KindNotFound:
		status, msg = http.StatusNotFound, err.Error()
	case apperr.KindInvalidState:
		status, msg = http.StatusConflict, err.Error()
	case apperr.KindValidation:
		status, msg = http.StatusBadRequest, err.Error()
	case apperr.KindConflict:
		status, msg = http.StatusConflict, err.Error()
	default:
		log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

// recoverer converts handler panics into logged 500s.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("❌ panic in %s %s: %v", r.Method, r.URL.Path, rec)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
