package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/solartech/sitio/httputil"
)

// Content types accepted by form endpoints.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// MediaType returns the lower-cased media type of r without parameters.
func MediaType(r *http.Request) string {
	ct := strings.TrimSpace(r.Header.Get("Content-Type"))
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// RequireFormOrJSON rejects bodies that are neither JSON (including +json
// types) nor URL-encoded forms, answering with status and message.
func RequireFormOrJSON(status int, message string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mt := MediaType(r)
			if mt == ContentTypeJSON || mt == ContentTypeForm || strings.HasSuffix(mt, "+json") {
				next.ServeHTTP(w, r)
				return
			}
			httputil.JSONError(w, status, message)
		})
	}
}
