package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types worth compressing on this site.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// Compress gzip/deflate-encodes compressible responses when enabled. Levels
// outside 1-9 are clamped.
func Compress(enabled bool, level int) func(next http.Handler) http.Handler {
	if !enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return middleware.Compress(level, compressibleTypes...)
}
