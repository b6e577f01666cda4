package middleware

import (
	"net/http"

	"github.com/solartech/sitio/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler answers unknown API routes with a JSON 404.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("not_found",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
		)
		httputil.JSONError(w, http.StatusNotFound, "Recurso no encontrado")
	}
}

// MethodNotAllowedHandler answers with a JSON 405.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("method_not_allowed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
		)
		httputil.JSONError(w, http.StatusMethodNotAllowed, "Método no permitido")
	}
}
