// Package contact serves POST /contacto.
package contact

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/solartech/sitio/httputil"
	"github.com/solartech/sitio/internal/app/pipeline"
	"github.com/solartech/sitio/internal/app/ratelimit"
	"github.com/solartech/sitio/internal/domain/models"
	"github.com/solartech/sitio/middleware"
	"go.uber.org/zap"
)

const msgTooLarge = "Solicitud demasiado grande"

// Submitter runs one submission; *pipeline.Pipeline implements it.
type Submitter interface {
	Submit(ctx context.Context, key string, in models.Submission) (pipeline.Result, error)
}

type Handler struct {
	sub    Submitter
	key    ratelimit.KeyFunc
	now    func() time.Time
	logger *zap.Logger
}

// New returns a handler keyed on the client IP unless key is given.
func New(sub Submitter, key ratelimit.KeyFunc, logger *zap.Logger) *Handler {
	if key == nil {
		key = ratelimit.RemoteIPKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sub: sub, key: key, now: time.Now, logger: logger}
}

func (h *Handler) Mount(r chi.Router) {
	r.With(middleware.RequireFormOrJSON(http.StatusBadRequest, pipeline.MsgBadRequest)).Post("/contacto", h.submit)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	in, err := decode(r)
	if err != nil {
		h.logger.Debug("unreadable contact body",
			zap.String("request_id", chiRequestID(r)), zap.Error(err))
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.JSONError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		httputil.JSONError(w, http.StatusBadRequest, pipeline.MsgBadRequest)
		return
	}

	res, err := h.sub.Submit(r.Context(), h.key(r), in)
	if res.Decision != nil {
		ratelimit.SetHeaders(w.Header(), *res.Decision, h.now())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{Success: true, Message: pipeline.MsgSuccess})
}

func writeError(w http.ResponseWriter, err error) {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		httputil.JSONError(w, http.StatusInternalServerError, pipeline.MsgInternal)
		return
	}
	env := httputil.Envelope{Success: false, Message: pe.Message}
	if len(pe.Fields) > 0 {
		env.Errors = pe.Fields
	}
	httputil.WriteJSON(w, pe.HTTPStatus(), env)
}
