package contact

import (
	"errors"
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/solartech/sitio/httputil"
	"github.com/solartech/sitio/internal/domain/models"
	"github.com/solartech/sitio/middleware"
)

// decode reads a submission from a JSON or URL-encoded body. Errors wrap
// httputil.ErrBodyTooLarge, ErrEmptyBody or ErrMalformed.
func decode(r *http.Request) (models.Submission, error) {
	var in models.Submission
	if middleware.MediaType(r) == middleware.ContentTypeForm {
		if err := r.ParseForm(); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return in, httputil.ErrBodyTooLarge
			}
			return in, fmt.Errorf("%w: %v", httputil.ErrMalformed, err)
		}
		in.Nombre = r.PostForm.Get("nombre")
		in.Email = r.PostForm.Get("email")
		in.Telefono = r.PostForm.Get("telefono")
		in.Mensaje = r.PostForm.Get("mensaje")
		in.Website = r.PostForm.Get("website")
		return in, nil
	}

	if err := httputil.BindJSON(r, &in); err != nil {
		return in, err
	}
	return in, nil
}

func chiRequestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}
