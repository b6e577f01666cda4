package pipeline

import (
	"fmt"
	"net/http"

	"github.com/solartech/sitio/internal/domain/models"
)

// Kind classifies why a submission was not delivered.
type Kind string

const (
	KindInputRejected      Kind = "input_rejected"
	KindSpamRejected       Kind = "spam_rejected"
	KindRateLimited        Kind = "rate_limited"
	KindTransportFailure   Kind = "transport_failure"
	KindConfigurationError Kind = "configuration_error"
)

// Caller-facing messages.
const (
	MsgSuccess     = "Mensaje enviado correctamente. Nos pondremos en contacto contigo pronto."
	MsgInvalid     = "Por favor, corrige los errores en el formulario"
	MsgBadRequest  = "Solicitud inválida"
	MsgRateLimited = "Demasiadas solicitudes, inténtalo más tarde."
	MsgInternal    = "Error interno del servidor. Por favor, inténtalo más tarde."
)

// Error is a rejected submission. Message is safe to show to the submitter;
// Err carries the internal cause and is never sent to the client.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Fields  models.FieldErrors
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the HTTP status code for the error.
func (e *Error) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func inputRejected(fields models.FieldErrors) *Error {
	return &Error{Kind: KindInputRejected, Message: MsgInvalid, Status: http.StatusBadRequest, Fields: fields}
}

func spamRejected() *Error {
	return &Error{Kind: KindSpamRejected, Message: MsgBadRequest, Status: http.StatusBadRequest}
}

func rateLimited() *Error {
	return &Error{Kind: KindRateLimited, Message: MsgRateLimited, Status: http.StatusTooManyRequests}
}

func transportFailure(err error) *Error {
	return &Error{Kind: KindTransportFailure, Message: MsgInternal, Status: http.StatusInternalServerError, Err: err}
}
