// Package httputil holds the JSON envelope every API response uses and
// helpers to read request bodies.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"go.uber.org/zap"
)

// Envelope is the body of every API response:
// {"success": bool, "message": "...", "data": ..., "errors": {...}}.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Errors returned by BindJSON. Their text is not meant for clients.
var (
	ErrEmptyBody    = errors.New("request body is empty")
	ErrBodyTooLarge = errors.New("request body too large")
	ErrMalformed    = errors.New("malformed JSON")
)

var jsonLogger = zap.NewNop()

// SetLogger sets the logger used to report encoding failures.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		jsonLogger = logger
	}
}

// WriteJSON writes v with status. Status codes outside 100-599 become 500.
// Encoding errors can only be logged since the header is already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		typeName := "nil"
		if v != nil {
			typeName = reflect.TypeOf(v).String()
		}
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", typeName), zap.Error(err))
	}
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// JSONError writes a failure envelope.
func JSONError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// BindJSON decodes one JSON value from the body into v. Unknown fields are
// allowed. Errors wrap ErrEmptyBody, ErrBodyTooLarge or ErrMalformed.
func BindJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return ErrEmptyBody
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return classify(err)
	}
	if dec.More() {
		return fmt.Errorf("%w: multiple JSON values", ErrMalformed)
	}
	return nil
}

func classify(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return ErrBodyTooLarge
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w at position %d", ErrMalformed, syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: field %q expects %s", ErrMalformed, typeErr.Field, typeErr.Type)
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
