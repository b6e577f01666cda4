package models

import (
	"bytes"
	"encoding/json"
)

// Submission is a contact-form submission as received from the visitor.
// Field names on the wire are kept from the public form.
type Submission struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
	Mensaje  string `json:"mensaje"`

	// Website is the honeypot. The form hides it, so humans leave it empty.
	Website string `json:"website"`
}

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors keeps validation failures in field declaration order.
// It marshals to a JSON object whose keys keep that order.
type FieldErrors []FieldError

// Get returns the message recorded for field, if any.
func (fe FieldErrors) Get(field string) (string, bool) {
	for _, e := range fe {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

// Has reports whether field has a recorded error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe.Get(field)
	return ok
}

// Fields returns the field names in recorded order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.Field)
	}
	return out
}

// MarshalJSON writes {"field":"message",...} preserving order.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range fe {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Field)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Message)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	Valid       bool
	FieldErrors FieldErrors
}
