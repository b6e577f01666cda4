// Package policy holds the pure rules applied to a contact submission:
// field validation, HTML sanitizing and the honeypot check.
package policy

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/solartech/sitio/internal/domain/models"
)

var (
	// emailPattern is a light guardrail, not an RFC 5322 validator. It only
	// requires something@something.something with no spaces. Addresses in use
	// today depend on it staying this loose.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// phonePattern allows digits, spaces, -, +, ( and ), eight or more of them.
	phonePattern = regexp.MustCompile(`^[0-9\s\-+()]{8,}$`)
)

// contactFields is the trimmed view of a submission that the validator sees.
// Field order here is the order errors are reported in.
type contactFields struct {
	Nombre   string `json:"nombre" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,contact_email"`
	Telefono string `json:"telefono" validate:"omitempty,contact_phone"`
	Mensaje  string `json:"mensaje" validate:"required,min=10"`
}

var fieldLabels = map[string]string{
	"nombre":   "Nombre",
	"email":    "Email",
	"telefono": "Teléfono",
	"mensaje":  "Mensaje",
}

// Validator checks submissions against the contact-form rules.
// It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the contact-form tags registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contact_email", ContactEmail)
	_ = v.RegisterValidation("contact_phone", ContactPhone)
	return &Validator{v: v}
}

// ContactEmail validates the permissive email pattern.
func ContactEmail(fl validator.FieldLevel) bool {
	return EmailValid(fl.Field().String())
}

// ContactPhone validates the phone pattern. Empty is handled by omitempty.
func ContactPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// EmailValid reports whether the trimmed value looks like an email address.
func EmailValid(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Validate checks every field and records the first failing rule of each.
// Values are trimmed before checking, so whitespace-only counts as empty.
func (val *Validator) Validate(in models.Submission) models.ValidationResult {
	fields := contactFields{
		Nombre:   strings.TrimSpace(in.Nombre),
		Email:    strings.TrimSpace(in.Email),
		Telefono: strings.TrimSpace(in.Telefono),
		Mensaje:  strings.TrimSpace(in.Mensaje),
	}

	err := val.v.Struct(fields)
	if err == nil {
		return models.ValidationResult{Valid: true}
	}
	return models.ValidationResult{Valid: false, FieldErrors: fieldErrors(err)}
}

// fieldErrors keeps the first failed rule per field. Anything other than
// validator.ValidationErrors means the rules themselves are broken.
func fieldErrors(err error) models.FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		panic(fmt.Sprintf("policy: contact rules failed to run: %v", err))
	}

	out := make(models.FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if out.Has(field) {
			continue
		}
		out = append(out, models.FieldError{Field: field, Message: message(field, fe.Tag())})
	}
	return out
}

func message(field, tag string) string {
	switch tag {
	case "required":
		return "El campo " + fieldLabels[field] + " es obligatorio"
	case "contact_email":
		return "Por favor, introduce un email válido"
	case "contact_phone":
		return "Por favor, introduce un teléfono válido"
	case "min":
		switch field {
		case "nombre":
			return "El nombre debe tener al menos 2 caracteres"
		case "mensaje":
			return "El mensaje debe tener al menos 10 caracteres"
		}
	}
	return "El campo " + fieldLabels[field] + " no es válido"
}
