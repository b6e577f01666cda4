package policy

import (
	"strings"

	"github.com/solartech/sitio/internal/domain/models"
)

// htmlEscaper replaces all five characters in one pass, so an '&' produced
// by an earlier replacement is never escaped again.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitize escapes s for embedding in HTML markup and trims it.
// Apply it once, where the value is rendered.
func Sanitize(s string) string {
	return strings.TrimSpace(htmlEscaper.Replace(s))
}

// SanitizeSubmission returns a copy with every user-supplied field sanitized.
// The honeypot is dropped; it is never rendered.
func SanitizeSubmission(in models.Submission) models.Submission {
	return models.Submission{
		Nombre:   Sanitize(in.Nombre),
		Email:    Sanitize(in.Email),
		Telefono: Sanitize(in.Telefono),
		Mensaje:  Sanitize(in.Mensaje),
	}
}
