package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"

	"github.com/solartech/sitio/internal/app/policy"
	"github.com/solartech/sitio/internal/domain/models"
)

// The submission reaching here is already escaped, so the HTML body is
// rendered with text/template; html/template would escape it a second time.
var htmlTpl = template.Must(template.New("contact.html").Funcs(template.FuncMap{
	"breaks": func(s string) string { return strings.ReplaceAll(s, "\n", "<br>") },
}).Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c5530; border-bottom: 2px solid #4CAF50;">Nuevo Mensaje de Contacto</h2>

  <div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px; margin: 20px 0;">
    <h3 style="color: #333; margin-top: 0;">Datos del Cliente:</h3>
    <p><strong>Nombre:</strong> {{.Nombre}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
{{- if .Telefono}}
    <p><strong>Teléfono:</strong> {{.Telefono}}</p>
{{- end}}
  </div>

  <div style="background-color: #fff; padding: 20px; border-left: 4px solid #4CAF50; margin: 20px 0;">
    <h3 style="color: #333; margin-top: 0;">Mensaje:</h3>
    <p style="line-height: 1.6;">{{breaks .Mensaje}}</p>
  </div>

  <div style="margin-top: 30px; padding: 15px; background-color: #e8f5e8; border-radius: 5px; text-align: center;">
    <p style="margin: 0; color: #2c5530; font-size: 14px;">
      Este mensaje fue enviado desde el formulario de contacto del sitio web de {{.Company}}.
    </p>
  </div>
</div>
`))

var textTpl = template.Must(template.New("contact.txt").Parse(`Nuevo Mensaje de Contacto

Nombre: {{.Nombre}}
Email: {{.Email}}
{{- if .Telefono}}
Teléfono: {{.Telefono}}
{{- end}}

Mensaje:
{{.Mensaje}}

--
Este mensaje fue enviado desde el formulario de contacto del sitio web de {{.Company}}.
`))

type view struct {
	Nombre   string
	Email    string
	Telefono string
	Mensaje  string
	Company  string
}

func render(sub models.Submission, company string) (htmlBody, textBody string, err error) {
	v := view{
		Nombre:   sub.Nombre,
		Email:    sub.Email,
		Telefono: sub.Telefono,
		Mensaje:  sub.Mensaje,
		Company:  policy.Sanitize(company),
	}

	var hb bytes.Buffer
	if err := htmlTpl.Execute(&hb, v); err != nil {
		return "", "", fmt.Errorf("notify: render html: %w", err)
	}

	plain := view{
		Nombre:   unescape(v.Nombre),
		Email:    unescape(v.Email),
		Telefono: unescape(v.Telefono),
		Mensaje:  unescape(v.Mensaje),
		Company:  company,
	}
	var tb bytes.Buffer
	if err := textTpl.Execute(&tb, plain); err != nil {
		return "", "", fmt.Errorf("notify: render text: %w", err)
	}

	return hb.String(), tb.String(), nil
}

// unescape reverses the sanitizer for plain-text contexts (text body, headers).
func unescape(s string) string { return html.UnescapeString(s) }
