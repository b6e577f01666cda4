package models

// SiteConfig is the site identity and contact document shown on the public
// site and used to address contact notifications. Field names match the
// contact-config.json consumed by the front end.
type SiteConfig struct {
	Empresa       *Empresa                 `json:"empresa,omitempty" yaml:"empresa,omitempty"`
	Contacto      *Contacto                `json:"contacto,omitempty" yaml:"contacto,omitempty"`
	RedesSociales map[string]SocialNetwork `json:"redesSociales,omitempty" yaml:"redesSociales,omitempty"`
	Configuracion *Configuracion           `json:"configuracion,omitempty" yaml:"configuracion,omitempty"`
}

// Empresa is the company identity block.
type Empresa struct {
	Nombre      string `json:"nombre" yaml:"nombre"`
	Descripcion string `json:"descripcion,omitempty" yaml:"descripcion,omitempty"`
	Slogan      string `json:"slogan,omitempty" yaml:"slogan,omitempty"`
}

// Contacto groups the public contact channels.
type Contacto struct {
	Direccion Direccion `json:"direccion" yaml:"direccion"`
	Telefonos []string  `json:"telefonos" yaml:"telefonos"`
	Emails    []Email   `json:"emails" yaml:"emails"`
	Horario   Horario   `json:"horario" yaml:"horario"`
}

// Direccion is a postal address; Completa is the single-line form shown on the site.
type Direccion struct {
	Calle        string `json:"calle,omitempty" yaml:"calle,omitempty"`
	Ciudad       string `json:"ciudad,omitempty" yaml:"ciudad,omitempty"`
	Provincia    string `json:"provincia,omitempty" yaml:"provincia,omitempty"`
	CodigoPostal string `json:"codigoPostal,omitempty" yaml:"codigoPostal,omitempty"`
	Pais         string `json:"pais,omitempty" yaml:"pais,omitempty"`
	Completa     string `json:"completa" yaml:"completa"`
}

// Email is a labelled public email address.
type Email struct {
	Tipo      string `json:"tipo,omitempty" yaml:"tipo,omitempty"`
	Direccion string `json:"direccion" yaml:"direccion"`
}

// Horario holds opening hours.
type Horario struct {
	LunesViernes string `json:"lunesViernes" yaml:"lunesViernes"`
	Sabado       string `json:"sabado" yaml:"sabado"`
	Domingo      string `json:"domingo,omitempty" yaml:"domingo,omitempty"`
}

// SocialNetwork is one entry of redesSociales. WhatsApp uses Numero, the
// rest use URL.
type SocialNetwork struct {
	Activo bool   `json:"activo" yaml:"activo"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Numero string `json:"numero,omitempty" yaml:"numero,omitempty"`
}

// Configuracion holds operational settings.
type Configuracion struct {
	EmailPrincipal string `json:"emailPrincipal,omitempty" yaml:"emailPrincipal,omitempty"`
}

// IsZero reports whether no company field is set.
func (e *Empresa) IsZero() bool {
	return e == nil || *e == Empresa{}
}

// IsZero reports whether no contact channel is set.
func (c *Contacto) IsZero() bool {
	return c == nil || (c.Direccion == Direccion{} && len(c.Telefonos) == 0 &&
		len(c.Emails) == 0 && c.Horario == Horario{})
}

// CompanyName returns empresa.nombre or "" when absent.
func (c *SiteConfig) CompanyName() string {
	if c == nil || c.Empresa == nil {
		return ""
	}
	return c.Empresa.Nombre
}

// PrimaryEmail returns configuracion.emailPrincipal or "" when absent.
func (c *SiteConfig) PrimaryEmail() string {
	if c == nil || c.Configuracion == nil {
		return ""
	}
	return c.Configuracion.EmailPrincipal
}
