// Package siteconfig provides the site identity document (company, contact
// channels, social networks) to the API and to the notifier.
package siteconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/solartech/sitio/internal/domain/models"
)

var (
	// ErrNotFound means the configuration file does not exist.
	ErrNotFound = errors.New("siteconfig: file not found")
	// ErrSyntax means the file could not be parsed.
	ErrSyntax = errors.New("siteconfig: syntax error")
	// ErrInvalid means the document parsed but lacks required sections.
	ErrInvalid = errors.New("siteconfig: invalid document")
)

// Snapshot is one immutable loaded document. Document is the file content as
// a generic tree so the API returns every key, including ones the server does
// not model; Site is the typed view used internally.
type Snapshot struct {
	Site     *models.SiteConfig
	Document map[string]any
	LoadedAt time.Time
	Source   string
}

// Provider exposes the current site configuration.
type Provider interface {
	// Current returns the typed configuration.
	Current() (*models.SiteConfig, error)
	// Snapshot returns the full current snapshot.
	Snapshot() (*Snapshot, error)
}

// Validate checks the sections every consumer relies on.
func Validate(c *models.SiteConfig) error {
	if c == nil {
		return fmt.Errorf("%w: empty document", ErrInvalid)
	}
	var missing []string
	if c.Empresa.IsZero() {
		missing = append(missing, "empresa")
	}
	if c.Contacto.IsZero() {
		missing = append(missing, "contacto")
	}
	if len(c.RedesSociales) == 0 {
		missing = append(missing, "redesSociales")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalid, missing)
	}
	return nil
}

// Static serves a fixed snapshot.
type Static struct {
	snap *Snapshot
	err  error
}

// NewStatic validates c and wraps it. doc may be nil, in which case the
// typed config is served as the document.
func NewStatic(c *models.SiteConfig, doc map[string]any) (*Static, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	if doc == nil {
		var err error
		doc, err = toDocument(c)
		if err != nil {
			return nil, err
		}
	}
	return &Static{snap: &Snapshot{Site: c, Document: doc, LoadedAt: time.Now(), Source: "static"}}, nil
}

// Unavailable returns a provider that always fails with err.
func Unavailable(err error) *Static { return &Static{err: err} }

// Current implements Provider.
func (s *Static) Current() (*models.SiteConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap.Site, nil
}

// Snapshot implements Provider.
func (s *Static) Snapshot() (*Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}
