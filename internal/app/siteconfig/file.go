package siteconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/solartech/sitio/internal/domain/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileProvider loads the document from a JSON or YAML file (chosen by
// extension). Readers see whole snapshots; a reload swaps the pointer only
// after the new document parsed and validated.
type FileProvider struct {
	path   string
	logger *zap.Logger

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // serializes loads
}

// NewFileProvider returns a provider for path. Nothing is read until Load,
// Reload or the first Snapshot call.
func NewFileProvider(path string, logger *zap.Logger) *FileProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileProvider{path: filepath.Clean(path), logger: logger}
}

// Path returns the file being served.
func (p *FileProvider) Path() string { return p.path }

// Current implements Provider.
func (p *FileProvider) Current() (*models.SiteConfig, error) {
	s, err := p.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.Site, nil
}

// Snapshot implements Provider. While no document has loaded successfully it
// retries the file on every call.
func (p *FileProvider) Snapshot() (*Snapshot, error) {
	if s := p.current.Load(); s != nil {
		return s, nil
	}
	return p.Reload()
}

// Reload re-reads the file. On failure the previous snapshot stays active and
// the error wraps ErrNotFound, ErrSyntax or ErrInvalid when one applies.
func (p *FileProvider) Reload() (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.read()
	if err != nil {
		return nil, err
	}
	p.current.Store(s)
	p.logger.Info("site config loaded",
		zap.String("path", p.path),
		zap.String("empresa", s.Site.CompanyName()),
	)
	return s, nil
}

func (p *FileProvider) read() (*Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p.path)
		}
		return nil, fmt.Errorf("siteconfig: read %s: %w", p.path, err)
	}

	site, doc, err := decode(p.path, data)
	if err != nil {
		return nil, err
	}
	if err := Validate(site); err != nil {
		return nil, err
	}
	return &Snapshot{Site: site, Document: doc, LoadedAt: time.Now(), Source: p.path}, nil
}

func decode(path string, data []byte) (*models.SiteConfig, map[string]any, error) {
	var (
		site models.SiteConfig
		doc  map[string]any
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		if err := yaml.Unmarshal(data, &site); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		if err := json.Unmarshal(data, &site); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
	}

	if doc == nil {
		return nil, nil, fmt.Errorf("%w: document is empty", ErrInvalid)
	}
	return &site, doc, nil
}

func toDocument(c *models.SiteConfig) (map[string]any, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("siteconfig: encode: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("siteconfig: encode: %w", err)
	}
	return doc, nil
}
