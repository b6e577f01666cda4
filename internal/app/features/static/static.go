// Package static serves the built front end. Paths that match no file fall
// back to index.html so client-side routes load the app.
package static

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options tune the file server.
type Options struct {
	// CacheControl applies to assets. index.html is always "no-cache".
	CacheControl string
	// NotFound answers GET requests under /api/ that match no route, and any
	// miss when index.html is absent. Defaults to http.NotFound.
	NotFound http.Handler
}

type Handler struct {
	root   http.Dir
	files  http.Handler
	opts   Options
	logger *zap.Logger
}

func New(rootDir string, opts Options, logger *zap.Logger) *Handler {
	if opts.NotFound == nil {
		opts.NotFound = http.NotFoundHandler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	root := http.Dir(rootDir)
	return &Handler{root: root, files: http.FileServer(root), opts: opts, logger: logger}
}

// Mount registers the catch-all GET/HEAD route. Mount it after the API routes.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/*", h.ServeHTTP)
	r.Head("/*", h.ServeHTTP)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "api" || strings.HasPrefix(name, "api/") {
		h.opts.NotFound.ServeHTTP(w, r)
		return
	}

	if h.isFile(name) {
		if h.opts.CacheControl != "" {
			w.Header().Set("Cache-Control", h.opts.CacheControl)
		}
		if h.servePrecompressed(w, r, name) {
			return
		}
		h.files.ServeHTTP(w, r)
		return
	}

	h.serveIndex(w, r)
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open("index.html")
	if err != nil {
		h.logger.Debug("index.html missing; nothing to fall back to", zap.String("path", r.URL.Path))
		h.opts.NotFound.ServeHTTP(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		h.opts.NotFound.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", fi.ModTime(), f)
}

func (h *Handler) isFile(name string) bool {
	if name == "" {
		return false
	}
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	return err == nil && !fi.IsDir()
}

// servePrecompressed serves name.br or name.gz when the client accepts it.
func (h *Handler) servePrecompressed(w http.ResponseWriter, r *http.Request, name string) bool {
	for _, cand := range []struct{ ext, encoding string }{{".br", "br"}, {".gz", "gzip"}} {
		if !acceptsEncoding(r, cand.encoding) {
			continue
		}
		f, err := h.root.Open(name + cand.ext)
		if err != nil {
			continue
		}
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			_ = f.Close()
			continue
		}
		w.Header().Set("Content-Encoding", cand.encoding)
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Set("Content-Type", contentType(name))
		http.ServeContent(w, r, name, fi.ModTime(), f)
		_ = f.Close()
		return true
	}
	return false
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

func contentType(name string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
