package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

const indexFile = "index.html"

// StaticConfig controls how unmatched paths are answered
type StaticConfig struct {
	// PublicDir is served in every mode
	PublicDir string
	// Production enables the SPA assets and the index.html fallback
	Production bool
	// FrontendDistDir is the SPA bundle on disk
	FrontendDistDir string
	// EmbeddedFrontend is used when FrontendDistDir does not exist
	EmbeddedFrontend fs.FS
}

// staticHandler answers requests no route matched
type staticHandler struct {
	public   fs.FS
	frontend fs.FS
	logger   *zap.Logger
}

func newStaticHandler(cfg StaticConfig, logger *zap.Logger) (*staticHandler, error) {
	h := &staticHandler{logger: logger}

	if cfg.PublicDir != "" {
		ok, err := isDir(cfg.PublicDir)
		if err != nil {
			return nil, err
		}
		if ok {
			h.public = dirFS(cfg.PublicDir)
		} else {
			logger.Info("Public directory not found, static files disabled", zap.String("dir", cfg.PublicDir))
		}
	}

	if cfg.Production {
		frontend, err := frontendFS(cfg.FrontendDistDir, cfg.EmbeddedFrontend)
		if err != nil {
			return nil, err
		}
		if _, err := fs.Stat(frontend, indexFile); err != nil {
			return nil, errors.New("frontend bundle has no index.html")
		}
		h.frontend = frontend
	}

	return h, nil
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		notFound(w)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if h.public != nil {
		if file, ok := lookup(h.public, name); ok {
			http.ServeFileFS(w, r, h.public, file)
			return
		}
	}

	if h.frontend != nil {
		if file, ok := lookup(h.frontend, name); ok {
			http.ServeFileFS(w, r, h.frontend, file)
			return
		}
		// client-side routes are resolved by the SPA
		http.ServeFileFS(w, r, h.frontend, indexFile)
		return
	}

	notFound(w)
}

// lookup resolves name to a regular file in fsys, using index.html for directories
func lookup(fsys fs.FS, name string) (string, bool) {
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}

	info, err := fs.Stat(fsys, name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		name = path.Join(name, indexFile)
		if info, err = fs.Stat(fsys, name); err != nil || info.IsDir() {
			return "", false
		}
	}
	return name, true
}

// frontendFS picks the frontend bundle on disk when dir exists, the embedded one otherwise
func frontendFS(dir string, embedded fs.FS) (fs.FS, error) {
	if dir != "" {
		if ok, err := isDir(dir); err != nil {
			return nil, err
		} else if ok {
			return dirFS(dir), nil
		}
	}
	if embedded == nil {
		return nil, fmt.Errorf("frontend directory %q not found and no embedded bundle", dir)
	}
	return embedded, nil
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
}

func isDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func dirFS(dir string) fs.FS {
	return os.DirFS(dir)
}
