// Package web serves the single-page frontend compiled into the binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const (
	indexFile         = "index.html"
	assetCacheControl = "public, max-age=3600"
)

//go:embed all:dist
var dist embed.FS

// Assets returns the embedded build output rooted at its top directory.
func Assets() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err) // dist is embedded; Sub only fails on an invalid name
	}
	return sub
}

// Handler serves files from assets. Paths that do not name a file get
// index.html so client-side routes load the app.
func Handler(assets fs.FS) http.Handler {
	return &spaHandler{assets: assets}
}

type spaHandler struct {
	assets fs.FS
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == indexFile {
		h.serveIndex(w, r)
		return
	}

	info, err := fs.Stat(h.assets, name)
	if err != nil || info.IsDir() {
		h.serveIndex(w, r)
		return
	}

	w.Header().Set("Cache-Control", assetCacheControl)
	http.ServeFileFS(w, r, h.assets, name)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.assets, indexFile)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}
