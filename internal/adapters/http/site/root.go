// Package site serves the embedded landing page and operator guide.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded site to the root of mux. It only answers
// for files that exist; everything else is a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

// RootHandler serves the embedded site.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// ServeHTTP handles GET requests for the landing page and its assets.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path != "/" && !exists(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

func exists(path string) bool {
	f, err := FS().Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
