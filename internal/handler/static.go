package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// StaticHandler serves the built single-page front end. Paths that do not
// name a file fall back to index.html so client-side routes resolve.
type StaticHandler struct {
	root  fs.FS
	files http.Handler
}

// NewStaticHandler serves files from dir.
func NewStaticHandler(dir string) *StaticHandler {
	return newStaticHandler(os.DirFS(dir))
}

func newStaticHandler(root fs.FS) *StaticHandler {
	return &StaticHandler{
		root:  root,
		files: http.FileServer(http.FS(root)),
	}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	info, err := fs.Stat(h.root, name)
	if err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.ServeFileFS(w, r, h.root, "index.html")
}
