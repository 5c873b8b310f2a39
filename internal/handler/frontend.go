package handler

import (
	"log"
	"net/http"
	"os"

	"hobbyhub/internal/httputil"
)

// FrontendHandler serves the single-file web front-end.
type FrontendHandler struct {
	path string
}

func NewFrontendHandler(path string) *FrontendHandler {
	return &FrontendHandler{path: path}
}

// Serve handles GET /frontend
func (h *FrontendHandler) Serve(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.path)
	if err != nil || info.IsDir() {
		log.Printf("[Frontend] %s is not available: %v", h.path, err)
		httputil.WriteNotFound(w, "Front-end is not installed")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, h.path)
}
