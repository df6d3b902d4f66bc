package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves the bundled UI assets plus the per-session originals
// and previews under the data root.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	if sub, rest, ok := strings.Cut(path, "/"); ok && rest != "" && (sub == "originals" || sub == "previews") {
		http.ServeFile(w, r, filepath.Join(h.cfg.UploadsDir, sub, filepath.FromSlash(rest)))
		return
	}

	if path == "" {
		path = "index.html"
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	// Serve files from the static directory
	http.ServeFile(w, r, "static/"+path)
}
