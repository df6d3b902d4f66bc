package handlers

import (
	"net/http"
	"strings"

	"github.com/meridian-gallery/curator/internal/gallery"
)

// HandleSessionDetail routes everything under /api/sessions/: the session
// resource itself plus its describe and groups subresources.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch action {
	case "":
		switch r.Method {
		case "GET":
			h.writeJSON(w, session)
		case "DELETE":
			h.store.Delete(sessionID)
			h.writeJSON(w, map[string]any{"deleted": sessionID})
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "describe":
		h.handleDescribe(w, r, session)
	case "groups":
		h.handleGroups(w, r, session)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

// HandleDimensions lists the supported sort dimensions for the UI dropdown.
func (h *Handler) HandleDimensions(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, gallery.SortDimensions())
}
