package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/gallery"
)

// handleDescribe runs the metadata stage over the session's records that do
// not have metadata yet, which makes a repeat call the retry path for
// whatever failed last time.
func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request, session *gallery.GallerySession) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		FocusHint string `json:"focus_hint"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
	}
	// An empty body means "use the session's settings".
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.FocusHint != "" {
		session.FocusHint = request.FocusHint
	}
	if request.Provider != "" {
		session.Provider = request.Provider
	}
	if request.Model != "" {
		session.Model = request.Model
	}

	provider, providerName, model, err := h.resolveBackend(session)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pending := session.Pending()
	failed := make([]map[string]string, 0)

	if len(pending) > 0 {
		extractor := &curation.Extractor{
			Provider:    provider,
			Model:       model,
			Temperature: h.cfg.Temperature,
			Concurrency: h.cfg.Concurrency,
		}

		slog.Info("Describing session images", "session_id", session.ID, "pending", len(pending), "provider", providerName, "model", model)
		results := extractor.DescribeAll(r.Context(), pending, session.FocusHint)

		described := 0
		for _, res := range results {
			if res.Err != nil {
				slog.Error("Image description failed", "session_id", session.ID, "id", res.Record.ID, "error", res.Err)
				failed = append(failed, map[string]string{
					"id":    res.Record.ID,
					"error": res.Err.Error(),
				})
				continue
			}
			described++
		}

		// New metadata invalidates any earlier grouping.
		if described > 0 {
			session.Groups = nil
			session.SortedBy = ""
		}

		h.store.Set(session.ID, session)
	}

	h.writeJSON(w, map[string]any{
		"session": session,
		"failed":  failed,
	})
}
