package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/gallery"
)

// handleGroups runs the batched grouping stage along a caller-chosen
// dimension and stores the resulting arrangement on the session.
func (h *Handler) handleGroups(w http.ResponseWriter, r *http.Request, session *gallery.GallerySession) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Dimension string `json:"dimension"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	dimension, err := gallery.ParseSortDimension(request.Dimension)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
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

	sorter := &curation.Sorter{
		Provider:    provider,
		Model:       model,
		Temperature: h.cfg.Temperature,
	}

	slog.Info("Grouping session images", "session_id", session.ID, "dimension", dimension, "provider", providerName, "model", model)
	groups, err := sorter.Sort(r.Context(), gallery.SortRequest{
		Dimension: dimension,
		Records:   session.Records,
	})
	if err != nil {
		h.writeError(w, "Failed to group images: "+err.Error(), http.StatusBadGateway)
		return
	}

	session.Groups = groups
	session.SortedBy = dimension
	h.store.Set(session.ID, session)

	h.writeJSON(w, map[string]any{"session": session})
}
