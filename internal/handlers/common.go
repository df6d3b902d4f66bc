package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/exif"
	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/meridian-gallery/curator/internal/images"
	"github.com/meridian-gallery/curator/internal/preview"
	"github.com/meridian-gallery/curator/internal/providers"
	"github.com/meridian-gallery/curator/internal/storage"
)

// Config carries the server-wide defaults handlers fall back to when a
// session or request does not choose its own.
type Config struct {
	// UploadsDir is the data root. Originals are stored under
	// <UploadsDir>/originals/<session>/ and previews under
	// <UploadsDir>/previews/<session>/.
	UploadsDir     string
	PreviewHeight  int
	PreviewQuality int
	Provider       string
	Model          string
	// Prefer selects a provider by locality ("local" or "cloud") when no
	// provider is named anywhere.
	Prefer      string
	Temperature float64
	Concurrency int
	// Resolve maps a provider name and locality preference to a backend.
	// Defaults to curation.ResolveProvider; tests swap in stubs.
	Resolve func(name, prefer string) (providers.Provider, string, error)
}

type Handler struct {
	store    *storage.SessionStore
	previews *preview.Generator
	exif     *exif.Reader
	fetch    *images.Fetcher
	cfg      Config
}

func New(cfg Config) *Handler {
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "uploads"
	}
	if cfg.Resolve == nil {
		cfg.Resolve = curation.ResolveProvider
	}

	h := &Handler{
		store:    storage.New(),
		previews: preview.New(filepath.Join(cfg.UploadsDir, "previews"), cfg.PreviewHeight, cfg.PreviewQuality),
		exif:     exif.NewReader(),
		fetch:    images.NewFetcher(),
		cfg:      cfg,
	}

	h.store.OnEvict(func(session *gallery.GallerySession) {
		h.previews.ReleaseSession(session.ID)
		if err := os.RemoveAll(filepath.Join(cfg.UploadsDir, "originals", session.ID)); err != nil {
			slog.Warn("Failed to remove session uploads", "session_id", session.ID, "error", err)
		}
	})

	return h
}

// Close releases the handler's process-wide resources. Previews are derived
// data, so the whole tree goes with the process.
func (h *Handler) Close() {
	h.exif.Close()
	h.previews.ReleaseAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*gallery.GallerySession, bool) {
	session, exists := h.store.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// resolveBackend picks the provider and model for one pipeline call,
// preferring the session's choices over the server defaults.
func (h *Handler) resolveBackend(session *gallery.GallerySession) (providers.Provider, string, string, error) {
	name := session.Provider
	if name == "" {
		name = h.cfg.Provider
	}

	provider, resolved, err := h.cfg.Resolve(name, h.cfg.Prefer)
	if err != nil {
		return nil, "", "", err
	}

	model := session.Model
	if model == "" {
		model = h.cfg.Model
	}
	if model == "" {
		model = curation.DefaultModel(resolved)
	}

	return provider, resolved, model, nil
}
