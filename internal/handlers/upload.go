package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/meridian-gallery/curator/internal/images"
)

// Limit uploads to 10MB per file
const maxUploadBytes = 10 * 1024 * 1024

// HandleSessions serves the session collection: GET lists every live
// session, POST creates one from uploaded files or image URLs.
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.store.GetAll()
		list := make([]*gallery.GallerySession, 0, len(sessions))
		for _, session := range sessions {
			list = append(list, session)
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
		h.writeJSON(w, list)
	case "POST":
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			h.createFromURLs(w, r)
			return
		}
		h.createFromUpload(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createFromUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	session := h.newSession(r.FormValue("name"), r.FormValue("provider"), r.FormValue("model"), r.FormValue("focus_hint"))

	skipped := make([]string, 0)
	for _, header := range files {
		data, err := readUpload(header)
		if err != nil {
			slog.Warn("Skipping upload", "file", header.Filename, "error", err)
			skipped = append(skipped, header.Filename)
			continue
		}
		if _, err := h.addRecord(session, data, header.Filename); err != nil {
			slog.Warn("Skipping upload", "file", header.Filename, "error", err)
			skipped = append(skipped, header.Filename)
		}
	}

	if len(session.Records) == 0 {
		h.writeError(w, "No usable images in upload", http.StatusBadRequest)
		return
	}

	h.store.Set(session.ID, session)
	slog.Info("Session created", "session_id", session.ID, "images", len(session.Records), "skipped", len(skipped))

	h.writeJSON(w, map[string]any{
		"session": session,
		"skipped": skipped,
	})
}

func (h *Handler) createFromURLs(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURLs []string `json:"image_urls"`
		Name      string   `json:"name"`
		Provider  string   `json:"provider"`
		Model     string   `json:"model"`
		FocusHint string   `json:"focus_hint"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(request.ImageURLs) == 0 {
		h.writeError(w, "image_urls is required", http.StatusBadRequest)
		return
	}

	session := h.newSession(request.Name, request.Provider, request.Model, request.FocusHint)

	skipped := make([]string, 0)
	for _, imageURL := range request.ImageURLs {
		data, err := h.fetch.Fetch(r.Context(), imageURL)
		if err != nil {
			slog.Warn("Skipping image URL", "url", imageURL, "error", err)
			skipped = append(skipped, imageURL)
			continue
		}
		if _, err := h.addRecord(session, data, images.FileName(imageURL)); err != nil {
			slog.Warn("Skipping image URL", "url", imageURL, "error", err)
			skipped = append(skipped, imageURL)
		}
	}

	if len(session.Records) == 0 {
		h.writeError(w, "No usable images at the given URLs", http.StatusBadRequest)
		return
	}

	h.store.Set(session.ID, session)
	slog.Info("Session created from URLs", "session_id", session.ID, "images", len(session.Records), "skipped", len(skipped))

	h.writeJSON(w, map[string]any{
		"session": session,
		"skipped": skipped,
	})
}

func (h *Handler) newSession(name, provider, model, focusHint string) *gallery.GallerySession {
	return &gallery.GallerySession{
		ID:        uuid.NewString(),
		Name:      name,
		Provider:  provider,
		Model:     model,
		FocusHint: focusHint,
		Records:   []*gallery.ImageRecord{},
		CreatedAt: time.Now(),
	}
}

// addRecord stores one original under the session's upload directory,
// renders its preview, and appends the finished record to the session.
func (h *Handler) addRecord(session *gallery.GallerySession, data []byte, filename string) (*gallery.ImageRecord, error) {
	if !gallery.IsImagePath(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}

	rec := &gallery.ImageRecord{
		ID:       uuid.NewString(),
		FileName: filepath.Base(filename),
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Failed to read image dimensions", "file", rec.FileName, "error", err)
	} else {
		rec.Width = cfg.Width
		rec.Height = cfg.Height
		rec.ContentType = "image/" + format
	}

	ext := strings.ToLower(filepath.Ext(filename))
	dir := filepath.Join(h.cfg.UploadsDir, "originals", session.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	path := filepath.Join(dir, rec.ID+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	rec.Path = path

	info := h.exif.Read(path)
	rec.Taken = info.Taken
	rec.Camera = info.Camera

	// The gallery page shows previews, falling back to the original for
	// formats the preview pipeline cannot decode.
	rec.PreviewURL = "/static/originals/" + session.ID + "/" + rec.ID + ext
	if img, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		slog.Warn("Failed to decode image for preview", "file", rec.FileName, "error", err)
	} else if previewPath, err := h.previews.Create(session.ID, rec.ID, img); err != nil {
		slog.Warn("Failed to create preview", "file", rec.FileName, "error", err)
	} else {
		rec.PreviewPath = previewPath
		rec.PreviewURL = "/static/previews/" + session.ID + "/" + rec.ID + ".jpg"
	}

	session.Records = append(session.Records, rec)
	return rec, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) >= maxUploadBytes {
		return nil, fmt.Errorf("file too large (max 10MB)")
	}
	return data, nil
}
