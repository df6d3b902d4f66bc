package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/meridian-gallery/curator/internal/providers"
)

const metadataJSON = `{
  "description": "A sunset over a calm ocean with sailboats silhouetted against an orange sky.",
  "categories": ["sunset", "ocean", "sailboat", "silhouette", "dusk"],
  "dominant_colors": ["#e8864a", "#2b3a5c", "#f4c17f"],
  "has_people": false
}`

type stubProvider struct {
	respond func(req providers.Request) (string, error)
}

func (p *stubProvider) GenerateStructured(ctx context.Context, req providers.Request) (string, error) {
	return p.respond(req)
}

func (p *stubProvider) Locality() providers.Locality {
	return providers.LocalityCloud
}

// newTestHandler wires a handler whose provider resolution always lands on
// the given stub.
func newTestHandler(t *testing.T, provider *stubProvider) *Handler {
	t.Helper()
	h := New(Config{
		UploadsDir: t.TempDir(),
		Provider:   "stub",
		Model:      "stub-model",
		Resolve: func(name, prefer string) (providers.Provider, string, error) {
			return provider, "stub", nil
		},
	})
	t.Cleanup(h.Close)
	return h
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if strings.HasSuffix(name, ".png") {
			if err := png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
				t.Fatalf("Failed to encode fixture image: %v", err)
			}
		} else {
			if _, err := fw.Write([]byte("not an image")); err != nil {
				t.Fatalf("Failed to write fixture file: %v", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func createSession(t *testing.T, h *Handler, names ...string) *gallery.GallerySession {
	t.Helper()
	body, contentType := multipartBody(t, names...)
	req := httptest.NewRequest("POST", "/api/sessions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.HandleSessions(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 creating session, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Session *gallery.GallerySession `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}

	session, exists := h.store.Get(response.Session.ID)
	if !exists {
		t.Fatal("Expected the created session in the store")
	}
	return session
}

func TestCreateSessionFromUpload(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)

	session := createSession(t, h, "beach.png", "forest.png")

	if len(session.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(session.Records))
	}
	for _, rec := range session.Records {
		if rec.ID == "" {
			t.Error("Expected a stable id on every record")
		}
		if rec.Width != 40 || rec.Height != 30 {
			t.Errorf("Expected 40x30 dimensions, got %dx%d", rec.Width, rec.Height)
		}
		if rec.ContentType != "image/png" {
			t.Errorf("Expected image/png, got %s", rec.ContentType)
		}
		if _, err := os.Stat(rec.Path); err != nil {
			t.Errorf("Expected original saved at %s: %v", rec.Path, err)
		}
		if _, err := os.Stat(rec.PreviewPath); err != nil {
			t.Errorf("Expected preview saved at %s: %v", rec.PreviewPath, err)
		}
		if !strings.HasPrefix(rec.PreviewURL, "/static/previews/"+session.ID+"/") {
			t.Errorf("Unexpected preview URL %s", rec.PreviewURL)
		}
		if rec.Metadata != nil {
			t.Error("Expected no metadata before describe")
		}
	}
	if session.Records[0].ID == session.Records[1].ID {
		t.Error("Expected distinct record ids")
	}
}

func TestCreateSessionSkipsNonImages(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)

	body, contentType := multipartBody(t, "beach.png", "notes.txt")
	req := httptest.NewRequest("POST", "/api/sessions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.HandleSessions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var response struct {
		Session *gallery.GallerySession `json:"session"`
		Skipped []string                `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Session.Records) != 1 {
		t.Errorf("Expected 1 usable record, got %d", len(response.Session.Records))
	}
	if len(response.Skipped) != 1 || response.Skipped[0] != "notes.txt" {
		t.Errorf("Expected notes.txt skipped, got %v", response.Skipped)
	}
}

func TestCreateSessionAllUnusable(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)

	body, contentType := multipartBody(t, "notes.txt")
	req := httptest.NewRequest("POST", "/api/sessions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.HandleSessions(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an upload with no images, got %d", w.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)

	req := httptest.NewRequest("GET", "/api/sessions/nope", nil)
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestDescribeAndGroupFlow(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)
	session := createSession(t, h, "beach.png", "forest.png", "city.png")

	// Describe every image.
	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/describe", strings.NewReader(`{"focus_hint": "the light"}`))
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from describe, got %d: %s", w.Code, w.Body.String())
	}
	var describeResp struct {
		Failed []map[string]string `json:"failed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &describeResp); err != nil {
		t.Fatalf("Failed to decode describe response: %v", err)
	}
	if len(describeResp.Failed) != 0 {
		t.Fatalf("Expected no failures, got %v", describeResp.Failed)
	}
	if session.FocusHint != "the light" {
		t.Errorf("Expected focus hint stored, got %q", session.FocusHint)
	}
	for _, rec := range session.Records {
		if rec.Metadata == nil {
			t.Fatalf("Expected metadata on %s", rec.FileName)
		}
	}

	// Group by color; the stub places everything in one group.
	provider.respond = func(req providers.Request) (string, error) {
		var members []string
		for _, rec := range session.Records {
			members = append(members, fmt.Sprintf(
				`{"id": %q, "description": "d", "categories": ["a", "b", "c", "d"], "dominant_colors": ["#000000", "#111111", "#222222"], "has_people": false}`,
				rec.ID,
			))
		}
		return `[{"name": "Everything", "members": [` + strings.Join(members, ",") + `]}]`, nil
	}

	req = httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/groups", strings.NewReader(`{"dimension": "color"}`))
	w = httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from groups, got %d: %s", w.Code, w.Body.String())
	}
	if session.SortedBy != gallery.SortByColor {
		t.Errorf("Expected sorted_by color, got %s", session.SortedBy)
	}
	if len(session.Groups) != 1 || session.Groups[0].Name != "Everything" {
		t.Fatalf("Expected one Everything group, got %+v", session.Groups)
	}
	if len(session.Groups[0].MemberIDs) != 3 {
		t.Errorf("Expected all 3 records grouped, got %d", len(session.Groups[0].MemberIDs))
	}
}

func TestDescribeRetriesOnlyPending(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	provider := &stubProvider{respond: func(req providers.Request) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return metadataJSON, nil
	}}
	h := newTestHandler(t, provider)
	session := createSession(t, h, "beach.png", "forest.png")

	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/describe", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("Expected 2 calls on first describe, got %d", calls)
	}

	// Simulate one record having failed by clearing its metadata; the next
	// describe only retries the pending record.
	session.Records[1].Metadata = nil

	req = httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/describe", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	h.HandleSessionDetail(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if calls != 3 {
		t.Errorf("Expected 1 additional call for the pending record, got %d total", calls)
	}
	if session.Records[1].Metadata == nil {
		t.Error("Expected the retried record described")
	}
}

func TestGroupsUnknownDimension(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)
	session := createSession(t, h, "beach.png")

	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/groups", strings.NewReader(`{"dimension": "vibes"}`))
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unknown dimension, got %d", w.Code)
	}
}

func TestGroupsModelFailure(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)
	session := createSession(t, h, "beach.png")

	// Describe first so the sorter has something to send.
	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/describe", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from describe, got %d", w.Code)
	}

	provider.respond = func(providers.Request) (string, error) {
		return "", fmt.Errorf("rate limited")
	}

	req = httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/groups", strings.NewReader(`{"dimension": "mood"}`))
	w = httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 for a model failure, got %d", w.Code)
	}
	if session.Groups != nil {
		t.Error("Expected no groups stored after a failed call")
	}
}

func TestDeleteSessionRemovesFiles(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)
	session := createSession(t, h, "beach.png")

	originalPath := session.Records[0].Path
	previewPath := session.Records[0].PreviewPath

	req := httptest.NewRequest("DELETE", "/api/sessions/"+session.ID, nil)
	w := httptest.NewRecorder()
	h.HandleSessionDetail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from delete, got %d", w.Code)
	}
	if _, exists := h.store.Get(session.ID); exists {
		t.Error("Expected session removed from store")
	}
	if _, err := os.Stat(originalPath); !os.IsNotExist(err) {
		t.Errorf("Expected original removed, stat returned %v", err)
	}
	if _, err := os.Stat(previewPath); !os.IsNotExist(err) {
		t.Errorf("Expected preview removed, stat returned %v", err)
	}
}

func TestListSessions(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)
	createSession(t, h, "beach.png")
	createSession(t, h, "forest.png")

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	w := httptest.NewRecorder()
	h.HandleSessions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var list []*gallery.GallerySession
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode session list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(list))
	}
}

func TestDimensions(t *testing.T) {
	provider := &stubProvider{respond: func(providers.Request) (string, error) { return metadataJSON, nil }}
	h := newTestHandler(t, provider)

	req := httptest.NewRequest("GET", "/api/dimensions", nil)
	w := httptest.NewRecorder()
	h.HandleDimensions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var dims []string
	if err := json.Unmarshal(w.Body.Bytes(), &dims); err != nil {
		t.Fatalf("Failed to decode dimensions: %v", err)
	}
	if len(dims) != 5 {
		t.Errorf("Expected 5 dimensions, got %d", len(dims))
	}
	if dims[0] != "content" {
		t.Errorf("Expected content first, got %s", dims[0])
	}
}
