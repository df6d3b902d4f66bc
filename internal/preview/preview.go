// Package preview renders the scaled-down JPEGs the gallery page shows in
// place of full uploads. Previews live next to nothing else and are removed
// together with their session.
package preview

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

const (
	DefaultHeight  = 480
	DefaultQuality = 85
)

// Generator writes session-scoped preview images under Dir.
type Generator struct {
	Dir     string
	Height  int
	Quality int
}

// New returns a generator rooted at dir, falling back to the default height
// and JPEG quality where the caller passed zero.
func New(dir string, height, quality int) *Generator {
	if height <= 0 {
		height = DefaultHeight
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Generator{Dir: dir, Height: height, Quality: quality}
}

// Create scales src to the configured height, preserving aspect ratio, and
// writes it as <recordID>.jpg under the session's preview directory. Images
// already smaller than the target height are re-encoded at original size
// rather than upscaled. Returns the written file path.
func (g *Generator) Create(sessionID, recordID string, src image.Image) (string, error) {
	width := src.Bounds().Dx()
	height := src.Bounds().Dy()
	if width == 0 || height == 0 {
		return "", fmt.Errorf("image has no pixels")
	}

	dir := filepath.Join(g.Dir, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create preview dir: %w", err)
	}

	if height > g.Height {
		scale := float64(height) / float64(g.Height)
		width = int(float64(width) / scale)
		height = g.Height
	}

	resized := transform.Resize(src, width, height, transform.Lanczos)
	path := filepath.Join(dir, recordID+".jpg")
	if err := imgio.Save(path, resized, imgio.JPEGEncoder(g.Quality)); err != nil {
		return "", fmt.Errorf("failed to save preview: %w", err)
	}

	slog.Debug("Created preview", "path", path, "width", width, "height", height)
	return path, nil
}

// ReleaseSession removes every preview belonging to one session.
func (g *Generator) ReleaseSession(sessionID string) {
	if sessionID == "" {
		return
	}
	if err := os.RemoveAll(filepath.Join(g.Dir, sessionID)); err != nil {
		slog.Warn("Failed to remove session previews", "session", sessionID, "error", err)
	}
}

// ReleaseAll removes the whole preview tree. Called on shutdown since
// sessions do not outlive the process.
func (g *Generator) ReleaseAll() {
	if err := os.RemoveAll(g.Dir); err != nil {
		slog.Warn("Failed to remove preview dir", "dir", g.Dir, "error", err)
	}
}
