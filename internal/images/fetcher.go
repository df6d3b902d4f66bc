package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxBytes caps how much of a remote image is read.
const DefaultMaxBytes = 10 * 1024 * 1024

// Fetcher retrieves remote images for URL-based session creation.
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a fetcher with a sane timeout and size cap.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch downloads one image, enforcing the size cap. The returned bytes are
// the raw response body; callers decode and validate them.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	max := f.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, max))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) >= max {
		return nil, fmt.Errorf("image too large (max %d bytes)", max)
	}

	return data, nil
}

// FileName extracts a usable file name from an image URL, stripping query
// and fragment parts.
func FileName(imageURL string) string {
	parts := strings.Split(imageURL, "/")
	filename := parts[len(parts)-1]
	if idx := strings.IndexAny(filename, "?#"); idx != -1 {
		filename = filename[:idx]
	}
	if filename == "" {
		filename = "image.jpg"
	}
	return filename
}
