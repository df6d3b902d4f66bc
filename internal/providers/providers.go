package providers

import (
	"context"

	"github.com/meridian-gallery/curator/internal/schema"
)

// Locality says where a provider runs, so callers can honor a preference
// for on-device versus hosted models.
type Locality string

const (
	LocalityLocal Locality = "local"
	LocalityCloud Locality = "cloud"
)

// Request carries one structured-output call: a prompt, an optional image,
// and the contract the response must satisfy.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the raw encoded bytes of an attached image, nil for
	// text-only calls.
	Image []byte
	// ImageMIME is the image's MIME type, e.g. "image/jpeg".
	ImageMIME string
	Schema    *schema.Schema
}

// Provider defines the interface for a generative model backend.
type Provider interface {
	// GenerateStructured runs one model call and returns the raw response
	// text, which should be JSON conforming to the request's schema.
	GenerateStructured(ctx context.Context, req Request) (string, error)
	Locality() Locality
}
