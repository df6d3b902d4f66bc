package gallery

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SortDimension names one of the supported grouping criteria.
type SortDimension string

const (
	SortByContent SortDimension = "content"
	SortByColor   SortDimension = "color"
	SortByMood    SortDimension = "mood"
	SortBySetting SortDimension = "setting"
	SortByPeople  SortDimension = "people"
)

// SortDimensions returns every supported dimension in display order.
func SortDimensions() []SortDimension {
	return []SortDimension{SortByContent, SortByColor, SortByMood, SortBySetting, SortByPeople}
}

// ParseSortDimension validates a dimension name supplied by a caller.
func ParseSortDimension(s string) (SortDimension, error) {
	d := SortDimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortDimensions() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported sort dimension: %q", s)
}

// UngroupedName is the group that collects records the model failed to place.
const UngroupedName = "Ungrouped"

// ImageMetadata is the structured description the model produces for one image.
// It is populated once by the extractor and never mutated after.
type ImageMetadata struct {
	Description    string   `json:"description"`
	Categories     []string `json:"categories"`
	DominantColors []string `json:"dominant_colors"`
	HasPeople      bool     `json:"has_people"`
}

// Validate checks the invariants the metadata schema promises. A response
// that fails here is treated as malformed, not repaired.
func (m *ImageMetadata) Validate() error {
	if strings.TrimSpace(m.Description) == "" {
		return fmt.Errorf("description is empty")
	}
	if len(m.Categories) == 0 {
		return fmt.Errorf("categories is empty")
	}
	if len(m.DominantColors) == 0 {
		return fmt.Errorf("dominant_colors is empty")
	}
	return nil
}

// ImageRecord is one image owned by a session: its payload on disk, its
// display handles, and the metadata the extractor produced for it. ID is the
// stable identifier carried through the grouping round trip; members of a
// grouping response are matched back to records by ID only, so two images
// with identical descriptions never collide.
type ImageRecord struct {
	ID          string         `json:"id"`
	FileName    string         `json:"file_name"`
	Path        string         `json:"-"`
	PreviewPath string         `json:"-"`
	PreviewURL  string         `json:"preview_url,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	Taken       time.Time      `json:"taken,omitzero"`
	Camera      string         `json:"camera,omitempty"`
	Metadata    *ImageMetadata `json:"metadata,omitempty"`
}

// MIME returns the payload's MIME type, falling back to the file extension.
func (r *ImageRecord) MIME() string {
	if r.ContentType != "" {
		return r.ContentType
	}
	switch strings.ToLower(filepath.Ext(r.FileName)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Group is a named partition of records produced by the sorter.
type Group struct {
	Name      string         `json:"name"`
	MemberIDs []string       `json:"member_ids"`
	Members   []*ImageRecord `json:"members,omitempty"`
}

// SortRequest asks the sorter to partition records along one dimension.
type SortRequest struct {
	Dimension SortDimension
	Records   []*ImageRecord
}

// GallerySession owns the uploaded records for one page view. Sessions are
// held in memory only and discarded, previews included, when deleted.
type GallerySession struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Model     string         `json:"model,omitempty"`
	FocusHint string         `json:"focus_hint,omitempty"`
	Records   []*ImageRecord `json:"records"`
	Groups    []Group        `json:"groups,omitempty"`
	SortedBy  SortDimension  `json:"sorted_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Record returns the record with the given id, or nil.
func (s *GallerySession) Record(id string) *ImageRecord {
	for _, r := range s.Records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Described returns the records that already carry metadata.
func (s *GallerySession) Described() []*ImageRecord {
	out := make([]*ImageRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if r.Metadata != nil {
			out = append(out, r)
		}
	}
	return out
}

// Pending returns the records still waiting for metadata, which is also the
// retry set after a partial failure.
func (s *GallerySession) Pending() []*ImageRecord {
	out := make([]*ImageRecord, 0, len(s.Records))
	for _, r := range s.Records {
		if r.Metadata == nil {
			out = append(out, r)
		}
	}
	return out
}
