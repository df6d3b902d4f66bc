package curation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridian-gallery/curator/internal/gallery"
)

// stripFences removes a markdown code fence wrapped around a model response.
// Providers with enforced JSON output don't emit fences, but not all do.
func stripFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// parseMetadata decodes one extractor response and checks its invariants.
func parseMetadata(raw string) (*gallery.ImageMetadata, error) {
	var meta gallery.ImageMetadata
	if err := json.Unmarshal([]byte(stripFences(raw)), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// wireMember is one grouped image as the model returns it: the metadata
// fields plus the echoed id.
type wireMember struct {
	ID string `json:"id"`
	gallery.ImageMetadata
}

type wireGroup struct {
	Name    string       `json:"name"`
	Members []wireMember `json:"members"`
}

// parseGroups decodes one sorter response. The contract asks for a bare
// array, but some providers only allow object roots, so a response wrapped
// in a single-key envelope is accepted too.
func parseGroups(raw string) ([]wireGroup, error) {
	text := stripFences(raw)

	var groups []wireGroup
	if err := json.Unmarshal([]byte(text), &groups); err == nil {
		return groups, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse grouping response: %w", err)
	}
	for _, key := range []string{"image_groups", "groups"} {
		if inner, ok := wrapped[key]; ok {
			if err := json.Unmarshal(inner, &groups); err != nil {
				return nil, fmt.Errorf("failed to parse grouping response: %w", err)
			}
			return groups, nil
		}
	}
	if len(wrapped) == 1 {
		for _, inner := range wrapped {
			if err := json.Unmarshal(inner, &groups); err == nil {
				return groups, nil
			}
		}
	}
	return nil, fmt.Errorf("grouping response is not a group array")
}
