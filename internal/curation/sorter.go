package curation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/meridian-gallery/curator/internal/providers"
	"github.com/meridian-gallery/curator/internal/schema"
)

// Sorter runs the batched grouping stage against one provider.
type Sorter struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
}

// promptEntry is the slice of record state the grouping model sees. Paths
// and preview bookkeeping stay out of the prompt.
type promptEntry struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	Categories     []string `json:"categories"`
	DominantColors []string `json:"dominant_colors"`
	HasPeople      bool     `json:"has_people"`
}

// Sort partitions the described records in req along req.Dimension with a
// single model call. Records still missing metadata are skipped; if nothing
// has metadata yet there is nothing to sort and Sort returns nil, nil.
func (s *Sorter) Sort(ctx context.Context, req gallery.SortRequest) ([]gallery.Group, error) {
	dimension, err := gallery.ParseSortDimension(string(req.Dimension))
	if err != nil {
		return nil, err
	}

	described := make([]*gallery.ImageRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		if rec.Metadata != nil {
			described = append(described, rec)
		}
	}
	if len(described) == 0 {
		return nil, nil
	}

	entries := make([]promptEntry, 0, len(described))
	for _, rec := range described {
		entries = append(entries, promptEntry{
			ID:             rec.ID,
			Description:    rec.Metadata.Description,
			Categories:     rec.Metadata.Categories,
			DominantColors: rec.Metadata.DominantColors,
			HasPeople:      rec.Metadata.HasPeople,
		})
	}

	encoded, err := gotoon.Encode(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	raw, err := s.Provider.GenerateStructured(ctx, providers.Request{
		Model:       s.Model,
		Temperature: s.Temperature,
		Prompt:      groupPrompt(dimension, len(described), encoded),
		Schema:      schema.Grouping(),
	})
	if err != nil {
		return nil, fmt.Errorf("grouping call failed: %w", err)
	}

	wire, err := parseGroups(raw)
	if err != nil {
		return nil, err
	}

	return resolveGroups(described, wire), nil
}

// resolveGroups maps the model's reply back onto the real records. Invented
// ids are dropped, an id placed twice keeps its first placement, and records
// the model missed are swept into a trailing catch-all group so the result
// always covers every described record exactly once.
func resolveGroups(records []*gallery.ImageRecord, wire []wireGroup) []gallery.Group {
	byID := make(map[string]*gallery.ImageRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	placed := make(map[string]bool, len(records))
	groups := make([]gallery.Group, 0, len(wire)+1)

	for _, wg := range wire {
		group := gallery.Group{Name: strings.TrimSpace(wg.Name)}
		if group.Name == "" {
			group.Name = "Untitled"
		}
		for _, member := range wg.Members {
			rec, ok := byID[member.ID]
			if !ok {
				slog.Warn("Dropping unknown id from grouping response", "id", member.ID)
				continue
			}
			if placed[member.ID] {
				slog.Warn("Ignoring duplicate placement in grouping response", "id", member.ID)
				continue
			}
			placed[member.ID] = true
			group.MemberIDs = append(group.MemberIDs, member.ID)
			group.Members = append(group.Members, rec)
		}
		if len(group.MemberIDs) > 0 {
			groups = append(groups, group)
		}
	}

	leftover := gallery.Group{Name: gallery.UngroupedName}
	for _, rec := range records {
		if !placed[rec.ID] {
			leftover.MemberIDs = append(leftover.MemberIDs, rec.ID)
			leftover.Members = append(leftover.Members, rec)
		}
	}
	if len(leftover.MemberIDs) > 0 {
		slog.Warn("Grouping response missed records", "count", len(leftover.MemberIDs))
		groups = append(groups, leftover)
	}

	return groups
}
