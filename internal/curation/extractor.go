package curation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/meridian-gallery/curator/internal/providers"
	"github.com/meridian-gallery/curator/internal/schema"
)

// DefaultConcurrency bounds the extractor's parallel model calls unless the
// caller chooses otherwise.
const DefaultConcurrency = 4

// Extractor runs the per-image metadata stage against one provider.
type Extractor struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
	// Concurrency caps parallel model calls. Zero means DefaultConcurrency.
	Concurrency int
}

// DescribeResult pairs one record with the outcome of its metadata call.
// One failed image never hides the results of the others.
type DescribeResult struct {
	Record *gallery.ImageRecord
	Err    error
}

// DescribeAll describes every record with bounded concurrency. The returned
// slice is positionally aligned with records, and records whose call
// succeeded have their Metadata set in place.
func (e *Extractor) DescribeAll(ctx context.Context, records []*gallery.ImageRecord, focusHint string) []DescribeResult {
	results := make([]DescribeResult, len(records))

	concurrency := e.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, rec := range records {
		wg.Add(1)
		go func(idx int, rec *gallery.ImageRecord) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			if err := ctx.Err(); err != nil {
				results[idx] = DescribeResult{Record: rec, Err: err}
				return
			}

			slog.Debug("Describing image", "id", rec.ID, "file", rec.FileName, "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))
			results[idx] = DescribeResult{Record: rec, Err: e.Describe(ctx, rec, focusHint)}
		}(i, rec)
	}

	wg.Wait()
	return results
}

// Describe runs one metadata call and stores the result on the record.
func (e *Extractor) Describe(ctx context.Context, rec *gallery.ImageRecord, focusHint string) error {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", rec.FileName, err)
	}

	raw, err := e.Provider.GenerateStructured(ctx, providers.Request{
		Model:       e.Model,
		Temperature: e.Temperature,
		Prompt:      describePrompt(focusHint),
		Image:       data,
		ImageMIME:   rec.MIME(),
		Schema:      schema.ImageMetadata(),
	})
	if err != nil {
		return fmt.Errorf("model call failed for %s: %w", rec.FileName, err)
	}

	meta, err := parseMetadata(raw)
	if err != nil {
		return fmt.Errorf("bad metadata for %s: %w", rec.FileName, err)
	}

	rec.Metadata = meta
	return nil
}
