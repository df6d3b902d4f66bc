package eval

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/gallery"
)

// Options configures one evaluation run.
type Options struct {
	DatasetPath string
	// Sample caps how many records are evaluated; 0 means all.
	Sample int
	// Provider is the resolved provider name, recorded in the report.
	Provider  string
	Extractor *curation.Extractor
}

// Run loads a labeled dataset, describes every image through the extractor
// pool, scores the results against the references and writes a YAML report
// under evals/.
func Run(ctx context.Context, opts Options) error {
	slog.Info("Starting evaluation run", "dataset", opts.DatasetPath, "provider", opts.Provider, "model", opts.Extractor.Model)

	var (
		dataset []Record
		err     error
	)
	if opts.Sample > 0 {
		dataset, err = LoadSample(opts.DatasetPath, opts.Sample)
	} else {
		dataset, err = Load(opts.DatasetPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(dataset) == 0 {
		return fmt.Errorf("dataset %s has no records", opts.DatasetPath)
	}

	slog.Info("Dataset loaded", "records", len(dataset))

	records := make([]*gallery.ImageRecord, len(dataset))
	for i, item := range dataset {
		records[i] = &gallery.ImageRecord{
			ID:       recordID(item),
			FileName: filepath.Base(item.ImagePath),
			Path:     item.ImagePath,
		}
	}

	slog.Info("Describing images", "concurrency", opts.Extractor.Concurrency)

	results := make([]Result, len(dataset))
	for i, res := range opts.Extractor.DescribeAll(ctx, records, "") {
		result := Result{ID: recordID(dataset[i])}
		if res.Err != nil {
			result.Error = res.Err.Error()
		} else {
			cmp := Compare(dataset[i], res.Record.Metadata)
			result.Generated = res.Record.Metadata
			result.Comparison = &cmp
		}
		results[i] = result
	}

	summary := Summarize(results)

	if err := SaveToYAML(EvalConfig{
		Provider:    opts.Provider,
		Model:       opts.Extractor.Model,
		Temperature: opts.Extractor.Temperature,
		DatasetPath: opts.DatasetPath,
		SampleSize:  opts.Sample,
	}, summary, results); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	printSummary(summary)

	return nil
}

// recordID keys a dataset record, falling back to the image file name for
// datasets that only list paths.
func recordID(r Record) string {
	if r.ID != "" {
		return r.ID
	}
	return filepath.Base(r.ImagePath)
}

func printSummary(summary Summary) {
	fmt.Println("\n========================================")
	fmt.Println("Evaluation Summary")
	fmt.Println("========================================")
	fmt.Printf("Total Records:        %d\n", summary.TotalRecords)
	fmt.Printf("Successful Evals:     %d\n", summary.SuccessfulEvals)
	fmt.Printf("Failed Evals:         %d\n", summary.FailedEvals)
	fmt.Println()
	fmt.Printf("Category Overlap:     %.2f%%\n", summary.MeanCategoryOverlap*100)
	fmt.Printf("Color Match Rate:     %.2f%%\n", summary.ColorMatchRate*100)
	fmt.Printf("People Accuracy:      %.2f%%\n", summary.PeopleAccuracy*100)
	fmt.Println("========================================")
}
