package eval

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	DatasetPath string  `yaml:"datasetpath"`
	SampleSize  int     `yaml:"samplesize"`
	Timestamp   string  `yaml:"timestamp"`
}

// EvalSummary represents the aggregate section of the eval YAML
type EvalSummary struct {
	TotalRecords        int     `yaml:"totalrecords"`
	SuccessfulEvals     int     `yaml:"successfulevals"`
	FailedEvals         int     `yaml:"failedevals"`
	MeanCategoryOverlap float64 `yaml:"meancategoryoverlap"`
	ColorMatchRate      float64 `yaml:"colormatchrate"`
	PeopleAccuracy      float64 `yaml:"peopleaccuracy"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier      string   `yaml:"identifier"`
	Description     string   `yaml:"description,omitempty"`
	Categories      []string `yaml:"categories,omitempty"`
	DominantColors  []string `yaml:"dominantcolors,omitempty"`
	HasPeople       bool     `yaml:"haspeople"`
	CategoryOverlap float64  `yaml:"categoryoverlap"`
	ColorMatches    int      `yaml:"colormatches"`
	PeopleCorrect   bool     `yaml:"peoplecorrect"`
	Error           string   `yaml:"error,omitempty"`
}

// EvalSpec represents the complete evaluation report
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// SaveToYAML saves evaluation results to a YAML file in evals/ directory
func SaveToYAML(cfg EvalConfig, summary Summary, results []Result) error {
	if err := os.MkdirAll("evals", 0755); err != nil {
		return fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	cfg.Timestamp = timestamp

	spec := EvalSpec{
		Config: cfg,
		Summary: EvalSummary{
			TotalRecords:        summary.TotalRecords,
			SuccessfulEvals:     summary.SuccessfulEvals,
			FailedEvals:         summary.FailedEvals,
			MeanCategoryOverlap: summary.MeanCategoryOverlap,
			ColorMatchRate:      summary.ColorMatchRate,
			PeopleAccuracy:      summary.PeopleAccuracy,
		},
		Results: make([]EvalResult, 0, len(results)),
	}

	for _, r := range results {
		result := EvalResult{
			Identifier: r.ID,
			Error:      r.Error,
		}
		if r.Generated != nil {
			result.Description = r.Generated.Description
			result.Categories = r.Generated.Categories
			result.DominantColors = r.Generated.DominantColors
			result.HasPeople = r.Generated.HasPeople
		}
		if r.Comparison != nil {
			result.CategoryOverlap = r.Comparison.CategoryOverlap
			result.ColorMatches = r.Comparison.ColorMatches
			result.PeopleCorrect = r.Comparison.PeopleCorrect
		}
		spec.Results = append(spec.Results, result)
	}

	filename := fmt.Sprintf("evals/%s-%s.yaml", cfg.Model, timestamp)

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("\n✅ Evaluation results saved to: %s\n", absPath)

	return nil
}
