package cmd

import (
	"github.com/meridian-gallery/curator/internal/eval"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var (
		datasetPath  string
		sample       int
		providerName string
		model        string
		concurrency  int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure metadata extraction accuracy against a labeled dataset",
		Long: `Runs the describe pipeline over a labeled dataset and scores the results.

Datasets are Parquet or JSONL files where each record names an image file
and the reference metadata for it. The run reports category overlap,
dominant color matches and people detection accuracy, and writes a YAML
report under evals/.`,
		Example: `  # Evaluate 25 records with the default provider
  curator eval --dataset gallery.jsonl --sample 25

  # Evaluate everything against a local model
  curator eval --dataset gallery.parquet --provider ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, resolved, err := newExtractor(providerName, model, concurrency)
			if err != nil {
				return err
			}

			return eval.Run(cmd.Context(), eval.Options{
				DatasetPath: datasetPath,
				Sample:      sample,
				Provider:    resolved,
				Extractor:   extractor,
			})
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet or jsonl dataset file (required)")
	cmd.Flags().IntVar(&sample, "sample", 0, "Number of records to evaluate (0 for all)")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to use: gemini, openai or ollama")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent describe calls")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
