package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// describedFile is the shape describe emits per image. The CLI keys output
// by path instead of the session record ids the server uses.
type describedFile struct {
	Path     string                 `json:"path"`
	Metadata *gallery.ImageMetadata `json:"metadata"`
}

func newDescribeCmd() *cobra.Command {
	var (
		focus        string
		format       string
		providerName string
		model        string
		concurrency  int
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "describe [dir]",
		Short: "Generate structured metadata for a directory of images",
		Long: `Walks a directory, runs every image through the vision model and emits
one metadata record per image (description, categories, dominant colors,
people detection).

With --watch the command keeps running and describes new images as they
land in the directory.`,
		Example: `  # Describe the current directory as JSON
  curator describe

  # Describe a photo dump as TOON with a focus hint
  curator describe ~/photos --format toon --focus "the weather"

  # Keep describing new files as they arrive
  curator describe ./drop --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			extractor, _, err := newExtractor(providerName, model, concurrency)
			if err != nil {
				return err
			}

			records, err := gallery.ScanDir(dir)
			if err != nil {
				return err
			}
			if len(records) == 0 && !watch {
				return fmt.Errorf("no images found in %s", dir)
			}

			results := extractor.DescribeAll(cmd.Context(), records, focus)
			described := make([]describedFile, 0, len(results))
			seen := make(map[string]bool, len(results))
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					slog.Error("Describe failed", "file", res.Record.FileName, "err", res.Err)
					failed++
					continue
				}
				described = append(described, describedFile{Path: res.Record.Path, Metadata: res.Record.Metadata})
				seen[filepath.Clean(res.Record.Path)] = true
			}

			if len(described) > 0 {
				if err := writeRecords(cmd.OutOrStdout(), described, format); err != nil {
					return err
				}
			}
			if failed > 0 && !watch {
				return fmt.Errorf("%d of %d images failed", failed, len(results))
			}

			if watch {
				return watchDir(cmd.Context(), dir, extractor, focus, format, cmd.OutOrStdout(), seen)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "Aspect the model should pay extra attention to")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, yaml or toon")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to use: gemini, openai or ollama")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent describe calls")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and describe images as they appear")

	return cmd
}

// newExtractor resolves the provider and model for a CLI run, letting flags
// override config the same way sessions override server defaults. The
// resolved provider name comes back for reporting.
func newExtractor(providerName, model string, concurrency int) (*curation.Extractor, string, error) {
	if providerName == "" {
		providerName = viper.GetString("provider.name")
	}
	provider, resolved, err := curation.ResolveProvider(providerName, viper.GetString("provider.prefer"))
	if err != nil {
		return nil, "", err
	}

	if model == "" {
		model = viper.GetString("provider.model")
	}
	if model == "" {
		model = curation.DefaultModel(resolved)
	}
	if concurrency <= 0 {
		concurrency = viper.GetInt("extract.concurrency")
	}

	return &curation.Extractor{
		Provider:    provider,
		Model:       model,
		Temperature: viper.GetFloat64("provider.temperature"),
		Concurrency: concurrency,
	}, resolved, nil
}

func writeRecords(w io.Writer, records []describedFile, format string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Fprint(w, string(data))
	case "toon":
		out, err := gotoon.Encode(records)
		if err != nil {
			return fmt.Errorf("failed to encode TOON: %w", err)
		}
		fmt.Fprintln(w, out)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

// watchDir keeps describing images as they land in dir. Already-described
// paths are skipped; failed ones are retried on their next write event.
func watchDir(ctx context.Context, dir string, extractor *curation.Extractor, focus, format string, out io.Writer, seen map[string]bool) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	dirs, err := watchableDirs(dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	slog.Info("Watching for new images", "dirs", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// New subdirectories start getting watched as they appear.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if !strings.HasPrefix(filepath.Base(event.Name), ".") {
					if err := w.Add(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", "dir", event.Name, "err", err)
					}
				}
				continue
			}
			path := filepath.Clean(event.Name)
			if !gallery.IsImagePath(path) || seen[path] {
				continue
			}

			rec := gallery.NewRecord(path)
			if err := extractor.Describe(ctx, rec, focus); err != nil {
				slog.Error("Describe failed", "file", rec.FileName, "err", err)
				continue
			}
			seen[path] = true
			if format == "yaml" {
				fmt.Fprintln(out, "---")
			}
			if err := writeRecords(out, []describedFile{{Path: rec.Path, Metadata: rec.Metadata}}, format); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "err", err)
		}
	}
}

// watchableDirs returns dir and every non-hidden subdirectory under it.
func watchableDirs(dir string) ([]string, error) {
	var dirs []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != dir && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return dirs, nil
}
