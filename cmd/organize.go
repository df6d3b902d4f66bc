package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/meridian-gallery/curator/internal/curation"
	"github.com/meridian-gallery/curator/internal/gallery"
	"github.com/otiai10/copy"
	"github.com/spf13/cobra"
)

func newOrganizeCmd() *cobra.Command {
	var (
		by           string
		out          string
		focus        string
		providerName string
		model        string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "organize [dir]",
		Short: "Sort a directory of images into named group folders",
		Long: `Describes every image in a directory, asks the model to sort them into
named groups along the chosen dimension, and copies each image into
<out>/<group>/. Originals are never moved or modified.`,
		Example: `  # Group a photo dump by subject matter
  curator organize ~/photos --out ~/photos-sorted

  # Group by color palette, but only print the plan
  curator organize ./shoot --by color --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			extractor, _, err := newExtractor(providerName, model, 0)
			if err != nil {
				return err
			}

			records, err := gallery.ScanDir(dir)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no images found in %s", dir)
			}

			results := extractor.DescribeAll(cmd.Context(), records, focus)
			described := make([]*gallery.ImageRecord, 0, len(results))
			for _, res := range results {
				if res.Err != nil {
					slog.Error("Describe failed", "file", res.Record.FileName, "err", res.Err)
					continue
				}
				described = append(described, res.Record)
			}
			if len(described) == 0 {
				return fmt.Errorf("none of the %d images could be described", len(records))
			}

			sorter := &curation.Sorter{
				Provider:    extractor.Provider,
				Model:       extractor.Model,
				Temperature: extractor.Temperature,
			}
			groups, err := sorter.Sort(cmd.Context(), gallery.SortRequest{
				Dimension: gallery.SortDimension(by),
				Records:   described,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Sorted %d images by %s:\n\n", len(described), by)

			copied := 0
			dirNames := make(map[string]int)
			for _, group := range groups {
				dest := filepath.Join(out, uniqueName(slugify(group.Name), dirNames))
				fmt.Printf("%s (%d images)\n", group.Name, len(group.Members))

				fileNames := make(map[string]int)
				for _, member := range group.Members {
					target := filepath.Join(dest, uniqueName(member.FileName, fileNames))
					fmt.Printf("  %s -> %s\n", member.Path, target)
					if dryRun {
						copied++
						continue
					}
					if err := copy.Copy(member.Path, target); err != nil {
						return fmt.Errorf("copy: %w", err)
					}
					copied++
				}
			}

			if dryRun {
				fmt.Printf("\nDry run: %d images would be copied into %d groups under %s\n", copied, len(groups), out)
			} else {
				fmt.Printf("\nCopied %d images into %d groups under %s\n", copied, len(groups), out)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "content", "Dimension to sort by: content, color, mood, setting or people")
	cmd.Flags().StringVarP(&out, "out", "o", "organized", "Directory to copy grouped images into")
	cmd.Flags().StringVar(&focus, "focus", "", "Aspect the model should pay extra attention to")
	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to use: gemini, openai or ollama")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to use")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without copying anything")

	return cmd
}

// slugify turns a group name into a filesystem-friendly directory name.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	// Remove non-alphanumeric except hyphens
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "group"
	}
	return result.String()
}

// uniqueName disambiguates a name that already appeared in taken, so two
// groups slugging identically or two files sharing a base name never
// overwrite each other.
func uniqueName(name string, taken map[string]int) string {
	n := taken[name]
	taken[name]++
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
}
