package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Record is one labeled image in an evaluation dataset. The reference
// fields mirror the metadata contract the extractor is scored against.
type Record struct {
	ID             string   `json:"id" parquet:"id"`
	ImagePath      string   `json:"image_path" parquet:"image_path"`
	Description    string   `json:"description" parquet:"description"`
	Categories     []string `json:"categories" parquet:"categories,list"`
	DominantColors []string `json:"dominant_colors" parquet:"dominant_colors,list"`
	HasPeople      bool     `json:"has_people" parquet:"has_people"`
}

// Load reads every record from a Parquet or JSONL dataset file. Relative
// image paths are resolved against the dataset file's directory.
func Load(path string) ([]Record, error) {
	return load(path, 0)
}

// LoadSample reads at most limit records.
func LoadSample(path string, limit int) ([]Record, error) {
	return load(path, limit)
}

func load(path string, limit int) ([]Record, error) {
	var records []Record
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		records, err = loadParquet(path, limit)
	case ".jsonl", ".json":
		records, err = loadJSONL(path, limit)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range records {
		if records[i].ImagePath != "" && !filepath.IsAbs(records[i].ImagePath) {
			records[i].ImagePath = filepath.Join(base, records[i].ImagePath)
		}
	}

	return records, nil
}

func loadJSONL(path string, limit int) ([]Record, error) {
	slog.Debug("Opening JSONL dataset", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(records) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL dataset", "total_records", len(records))

	return records, nil
}

func loadParquet(path string, limit int) ([]Record, error) {
	slog.Debug("Opening Parquet dataset", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet dataset opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128) // Read in batches

	for limit <= 0 || len(records) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit > 0 && len(records)+n > limit {
				n = limit - len(records)
			}
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet dataset", "total_records", len(records))

	return records, nil
}
