// Package exif reads capture metadata from uploaded originals. Everything
// here is best effort: a missing exiftool binary or a stripped file degrades
// to empty fields, never to an error the gallery has to handle.
package exif

import (
	"log/slog"
	"strings"
	"time"

	exiftool "github.com/barasher/go-exiftool"
)

var exifDate = "2006:01:02 15:04:05"

// Info is the slice of capture metadata the gallery keeps per image.
type Info struct {
	Taken  time.Time
	Camera string
}

// Reader wraps a long-lived exiftool process. A reader whose construction
// failed still answers every Read, just with empty Info.
type Reader struct {
	et *exiftool.Exiftool
}

// NewReader starts an exiftool session if the binary is available.
func NewReader() *Reader {
	et, err := exiftool.NewExiftool()
	if err != nil {
		slog.Warn("Exiftool unavailable, capture metadata disabled", "error", err)
		return &Reader{}
	}
	return &Reader{et: et}
}

// Read extracts capture metadata from one file.
func (r *Reader) Read(path string) Info {
	info := Info{}
	if r == nil || r.et == nil {
		return info
	}

	fis := r.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return info
	}
	fi := fis[0]
	if fi.Err != nil {
		slog.Debug("Failed to extract capture metadata", "path", path, "error", fi.Err)
		return info
	}

	maker, _ := fi.GetString("Make")
	model, _ := fi.GetString("Model")
	switch {
	case model == "":
		info.Camera = maker
	case maker == "" || strings.HasPrefix(model, maker):
		info.Camera = model
	default:
		info.Camera = maker + " " + model
	}

	if ds, err := fi.GetString("DateTimeOriginal"); err == nil {
		taken, err := time.Parse(exifDate, ds)
		if err != nil {
			slog.Debug("Unparseable capture time", "path", path, "value", ds)
		} else {
			info.Taken = taken
		}
	}

	return info
}

// Close stops the exiftool session.
func (r *Reader) Close() {
	if r == nil || r.et == nil {
		return
	}
	if err := r.et.Close(); err != nil {
		slog.Warn("Failed to close exiftool", "error", err)
	}
}
