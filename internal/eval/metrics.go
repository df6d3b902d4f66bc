package eval

import (
	"strings"

	"github.com/meridian-gallery/curator/internal/gallery"
)

// Comparison scores one generated metadata record against its reference.
type Comparison struct {
	// CategoryOverlap is the Jaccard index of the lowercased category sets.
	CategoryOverlap float64
	// ColorMatches counts reference colors the model reproduced exactly,
	// out of ColorTotal.
	ColorMatches  int
	ColorTotal    int
	PeopleCorrect bool
}

// Result is the outcome of evaluating one dataset record.
type Result struct {
	ID         string
	Generated  *gallery.ImageMetadata
	Comparison *Comparison
	Error      string
}

// Summary aggregates a whole evaluation run.
type Summary struct {
	TotalRecords        int
	SuccessfulEvals     int
	FailedEvals         int
	MeanCategoryOverlap float64
	ColorMatchRate      float64
	PeopleAccuracy      float64
}

// Compare scores generated metadata against the reference record. Category
// and color comparison is case-insensitive; descriptions are free text and
// are not scored.
func Compare(ref Record, got *gallery.ImageMetadata) Comparison {
	cmp := Comparison{
		CategoryOverlap: jaccard(ref.Categories, got.Categories),
		ColorTotal:      len(ref.DominantColors),
		PeopleCorrect:   ref.HasPeople == got.HasPeople,
	}

	generated := toSet(got.DominantColors)
	for _, color := range ref.DominantColors {
		if generated[normalize(color)] {
			cmp.ColorMatches++
		}
	}

	return cmp
}

// Summarize rolls individual results up into run-level rates.
func Summarize(results []Result) Summary {
	summary := Summary{TotalRecords: len(results)}

	var overlapSum float64
	var colorMatched, colorTotal, peopleCorrect int
	for _, r := range results {
		if r.Error != "" {
			summary.FailedEvals++
			continue
		}
		summary.SuccessfulEvals++
		overlapSum += r.Comparison.CategoryOverlap
		colorMatched += r.Comparison.ColorMatches
		colorTotal += r.Comparison.ColorTotal
		if r.Comparison.PeopleCorrect {
			peopleCorrect++
		}
	}

	if summary.SuccessfulEvals > 0 {
		summary.MeanCategoryOverlap = overlapSum / float64(summary.SuccessfulEvals)
		summary.PeopleAccuracy = float64(peopleCorrect) / float64(summary.SuccessfulEvals)
	}
	if colorTotal > 0 {
		summary.ColorMatchRate = float64(colorMatched) / float64(colorTotal)
	}

	return summary
}

// jaccard is |intersection| / |union| of the normalized sets. Two empty
// sets count as a perfect match.
func jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	union := make(map[string]bool, len(setA)+len(setB))
	intersection := 0
	for s := range setA {
		union[s] = true
		if setB[s] {
			intersection++
		}
	}
	for s := range setB {
		union[s] = true
	}

	if len(union) == 0 {
		return 1.0
	}
	return float64(intersection) / float64(len(union))
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if normalized := normalize(v); normalized != "" {
			set[normalized] = true
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
