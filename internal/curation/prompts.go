package curation

import (
	"fmt"

	"github.com/meridian-gallery/curator/internal/gallery"
)

// describePrompt builds the per-image instruction text. The schema attached
// to the request enforces the field shapes; the prompt explains the intent.
func describePrompt(focusHint string) string {
	prompt := `You are an expert photo curator with years of experience organizing gallery collections. Your task is to analyze the attached image and produce structured metadata for it.

INSTRUCTIONS:
1. Describe what the image shows in one or two sentences. Be concrete about the subject, not the style.
2. Assign between 4 and 10 category keywords:
   - Lowercase, single words or short phrases
   - Most relevant first
   - Cover subject, setting, and notable objects
3. Identify exactly 3 dominant colors:
   - Lowercase #rrggbb hex codes
   - Most dominant first
4. State whether one or more people are visible in the image. Partial figures, silhouettes, and reflections count.
`
	if focusHint != "" {
		prompt += fmt.Sprintf("5. Pay particular attention to: %s.\n", focusHint)
	}
	prompt += `
OUTPUT FORMAT:
Respond with ONLY a JSON object in the following format:

{
  "description": "...",
  "categories": ["...", "..."],
  "dominant_colors": ["#rrggbb", "#rrggbb", "#rrggbb"],
  "has_people": false
}

Describe only what is clearly visible. Do not invent details the image does not show.`
	return prompt
}

// dimensionFocus phrases each sort dimension as a grouping criterion.
var dimensionFocus = map[gallery.SortDimension]string{
	gallery.SortByContent: "the subject matter they show",
	gallery.SortByColor:   "their dominant color palettes",
	gallery.SortByMood:    "the mood or feeling they convey",
	gallery.SortBySetting: "the kind of place or setting where they were taken",
	gallery.SortByPeople:  "whether and how people appear in them",
}

// groupPrompt builds the batched grouping instruction text. The records
// argument is the TOON-encoded metadata of every image in the batch.
func groupPrompt(dimension gallery.SortDimension, count int, records string) string {
	return fmt.Sprintf(`You are an expert photo curator arranging a gallery wall. Your task is to sort %d images into named groups based on %s.

The images are listed below in TOON format, one record per line, each with a stable id:

%s

INSTRUCTIONS:
1. Read every record and compare the images by %s. Ignore the other metadata fields except as supporting context.
2. Form between 2 and 6 groups. Each group needs a short, descriptive name a gallery visitor would understand.
3. Place every image in exactly one group. Do not leave any image out and do not place an image twice.
4. Copy each image's id into your response unchanged. Never invent, merge, or rewrite ids.
5. Within each group, order members from most to least representative of the group.

OUTPUT FORMAT:
Respond with ONLY a JSON array of groups in the following format:

[
  {
    "name": "...",
    "members": [
      {"id": "...", "description": "...", "categories": ["..."], "dominant_colors": ["..."], "has_people": false}
    ]
  }
]

Echo each member's metadata fields along with its id.`,
		count,
		dimensionFocus[dimension],
		records,
		dimensionFocus[dimension],
	)
}
