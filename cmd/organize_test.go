package cmd

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"simple", "Warm Tones", "warm-tones"},
		{"punctuation stripped", "City Life!", "city-life"},
		{"already clean", "mood", "mood"},
		{"accents stripped", "Café Scenes", "caf-scenes"},
		{"all symbols falls back", "!!!", "group"},
		{"empty falls back", "", "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.in); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestUniqueName(t *testing.T) {
	taken := make(map[string]int)

	if got := uniqueName("img.jpg", taken); got != "img.jpg" {
		t.Errorf("Expected img.jpg, got %s", got)
	}
	if got := uniqueName("img.jpg", taken); got != "img-2.jpg" {
		t.Errorf("Expected img-2.jpg, got %s", got)
	}
	if got := uniqueName("img.jpg", taken); got != "img-3.jpg" {
		t.Errorf("Expected img-3.jpg, got %s", got)
	}
	if got := uniqueName("other.png", taken); got != "other.png" {
		t.Errorf("Expected other.png, got %s", got)
	}
}

func TestUniqueNameWithoutExtension(t *testing.T) {
	taken := make(map[string]int)

	if got := uniqueName("warm-tones", taken); got != "warm-tones" {
		t.Errorf("Expected warm-tones, got %s", got)
	}
	if got := uniqueName("warm-tones", taken); got != "warm-tones-2" {
		t.Errorf("Expected warm-tones-2, got %s", got)
	}
}
