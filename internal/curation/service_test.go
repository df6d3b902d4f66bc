package curation

import (
	"testing"

	"github.com/meridian-gallery/curator/internal/providers"
)

func TestResolveProvider(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		prefer      string
		expectName  string
		expectLocal bool
		expectError bool
	}{
		{name: "explicit gemini", provider: "gemini", expectName: "gemini"},
		{name: "explicit openai", provider: "openai", expectName: "openai"},
		{name: "explicit ollama", provider: "ollama", expectName: "ollama", expectLocal: true},
		{name: "prefer local", prefer: "local", expectName: "ollama", expectLocal: true},
		{name: "prefer cloud", prefer: "cloud", expectName: "gemini"},
		{name: "no preference", expectName: "gemini"},
		{name: "explicit name wins", provider: "openai", prefer: "local", expectName: "openai"},
		{name: "unknown provider", provider: "anthropic", expectError: true},
		{name: "unknown preference", prefer: "orbit", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, name, err := ResolveProvider(tt.provider, tt.prefer)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected resolution to succeed, got %v", err)
			}
			if name != tt.expectName {
				t.Errorf("Expected provider %s, got %s", tt.expectName, name)
			}
			local := p.Locality() == providers.LocalityLocal
			if local != tt.expectLocal {
				t.Errorf("Expected local=%v, got locality %s", tt.expectLocal, p.Locality())
			}
		})
	}
}

func TestDefaultModel(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OLLAMA_MODEL", "")

	tests := []struct {
		provider string
		expected string
	}{
		{provider: "gemini", expected: "gemini-2.5-flash"},
		{provider: "openai", expected: "gpt-4o"},
		{provider: "ollama", expected: "mistral-small3.2:24b"},
		{provider: "unknown", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := DefaultModel(tt.provider); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDefaultModelEnvOverride(t *testing.T) {
	t.Setenv("OLLAMA_MODEL", "llava:13b")

	if got := DefaultModel("ollama"); got != "llava:13b" {
		t.Errorf("Expected env override llava:13b, got %s", got)
	}
}
