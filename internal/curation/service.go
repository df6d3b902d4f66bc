package curation

import (
	"fmt"
	"os"

	"github.com/meridian-gallery/curator/internal/gemini"
	"github.com/meridian-gallery/curator/internal/ollama"
	"github.com/meridian-gallery/curator/internal/openai"
	"github.com/meridian-gallery/curator/internal/providers"
)

// ResolveProvider picks a model backend. An explicit name wins; otherwise
// prefer selects by locality, "local" for on-device Ollama and "cloud" (or
// empty) for Gemini. The returned string is the resolved provider name.
func ResolveProvider(name, prefer string) (providers.Provider, string, error) {
	if name == "" {
		switch prefer {
		case "local":
			name = "ollama"
		case "cloud", "":
			name = "gemini"
		default:
			return nil, "", fmt.Errorf("unsupported provider preference: %q", prefer)
		}
	}

	switch name {
	case "gemini":
		return gemini.New(), name, nil
	case "openai":
		return openai.New(), name, nil
	case "ollama":
		return ollama.New(), name, nil
	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model to use for a provider when the caller did
// not name one, honoring the provider's environment override.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			return "gemini-2.5-flash"
		}
		return model
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "mistral-small3.2:24b"
		}
		return model
	default:
		return ""
	}
}
