package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meridian-gallery/curator/internal/providers"
	"github.com/ollama/ollama/api"
)

// Ollama is a provider for a locally running Ollama server
type Ollama struct{}

// New returns a new Ollama provider
func New() *Ollama {
	return &Ollama{}
}

// Locality reports that Ollama runs on the local machine
func (o *Ollama) Locality() providers.Locality {
	return providers.LocalityLocal
}

// GenerateStructured runs one structured-output call against Ollama.
// The server address comes from OLLAMA_HOST, defaulting to localhost:11434.
func (o *Ollama) GenerateStructured(ctx context.Context, req providers.Request) (string, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return "", fmt.Errorf("failed to create ollama client: %w", err)
	}

	stream := false
	genReq := &api.GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if len(req.Image) > 0 {
		genReq.Images = []api.ImageData{req.Image}
	}
	if req.Schema != nil {
		format, err := json.Marshal(req.Schema.JSONMap())
		if err != nil {
			return "", fmt.Errorf("failed to marshal response format: %w", err)
		}
		genReq.Format = format
	}

	var sb strings.Builder
	err = client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return sb.String(), nil
}
