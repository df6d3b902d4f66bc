// Package schema holds the structured-output contracts both pipeline stages
// attach to their model calls. The contracts are plain data; each provider
// renders them into its own wire shape.
package schema

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// Type enumerates the JSON value kinds a contract can constrain.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is a declarative output contract for one model call.
type Schema struct {
	// Name labels the contract for providers that want a named schema.
	Name        string
	Type        Type
	Description string
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
	MinItems    int
	MaxItems    int
}

// ImageMetadata is the per-image contract: the four fields the extractor
// requires, all of them mandatory.
func ImageMetadata() *Schema {
	return &Schema{
		Name: "image_metadata",
		Type: TypeObject,
		Properties: map[string]*Schema{
			"description": {
				Type:        TypeString,
				Description: "One or two sentences describing what the image shows",
			},
			"categories": {
				Type:        TypeArray,
				Description: "Lowercase keyword tags for the image, most relevant first",
				Items:       &Schema{Type: TypeString},
				MinItems:    4,
				MaxItems:    10,
			},
			"dominant_colors": {
				Type:        TypeArray,
				Description: "The image's dominant colors as lowercase #rrggbb hex codes, most dominant first",
				Items:       &Schema{Type: TypeString},
				MinItems:    3,
				MaxItems:    3,
			},
			"has_people": {
				Type:        TypeBoolean,
				Description: "Whether one or more people are visible in the image",
			},
		},
		Required: []string{"description", "categories", "dominant_colors", "has_people"},
	}
}

// Grouping is the sorter contract: an array of named groups whose members
// are metadata objects extended with the echoed record id.
func Grouping() *Schema {
	member := ImageMetadata()
	member.Name = ""
	member.Properties["id"] = &Schema{
		Type:        TypeString,
		Description: "The image's id, echoed unchanged from the request",
	}
	member.Required = append([]string{"id"}, member.Required...)

	return &Schema{
		Name:        "image_groups",
		Type:        TypeArray,
		Description: "Named groups partitioning the provided images",
		Items: &Schema{
			Type: TypeObject,
			Properties: map[string]*Schema{
				"name": {
					Type:        TypeString,
					Description: "A short human-readable group name",
				},
				"members": {
					Type:     TypeArray,
					Items:    member,
					MinItems: 1,
				},
			},
			Required: []string{"name", "members"},
		},
	}
}

// JSONMap renders the contract as a JSON Schema map, item-count bounds
// included. This is the shape Ollama's format field takes.
func (s *Schema) JSONMap() map[string]any {
	m := s.base()
	if s.Items != nil {
		m["items"] = s.Items.JSONMap()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONMap()
		}
		m["properties"] = props
	}
	if s.MinItems > 0 {
		m["minItems"] = s.MinItems
	}
	if s.MaxItems > 0 {
		m["maxItems"] = s.MaxItems
	}
	return m
}

// StrictJSONMap renders the contract for OpenAI's strict structured-output
// mode, which rejects minItems/maxItems and open objects: bounds move into
// the description and objects declare additionalProperties false.
func (s *Schema) StrictJSONMap() map[string]any {
	m := s.base()
	m["description"] = s.describeWithBounds()
	if m["description"] == "" {
		delete(m, "description")
	}
	if s.Items != nil {
		m["items"] = s.Items.StrictJSONMap()
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.StrictJSONMap()
		}
		m["properties"] = props
		m["additionalProperties"] = false
	}
	return m
}

func (s *Schema) base() map[string]any {
	m := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

// Gemini renders the contract for generative-ai-go, whose schema type has no
// item-count fields; bounds move into the description there too.
func (s *Schema) Gemini() *genai.Schema {
	g := &genai.Schema{
		Type:        geminiType(s.Type),
		Description: s.describeWithBounds(),
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		g.Items = s.Items.Gemini()
	}
	if len(s.Properties) > 0 {
		g.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			g.Properties[name] = p.Gemini()
		}
	}
	return g
}

func geminiType(t Type) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

func (s *Schema) describeWithBounds() string {
	bounds := ""
	switch {
	case s.MinItems > 0 && s.MinItems == s.MaxItems:
		bounds = fmt.Sprintf("exactly %d items", s.MinItems)
	case s.MinItems > 0 && s.MaxItems > 0:
		bounds = fmt.Sprintf("between %d and %d items", s.MinItems, s.MaxItems)
	case s.MinItems > 0:
		bounds = fmt.Sprintf("at least %d items", s.MinItems)
	case s.MaxItems > 0:
		bounds = fmt.Sprintf("at most %d items", s.MaxItems)
	default:
		return s.Description
	}
	if s.Description == "" {
		return "Contains " + bounds
	}
	return s.Description + " (" + bounds + ")"
}
