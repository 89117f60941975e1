package gemini

import (
	"encoding/json"
	"fmt"
	"sort"

	"google.golang.org/genai"
)

// jsonSchema is the subset of JSON Schema used for response shapes.
type jsonSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]*jsonSchema `json:"properties"`
	Required   []string               `json:"required"`
	Items      *jsonSchema            `json:"items"`
	MaxItems   *int64                 `json:"maxItems"`
	MinItems   *int64                 `json:"minItems"`
	MinLength  *int64                 `json:"minLength"`
	Enum       []string               `json:"enum"`
}

// SchemaFromJSON converts a JSON Schema document into a genai response
// schema.
func SchemaFromJSON(doc json.RawMessage) (*genai.Schema, error) {
	var s jsonSchema
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("parse response schema: %w", err)
	}
	return convert(&s)
}

func convert(s *jsonSchema) (*genai.Schema, error) {
	out := &genai.Schema{
		Required:  s.Required,
		MaxItems:  s.MaxItems,
		MinItems:  s.MinItems,
		MinLength: s.MinLength,
		Enum:      s.Enum,
	}

	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			names := make([]string, 0, len(s.Properties))
			for name, prop := range s.Properties {
				child, err := convert(prop)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				out.Properties[name] = child
				names = append(names, name)
			}
			// deterministic property order keeps replies stable
			sort.Strings(names)
			out.PropertyOrdering = names
		}
	case "array":
		out.Type = genai.TypeArray
		if s.Items == nil {
			return nil, fmt.Errorf("array schema without items")
		}
		items, err := convert(s.Items)
		if err != nil {
			return nil, err
		}
		out.Items = items
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", s.Type)
	}
	return out, nil
}
