package generation

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"zaidev/internal/domain/models/generation"
)

// Response shapes of the JSON capabilities. They are sent to backends that
// support constrained decoding and are always checked on the way back.
var (
	decomposeSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "steps": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["steps"]
}`)

	suggestionsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "suggestions": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["suggestions"]
}`)

	codeAndTextSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "text": {"type": "string", "minLength": 1},
    "code": {"type": "string", "minLength": 1}
  },
  "required": ["text"]
}`)
)

// outputSchemas holds the compiled response schemas by capability.
type outputSchemas struct {
	byCapability map[generation.Capability]*jsonschema.Schema
	raw          map[generation.Capability]json.RawMessage
}

func compileOutputSchemas() (*outputSchemas, error) {
	raw := map[generation.Capability]json.RawMessage{
		generation.CapabilityDecompose:   decomposeSchema,
		generation.CapabilitySuggestions: suggestionsSchema,
		generation.CapabilityCodeAndText: codeAndTextSchema,
	}

	compiler := jsonschema.NewCompiler()
	s := &outputSchemas{
		byCapability: make(map[generation.Capability]*jsonschema.Schema, len(raw)),
		raw:          raw,
	}
	for capability, doc := range raw {
		schema, err := compiler.Compile([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", capability, err)
		}
		s.byCapability[capability] = schema
	}
	return s, nil
}

// Raw returns the schema document for a capability.
func (s *outputSchemas) Raw(capability generation.Capability) json.RawMessage {
	return s.raw[capability]
}

// Decode validates raw model output against the capability schema and
// decodes it into dest. Any mismatch is an error; nothing is coerced.
func (s *outputSchemas) Decode(capability generation.Capability, raw json.RawMessage, dest any) error {
	schema, ok := s.byCapability[capability]
	if !ok {
		return fmt.Errorf("no response schema for %s", capability)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("model returned invalid JSON: %w", err)
	}
	result := schema.Validate(doc)
	if !result.IsValid() {
		return fmt.Errorf("model output does not match schema: %s", result.Error())
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}
