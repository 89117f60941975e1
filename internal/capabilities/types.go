package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities is the catalog entry for one model.
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// Capabilities lists the generation operations this model can serve.
	Capabilities []string `yaml:"capabilities" json:"capabilities"`

	// StructuredOutput means the backend can be given a response schema.
	StructuredOutput bool `yaml:"structured_output" json:"structured_output"`

	ResponseModalities []string `yaml:"response_modalities" json:"response_modalities,omitempty"`
	Voice              string   `yaml:"voice" json:"voice,omitempty"`

	ContextWindow int `yaml:"context_window" json:"context_window,omitempty"`
	MaxOutput     int `yaml:"max_output" json:"max_output,omitempty"`
}

// Supports reports whether the model serves the named capability.
func (m ModelCapabilities) Supports(capability string) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider    string            `yaml:"provider" json:"provider"`
	DisplayName string            `yaml:"display_name" json:"display_name"`
	Defaults    map[string]string `yaml:"defaults" json:"defaults"`
	// Models keeps the order of the YAML file.
	Models []ModelCapabilities `yaml:"-" json:"models"`
}

// UnmarshalYAML decodes the provider file while preserving model order.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Provider    string                       `yaml:"provider"`
		DisplayName string                       `yaml:"display_name"`
		Defaults    map[string]string            `yaml:"defaults"`
		Models      map[string]ModelCapabilities `yaml:"models"`
	}
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	p.Provider = raw.Provider
	p.DisplayName = raw.DisplayName
	p.Defaults = raw.Defaults

	// node.Content alternates key, value at the mapping level
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := raw.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}
	return nil
}
