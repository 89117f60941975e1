package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewRegistryLoadsEmbeddedCatalog(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"anthropic", "elevenlabs", "fake", "gemini"}, r.GetAllProviders())

	model, err := r.DefaultModel("gemini", "image")
	require.NoError(t, err)
	assert.Equal(t, "imagen-4.0-fast-generate-001", model)

	model, err = r.DefaultModel("gemini", "image_edit")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash-image-preview", model)

	caps, err := r.GetModelCapabilities("gemini", "gemini-2.5-flash-preview-tts")
	require.NoError(t, err)
	assert.Equal(t, "Algenib", caps.Voice)
	assert.True(t, caps.Supports("speech"))
}

func TestDefaultModelUnknown(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.DefaultModel("anthropic", "image")
	assert.Error(t, err)

	_, err = r.DefaultModel("openai", "code_and_text")
	assert.Error(t, err)
}

func TestProviderCapabilitiesKeepsYAMLOrder(t *testing.T) {
	src := `
provider: test
models:
  zeta:
    capabilities: [speech]
  alpha:
    capabilities: [image]
  mid:
    capabilities: [image]
`
	var p ProviderCapabilities
	require.NoError(t, yaml.Unmarshal([]byte(src), &p))

	ids := make([]string, 0, len(p.Models))
	for _, m := range p.Models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)
	assert.Equal(t, "test", p.Provider)
}
