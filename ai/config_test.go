package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://localhost:9100"),
		WithModel("text-embedding-3-small"),
		WithAPIKey("sk-test"),
		WithDimension(1536),
	)

	assert.Equal(t, "http://localhost:9100", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 1536, cfg.Dimension)
}

func TestConfigNormalizeAddsV1Suffix(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already suffixed", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty host untouched", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.Host)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	missing := &Config{Model: "m", Dimension: 768}
	assert.Error(t, missing.Validate())

	noModel := &Config{Host: "http://localhost:11434", Dimension: 768}
	assert.Error(t, noModel.Validate())

	badDim := &Config{Host: "http://localhost:11434", Model: "m"}
	assert.Error(t, badDim.Validate())
}
