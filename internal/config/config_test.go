package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresGroqAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("CORS_MODE", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, CORSModeStrict, cfg.CORSMode)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.Equal(t, "./public", cfg.PublicDir)
	assert.True(t, cfg.Development())
}

func TestLoadRejectsUnknownCORSMode(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("CORS_MODE", "wide-open")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS_MODE")
}

func TestAllowedOriginsIncludesFrontendURL(t *testing.T) {
	cfg := Config{FrontendURL: "https://app.example.com"}
	assert.Contains(t, cfg.AllowedOrigins(), "https://app.example.com")

	base := Config{}
	assert.NotContains(t, base.AllowedOrigins(), "")
	assert.Contains(t, base.AllowedOrigins(), "http://localhost:3000")
}
