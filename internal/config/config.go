package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// CORS policy modes. Strict matches the allow-list plus trusted-domain
// substrings and rejects everything else with 403; permissive applies
// the static allow-list only.
const (
	CORSModeStrict     = "strict"
	CORSModePermissive = "permissive"
)

type Config struct {
	Port        string
	GroqAPIKey  string
	GroqAPIURL  string
	GroqModel   string
	FrontendURL string
	CORSMode    string
	UploadDir   string
	PublicDir   string
	Env         string
}

// Load reads configuration from the environment, honoring a local
// .env file when present. A missing GROQ_API_KEY is a fatal error:
// the server refuses to start without upstream credentials.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getenv("PORT", "3000"),
		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqAPIURL:  os.Getenv("GROQ_API_URL"),
		GroqModel:   os.Getenv("GROQ_MODEL"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
		CORSMode:    getenv("CORS_MODE", CORSModeStrict),
		UploadDir:   getenv("UPLOAD_DIR", "./uploads"),
		PublicDir:   getenv("PUBLIC_DIR", "./public"),
		Env:         getenv("APP_ENV", "development"),
	}

	if cfg.GroqAPIKey == "" {
		return Config{}, fmt.Errorf("GROQ_API_KEY not found in environment variables")
	}
	if cfg.CORSMode != CORSModeStrict && cfg.CORSMode != CORSModePermissive {
		return Config{}, fmt.Errorf("CORS_MODE must be %q or %q, got %q", CORSModeStrict, CORSModePermissive, cfg.CORSMode)
	}

	return cfg, nil
}

// Development reports whether internal error details may be echoed to
// clients.
func (c Config) Development() bool {
	return c.Env == "development"
}

// AllowedOrigins returns the CORS allow-list, including FRONTEND_URL
// when configured.
func (c Config) AllowedOrigins() []string {
	origins := []string{
		"https://frontend-chatbot-flutterflow.vercel.app",
		"https://frontend-chatbot-flutterflow-git-main.vercel.app",
		"http://localhost:3000",
		"http://localhost:5500",
		"http://127.0.0.1:5500",
	}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}
