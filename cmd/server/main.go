package main

import (
	"log"
	"net/http"
	"os"

	"narrative-backend/internal/api"
	"narrative-backend/internal/config"
	"narrative-backend/internal/llm"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	// Staging and static directories are created up front
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}
	if err := os.MkdirAll(cfg.PublicDir, 0755); err != nil {
		log.Fatalf("Failed to create public directory: %v", err)
	}

	llmService := llm.NewService(llm.Config{
		APIURL: cfg.GroqAPIURL,
		APIKey: cfg.GroqAPIKey,
		Model:  cfg.GroqModel,
	})

	handler := api.NewHandler(cfg, llmService)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.RealIP)
	r.Use(api.Recoverer(cfg))
	r.Use(api.CORS(cfg))

	handler.RegisterRoutes(r)

	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	log.Printf("📊 Groq API Key: ✅ Configured")
	log.Printf("🌍 CORS mode: %s, origins: %v", cfg.CORSMode, cfg.AllowedOrigins())
	log.Printf("📁 Upload directory: %s", cfg.UploadDir)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
