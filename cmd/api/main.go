package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"artisan-voice-go/internal/audio"
	"artisan-voice-go/internal/config"
	"artisan-voice-go/internal/content"
	"artisan-voice-go/internal/genai"
	"artisan-voice-go/internal/logger"
	"artisan-voice-go/internal/pipeline"
	"artisan-voice-go/internal/post"
	"artisan-voice-go/internal/server"
	"artisan-voice-go/internal/store"
	"artisan-voice-go/internal/textgen"
	"artisan-voice-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "artisan-voice-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	httpTimeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second

	fs := afero.NewOsFs()

	records, err := store.New(fs, cfg.DataDir())
	if err != nil {
		log.WithError(err).Fatal("failed to open record store")
	}

	transcriber, err := transcription.NewHTTPTranscriber(fs, cfg.TranscribeURL, httpTimeout)
	if err != nil {
		log.WithError(err).Fatal("failed to configure transcriber")
	}

	textClient, err := textgen.NewClient(cfg.TextGenURL, httpTimeout)
	if err != nil {
		log.WithError(err).Fatal("failed to configure text generation client")
	}

	pre := audio.NewPreprocessor(fs, audio.DefaultGate())
	engine := content.NewEngine(textClient, textClient)

	pl, err := pipeline.New(fs, cfg.AudioDir(), pre, transcriber, engine, records)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}

	gemini := genai.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, httpTimeout)
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; post generation will return configuration errors")
	}
	posts := post.NewGenerator(gemini)

	router := server.New(pl, posts, records).Router()

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
