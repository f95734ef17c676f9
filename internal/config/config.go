package config

import (
	"path/filepath"

	env "github.com/Netflix/go-env"
)

// Config carries everything the service reads from the environment. Call
// godotenv.Load before Load so a local .env file is honored.
type Config struct {
	Port        string `env:"PORT,default=8080"`
	Environment string `env:"ENVIRONMENT,default=local"`

	// Storage roots. Audio and data directories live under UploadDir.
	UploadDir string `env:"UPLOAD_DIR,default=artisan-upload/uploads"`

	// Remote generative-text API (social posts).
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL,default=gemini-1.5-flash-latest"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL,default=https://generativelanguage.googleapis.com/v1beta"`

	// Capability endpoints.
	TranscribeURL string `env:"TRANSCRIBE_URL"`
	TextGenURL    string `env:"TEXTGEN_URL"`

	HTTPTimeoutSec int `env:"HTTP_TIMEOUT_SEC,default=60"`

	Extras env.EnvSet
}

func Load() (Config, error) {
	var c Config
	es, err := env.UnmarshalFromEnviron(&c)
	if err != nil {
		return Config{}, err
	}
	c.Extras = es
	return c, nil
}

func (c Config) AudioDir() string {
	return filepath.Join(c.UploadDir, "audio")
}

func (c Config) DataDir() string {
	return filepath.Join(c.UploadDir, "data")
}
