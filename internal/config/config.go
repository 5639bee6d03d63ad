package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by FAUNAGUESS_ENV (or .env by default).
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("FAUNAGUESS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL returns the Postgres connection string. When empty, the server
// falls back to file persistence.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// DataFile returns the JSON knowledge file path.
func DataFile() string {
	p := os.Getenv("DATA_FILE")
	if p == "" {
		return "animal_data.json"
	}
	return p
}

// SeedFile returns an optional YAML seed file path; empty means the built-in
// starter set is used when the store is empty on first run.
func SeedFile() string {
	return os.Getenv("SEED_FILE")
}

// ConfidenceThreshold returns the confidence at which the tracker recommends
// guessing. Defaults to 0.85.
func ConfidenceThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("CONFIDENCE_THRESHOLD"), 64)
	if err != nil || v <= 0 || v > 1 {
		return 0.85
	}
	return v
}

// MinRelevantConfidence returns the floor above which the previous top
// candidate counts as a relevant neighbor for the distinguishing-question
// flow. Defaults to 0.3.
func MinRelevantConfidence() float64 {
	v, err := strconv.ParseFloat(os.Getenv("MIN_RELEVANT_CONFIDENCE"), 64)
	if err != nil || v < 0 || v > 1 {
		return 0.3
	}
	return v
}

// MaxQuestions returns the per-session question limit. Defaults to 10.
func MaxQuestions() int {
	v, err := strconv.Atoi(os.Getenv("MAX_QUESTIONS"))
	if err != nil || v <= 0 {
		return 10
	}
	return v
}

// ExtractorProvider returns the configured feature extractor.
// Defaults to "keyword" if not set. Valid values: keyword, mock.
func ExtractorProvider() string {
	p := os.Getenv("EXTRACTOR_PROVIDER")
	if p == "" {
		return "keyword"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
