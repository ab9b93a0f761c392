package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EndpointEnvKey names the variable holding the intake endpoint. The name is
// shared with the site's frontend build so a single .env serves both.
const EndpointEnvKey = "VITE_GOOGLE_APPS_SCRIPT_URL"

type Config struct {
	Port                        string
	SubmissionEndpoint          string
	SubmitTimeout               time.Duration
	DraftTTL                    time.Duration
	JWTSecretKey                string
	TurnstileSecretKey          string
	NATSUrl                     string
	ApplicationSubmittedSubject string
	SiteCode                    string
	LogLevel                    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	return &Config{
		Port:                        getEnv("PORT", "8081"),
		SubmissionEndpoint:          getEnv(EndpointEnvKey, ""),
		SubmitTimeout:               getDuration("SUBMIT_TIMEOUT", 0),
		DraftTTL:                    getDuration("DRAFT_TTL", 2*time.Hour),
		JWTSecretKey:                getEnv("JWT_SECRET_KEY", ""),
		TurnstileSecretKey:          getEnv("TURNSTILE_SECRET_KEY", ""),
		NATSUrl:                     getEnv("NATS_URL", ""),
		ApplicationSubmittedSubject: getEnv("APPLICATION_SUBMITTED_SUBJECT", "application.submitted"),
		SiteCode:                    getEnv("SITE_CODE", "hdr"),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("Invalid %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
