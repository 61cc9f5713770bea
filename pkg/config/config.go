package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Google OAuth (installed-app flow)
	CredentialsFile string
	TokenFile       string
	OAuthPort       string

	// Gmail
	MaxEmails       int
	SenderScanDepth int

	// Google Sheets tracker
	SpreadsheetID string

	// LLM provider
	LLMProvider  string
	OpenAIAPIKey string
	OpenAIModel  string
	RelayWorkDir string

	// Local caches
	DatabasePath string

	// Watch mode. Zero means a single pass.
	RunIntervalMinutes int

	// Chroma style index (optional)
	ChromaURL        string
	ChromaCollection string

	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	maxEmails := 20
	if v := os.Getenv("MAX_EMAILS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxEmails = parsed
		}
	}

	scanDepth := 200
	if v := os.Getenv("SENDER_SCAN_DEPTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			scanDepth = parsed
		}
	}

	runInterval := 0
	if v := os.Getenv("RUN_INTERVAL_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			runInterval = parsed
		}
	}

	return &Config{
		CredentialsFile:    getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:          getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		OAuthPort:          getEnv("OAUTH_PORT", "8089"),
		MaxEmails:          maxEmails,
		SenderScanDepth:    scanDepth,
		SpreadsheetID:      getEnv("SPREADSHEET_ID", ""),
		LLMProvider:        getEnv("LLM_PROVIDER", "auto"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RelayWorkDir:       getEnv("RELAY_WORK_DIR", "relay"),
		DatabasePath:       getEnv("DATABASE_PATH", "triage.db"),
		RunIntervalMinutes: runInterval,
		ChromaURL:          getEnv("CHROMA_URL", ""),
		ChromaCollection:   getEnv("CHROMA_COLLECTION", "sent-style"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
