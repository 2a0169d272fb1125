// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for a sync run.
type Config struct {
	AirtableToken    string
	AirtableBaseID   string
	AirtableAPIURL   string
	MeetingsTable    string
	MotionsTable     string
	VotesTable       string
	CouncillorsTable string

	EscribeBaseURL string
	CivicTimezone  string
	InsecureTLS    bool

	FetchAttempts int
	WriteAttempts int
	TimeoutMs     int

	LocalDBPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AirtableToken:    getEnv("AIRTABLE_TOKEN", ""),
		AirtableBaseID:   getEnv("AIRTABLE_BASE_ID", ""),
		AirtableAPIURL:   getEnv("AIRTABLE_API_URL", "https://api.airtable.com/v0"),
		MeetingsTable:    getEnv("AIRTABLE_MEETINGS_TABLE", "Meetings"),
		MotionsTable:     getEnv("AIRTABLE_MOTIONS_TABLE", "Motions"),
		VotesTable:       getEnv("AIRTABLE_VOTES_TABLE", "Votes"),
		CouncillorsTable: getEnv("AIRTABLE_COUNCILLORS_TABLE", "Councillors"),

		EscribeBaseURL: getEnv("ESCRIBE_BASE_URL", "https://pub-ottawa.escribemeetings.com/"),
		CivicTimezone:  getEnv("CIVIC_TIMEZONE", "America/Toronto"),
		InsecureTLS:    getEnvBool("ESCRIBE_INSECURE_TLS", false),

		FetchAttempts: getEnvInt("FETCH_ATTEMPTS", 3),
		WriteAttempts: getEnvInt("WRITE_ATTEMPTS", 3),
		TimeoutMs:     getEnvInt("HTTP_TIMEOUT_MS", 30000),

		LocalDBPath: getEnv("LOCAL_DB_PATH", "data/council-votes.db"),
	}

	if !strings.HasSuffix(cfg.EscribeBaseURL, "/") {
		cfg.EscribeBaseURL += "/"
	}

	return cfg, nil
}

// ValidateForUpload checks that the credentials a writing run needs are
// present. Dry runs and local-backend runs skip this.
func (c Config) ValidateForUpload() error {
	if strings.TrimSpace(c.AirtableToken) == "" {
		return fmt.Errorf("missing required env var: AIRTABLE_TOKEN")
	}
	if strings.TrimSpace(c.AirtableBaseID) == "" {
		return fmt.Errorf("missing required env var: AIRTABLE_BASE_ID")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
