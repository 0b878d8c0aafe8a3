// Package config loads and validates application settings.
//
// All viper access happens here: Load returns an explicit Config value
// that is passed to the components that need it, so nothing deeper in
// the tree reaches for process-wide state.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultMaxImageBytes is the largest cover photo accepted by the
// vision extractor unless configured otherwise.
const DefaultMaxImageBytes = 5 * 1024 * 1024

// Config holds the validated runtime settings for a single command run.
type Config struct {
	// OpenAIAPIKey authenticates against the vision service. Required.
	OpenAIAPIKey string
	// OpenAIModel is the vision-capable model name.
	OpenAIModel string
	// OpenAIBaseURL is the chat completions API root.
	OpenAIBaseURL string

	// GoogleBooksAPIKey is optional; the volumes API works without it
	// at a lower quota.
	GoogleBooksAPIKey string
	// GoogleBooksBaseURL is the volumes API root.
	GoogleBooksBaseURL string

	// DBFile is the path to the SQLite database file.
	DBFile string

	// MaxImageBytes is the largest accepted cover photo payload.
	MaxImageBytes int64

	// RequestTimeout bounds each external API call.
	RequestTimeout time.Duration
}

// Error reports a missing or invalid configuration value. It is fatal
// at startup; commands never defer configuration problems to first use.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// SetDefaults registers the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.baseurl", "https://api.openai.com/v1")
	v.SetDefault("googlebooks.baseurl", "https://www.googleapis.com/books/v1")
	v.SetDefault("dbfile", "./books.db")
	v.SetDefault("maximagesize", DefaultMaxImageBytes)
	v.SetDefault("timeout", "30s")
}

// Load reads the settings from the given viper instance and validates
// them eagerly. A missing required credential is an error here, not at
// the first API call.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		OpenAIAPIKey:       v.GetString("openai.apikey"),
		OpenAIModel:        v.GetString("openai.model"),
		OpenAIBaseURL:      v.GetString("openai.baseurl"),
		GoogleBooksAPIKey:  v.GetString("googlebooks.apikey"),
		GoogleBooksBaseURL: v.GetString("googlebooks.baseurl"),
		DBFile:             v.GetString("dbfile"),
		MaxImageBytes:      v.GetInt64("maximagesize"),
		RequestTimeout:     v.GetDuration("timeout"),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, &Error{Key: "openai.apikey", Reason: "required (set OPENAI_API_KEY or openai.apikey in config.yaml)"}
	}
	if cfg.OpenAIModel == "" {
		return nil, &Error{Key: "openai.model", Reason: "must not be empty"}
	}
	if cfg.DBFile == "" {
		return nil, &Error{Key: "dbfile", Reason: "must not be empty"}
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, &Error{Key: "maximagesize", Reason: "must be positive"}
	}
	if cfg.RequestTimeout <= 0 {
		return nil, &Error{Key: "timeout", Reason: "must be a positive duration"}
	}

	return cfg, nil
}
