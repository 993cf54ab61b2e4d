// Package config loads the relay service configuration from the process
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultListenAddr = ":8080"
	DefaultSMTPPort   = 587
	DefaultFromName   = "Zofin Finance"
)

// Config is the full runtime configuration of the relay service.
type Config struct {
	// ListenAddr is the HTTP bind address, e.g. ":8080".
	ListenAddr string
	// StorePath is the SQLite session store location. Empty selects the
	// in-memory store.
	StorePath string
	// AllowedOrigin is the value served on Access-Control-Allow-Origin.
	// Empty means "*".
	AllowedOrigin string

	SMTP SMTP
}

// SMTP holds the outbound mail settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the envelope sender address.
	From string
	// FromName is the display name on outbound mail.
	FromName string
	// Operator receives the application summary mail.
	Operator string
}

// Load reads the configuration from the environment. When path is non-empty
// the file is loaded first without overriding variables already set; a
// missing file is not an error.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	cfg := Config{
		ListenAddr:    getenv("LOANFLOW_LISTEN_ADDR", DefaultListenAddr),
		StorePath:     os.Getenv("LOANFLOW_STORE_PATH"),
		AllowedOrigin: os.Getenv("LOANFLOW_ALLOWED_ORIGIN"),
		SMTP: SMTP{
			Host:     os.Getenv("LOANFLOW_SMTP_HOST"),
			Port:     DefaultSMTPPort,
			Username: os.Getenv("LOANFLOW_SMTP_USER"),
			Password: os.Getenv("LOANFLOW_SMTP_PASS"),
			From:     os.Getenv("LOANFLOW_SMTP_FROM"),
			FromName: getenv("LOANFLOW_SMTP_FROM_NAME", DefaultFromName),
			Operator: os.Getenv("LOANFLOW_OPERATOR_ADDR"),
		},
	}

	if raw := os.Getenv("LOANFLOW_SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid LOANFLOW_SMTP_PORT %q", raw)
		}
		cfg.SMTP.Port = port
	}
	return cfg, nil
}

// ValidateSMTP reports whether the configuration is complete enough to send
// mail. Load does not call it so that the server can still boot in a
// dry-run setup.
func (c Config) ValidateSMTP() error {
	switch {
	case c.SMTP.Host == "":
		return errors.New("config: LOANFLOW_SMTP_HOST is required")
	case c.SMTP.From == "":
		return errors.New("config: LOANFLOW_SMTP_FROM is required")
	case c.SMTP.Operator == "":
		return errors.New("config: LOANFLOW_OPERATOR_ADDR is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
