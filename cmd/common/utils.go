package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/moex-risk-engine/internal/config"
	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
)

// LoadEnvFile loads KEY=VALUE pairs into the environment without overriding variables already set.
// A missing file is skipped; it reports whether the file was loaded.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("could not load environment file %s: %w", path, err)
	}
	return true, nil
}

// LoadConfig reads path over the defaults (an empty path means defaults only),
// applies MOEX_* overrides and validates the result
func LoadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the logger described by cfg: a daily file under cfg.Dir, or w otherwise
func NewLogger(cfg config.LoggingConfig, w io.Writer, name string) (*logger.Logger, error) {
	if cfg.Dir != "" {
		return logger.NewFileLogger(cfg.Dir, name, cfg.Level)
	}
	format := logger.FormatConsole
	if strings.EqualFold(cfg.Format, string(logger.FormatJSON)) {
		format = logger.FormatJSON
	}
	return logger.New(w, cfg.Level, format)
}

// timeLayouts are tried in order by ParseTime
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC3339 or a zone-less date and time interpreted in loc
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or \"2006-01-02 15:04\"", value)
}
