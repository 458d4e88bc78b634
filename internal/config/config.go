package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// Config is the full engine configuration
type Config struct {
	Environment string `yaml:"environment" json:"environment"`

	Risk            RiskParameters       `yaml:"risk" json:"risk"`
	RiskWeights     RiskWeights          `yaml:"risk_weights" json:"risk_weights"`
	Geopolitical    GeopoliticalWeights  `yaml:"geopolitical_weights" json:"geopolitical_weights"`
	Diversification DiversificationRules `yaml:"diversification" json:"diversification"`
	Penalties       ScoringPenalties     `yaml:"penalties" json:"penalties"`
	Compliance      ComplianceRules      `yaml:"compliance" json:"compliance"`
	Rebalance       RebalanceRules       `yaml:"rebalance" json:"rebalance"`
	Reference       ReferenceOverrides   `yaml:"reference" json:"reference"`
	Logging         LoggingConfig        `yaml:"logging" json:"logging"`
	EventLog        EventLogConfig       `yaml:"event_log" json:"event_log"`
}

// LoggingConfig controls the engine logger
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // console or json
	Dir    string `yaml:"dir" json:"dir"`       // empty logs to stderr
}

// EventLogConfig bounds the geopolitical event log
type EventLogConfig struct {
	Capacity int `yaml:"capacity" json:"capacity"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment:     "development",
		Risk:            DefaultRiskParameters(),
		RiskWeights:     DefaultRiskWeights(),
		Geopolitical:    DefaultGeopoliticalWeights(),
		Diversification: DefaultDiversificationRules(),
		Penalties:       DefaultScoringPenalties(),
		Compliance:      DefaultComplianceRules(),
		Rebalance:       DefaultRebalanceRules(),
		Logging:         LoggingConfig{Level: "info", Format: "console"},
		EventLog:        EventLogConfig{Capacity: 256},
	}
}

// LoadFile reads a YAML file layered over the defaults and validates the result
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML layered over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCategoryConfiguration, "config", "parse")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides selected fields from MOEX_* environment variables
func (c *Config) ApplyEnv() {
	c.Environment = getEnv("MOEX_ENV", c.Environment)
	c.Logging.Level = getEnv("MOEX_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("MOEX_LOG_FORMAT", c.Logging.Format)
	c.Logging.Dir = getEnv("MOEX_LOG_DIR", c.Logging.Dir)

	c.Risk.MaxPositionPercent = getEnvFloat("MOEX_MAX_POSITION_PERCENT", c.Risk.MaxPositionPercent)
	c.Risk.MaxSectorPercent = getEnvFloat("MOEX_MAX_SECTOR_PERCENT", c.Risk.MaxSectorPercent)
	c.Risk.StopLossPercent = getEnvFloat("MOEX_STOP_LOSS_PERCENT", c.Risk.StopLossPercent)
	c.Risk.MinCashReservePercent = getEnvFloat("MOEX_MIN_CASH_RESERVE_PERCENT", c.Risk.MinCashReservePercent)
	c.Risk.CorrelationThreshold = getEnvFloat("MOEX_CORRELATION_THRESHOLD", c.Risk.CorrelationThreshold)

	c.Diversification.MinPositions = getEnvInt("MOEX_MIN_POSITIONS", c.Diversification.MinPositions)
	c.Diversification.MinSectors = getEnvInt("MOEX_MIN_SECTORS", c.Diversification.MinSectors)

	c.EventLog.Capacity = getEnvInt("MOEX_EVENT_LOG_CAPACITY", c.EventLog.Capacity)
}

// ReferenceData builds the symbol tables with configured overrides
func (c *Config) ReferenceData() *ReferenceData {
	return NewReferenceData(c.Reference)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
