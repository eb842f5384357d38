package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RetryConfig centralizes the timing and tolerance settings of an endpoint
// evaluation
type RetryConfig struct {
	// Lookup retry settings
	InternetRetries int           `yaml:"internet_retries"` // Retries after the first failed internet address lookup
	ServerRetries   int           `yaml:"server_retries"`   // Retries after the first failed endpoint address lookup
	SettleInterval  time.Duration `yaml:"settle_interval"`  // Wait after a switch and between lookup retries

	// Validation settings
	OctetTolerance int `yaml:"octet_tolerance"` // Largest accepted last-octet difference
}

// DefaultRetryConfig returns a RetryConfig with sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		InternetRetries: 15,
		ServerRetries:   1,
		SettleInterval:  time.Second,
		OctetTolerance:  5,
	}
}

// envParser is a helper for parsing environment variables with validation
type envParser struct {
	errors []string
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '30s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseInt parses an integer environment variable within [lo, hi]
func (p *envParser) parseInt(envName string, target *int, lo, hi int) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be a valid integer", envName))
		return
	}

	if intVal < lo || intVal > hi {
		p.errors = append(p.errors, fmt.Sprintf("%s must be between %d and %d", envName, lo, hi))
		return
	}

	*target = intVal
}

// parseBool parses a boolean environment variable ("true", "1", "false", "0", ...)
func (p *envParser) parseBool(envName string, target *bool) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: must be true or false", envName))
		return
	}

	*target = b
}

// parseString copies a non-empty environment variable into target
func (p *envParser) parseString(envName string, target *string) {
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// parseEnum parses an enum environment variable from a set of valid values.
// Matching ignores case; the canonical spelling from validValues is stored.
func (p *envParser) parseEnum(envName string, target *string, validValues []string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	for _, v := range validValues {
		if strings.EqualFold(val, v) {
			*target = v
			return
		}
	}

	p.errors = append(p.errors, fmt.Sprintf("%s must be one of: %s", envName, strings.Join(validValues, ", ")))
}

// err returns all collected problems as one error
func (p *envParser) err() error {
	if len(p.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(p.errors, "\n  - "))
	}
	return nil
}

// ApplyEnv overrides retry settings from environment variables and returns
// an error if any value is invalid
func (c *RetryConfig) ApplyEnv() error {
	parser := &envParser{}
	c.applyEnv(parser)
	return parser.err()
}

func (c *RetryConfig) applyEnv(parser *envParser) {
	parser.parseInt("RETRY_BUDGET", &c.InternetRetries, 0, 1000)
	parser.parseInt("SERVER_RETRIES", &c.ServerRetries, 0, 1000)
	parser.parseDuration("SETTLE_INTERVAL", &c.SettleInterval)
	parser.parseInt("OCTET_TOLERANCE", &c.OctetTolerance, 0, 255)
}

// Validate performs additional validation on the configuration
func (c *RetryConfig) Validate() error {
	var errors []string

	if c.InternetRetries < 0 {
		errors = append(errors, "InternetRetries must not be negative")
	}

	if c.ServerRetries < 0 {
		errors = append(errors, "ServerRetries must not be negative")
	}

	if c.SettleInterval <= 0 {
		errors = append(errors, "SettleInterval must be positive")
	}

	if c.OctetTolerance < 0 || c.OctetTolerance > 255 {
		errors = append(errors, "OctetTolerance must be between 0 and 255")
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
