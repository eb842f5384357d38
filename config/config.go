package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Internet address discovery methods.
const (
	DiscoveryOpenDNS = "opendns"
	DiscoverySTUN    = "stun"
	DiscoveryAuto    = "auto" // OpenDNS, falling back to STUN
)

// Log output formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

var (
	logLevels        = []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logFormats       = []string{LogFormatJSON, LogFormatText}
	discoveryMethods = []string{DiscoveryAuto, DiscoveryOpenDNS, DiscoverySTUN}
)

// Config holds the complete application configuration
type Config struct {
	// Path of the endpoint list, one hostname per line
	EndpointList string `yaml:"endpoint_list"`

	// External commands. Switch arguments may use the {endpoint}, {label}
	// and {number} placeholders.
	Commands struct {
		Switch  string        `yaml:"switch"`
		Sample  string        `yaml:"sample"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"commands"`

	// Internet address discovery settings
	Discovery struct {
		Method        string        `yaml:"method"`
		OpenDNSServer string        `yaml:"opendns_server"`
		STUNServer    string        `yaml:"stun_server"`
		Timeout       time.Duration `yaml:"timeout"`

		// OpenDNS is skipped for BreakerCooldown after BreakerThreshold
		// consecutive failures in auto mode. Zero disables the breaker.
		BreakerThreshold int           `yaml:"breaker_threshold"`
		BreakerCooldown  time.Duration `yaml:"breaker_cooldown"`
	} `yaml:"discovery"`

	// Output settings
	Output struct {
		Dir         string `yaml:"dir"`
		MetricsFile string `yaml:"metrics_file"`
	} `yaml:"output"`

	// Run history settings
	History struct {
		Enabled   bool          `yaml:"enabled"`
		DBPath    string        `yaml:"db_path"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"history"`

	// Logging settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Retry settings (embedded)
	Retry RetryConfig `yaml:"retry"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.EndpointList == "" {
		errors = append(errors, "Endpoint list path is required")
	}

	// Validate commands
	if _, err := c.SwitchCommand(); err != nil {
		errors = append(errors, fmt.Sprintf("Switch command: %v", err))
	}
	if _, err := c.SampleCommand(); err != nil {
		errors = append(errors, fmt.Sprintf("Sample command: %v", err))
	}
	if c.Commands.Timeout < 0 {
		errors = append(errors, "Command timeout must not be negative")
	}

	// Validate discovery settings
	if !slices.Contains(discoveryMethods, c.Discovery.Method) {
		errors = append(errors, fmt.Sprintf("Discovery method must be one of: %s", strings.Join(discoveryMethods, ", ")))
	}
	if c.Discovery.Timeout <= 0 {
		errors = append(errors, "Discovery timeout must be positive")
	}
	if c.Discovery.BreakerThreshold < 0 {
		errors = append(errors, "Discovery breaker threshold must not be negative")
	}
	if c.Discovery.BreakerThreshold > 0 && c.Discovery.BreakerCooldown <= 0 {
		errors = append(errors, "Discovery breaker cooldown must be positive")
	}

	// Validate history settings
	if c.History.Enabled && c.History.DBPath == "" {
		errors = append(errors, "History database path is required when history is enabled")
	}
	if c.History.Retention < 0 {
		errors = append(errors, "History retention must not be negative")
	}

	// Validate logging settings
	if !slices.Contains(logLevels, c.Log.Level) {
		errors = append(errors, fmt.Sprintf("Log level must be one of: %s", strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errors = append(errors, fmt.Sprintf("Log format must be one of: %s", strings.Join(logFormats, ", ")))
	}

	// Validate retry config
	if err := c.Retry.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("Retry config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// SwitchCommand splits the switch command line into program and arguments
func (c *Config) SwitchCommand() ([]string, error) {
	return splitCommand(c.Commands.Switch)
}

// SampleCommand splits the sample command line into program and arguments
func (c *Config) SampleCommand() ([]string, error) {
	return splitCommand(c.Commands.Sample)
}

func splitCommand(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command is required")
	}
	return argv, nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.EndpointList = "serverlist.txt"

	// Command defaults
	cfg.Commands.Switch = "nordvpn connect {label}"
	cfg.Commands.Sample = "speedtest -f tsv"
	cfg.Commands.Timeout = 0 // wait for the commands to exit

	// Discovery defaults
	cfg.Discovery.Method = DiscoveryAuto
	cfg.Discovery.OpenDNSServer = "208.67.222.222:53"
	cfg.Discovery.STUNServer = "stun.l.google.com:19302"
	cfg.Discovery.Timeout = 5 * time.Second
	cfg.Discovery.BreakerThreshold = 3
	cfg.Discovery.BreakerCooldown = 5 * time.Minute

	// Output defaults
	cfg.Output.Dir = "."
	cfg.Output.MetricsFile = "" // disabled

	// History defaults
	cfg.History.Enabled = true
	cfg.History.DBPath = "vpn-ranker.db"
	cfg.History.Retention = 90 * 24 * time.Hour

	// Logging defaults
	cfg.Log.Level = "INFO"
	cfg.Log.Format = LogFormatText

	// Retry defaults
	cfg.Retry = *DefaultRetryConfig()

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Log.Level = strings.ToUpper(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Discovery.Method = strings.ToLower(cfg.Discovery.Method)

	return cfg, nil
}

// Load loads configuration from a file (if provided), applies environment
// variable overrides and then the positional arguments. The only accepted
// positional argument is the endpoint list path.
func Load(args []string) (*Config, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one argument (endpoint list path), got %d", len(args))
	}

	// Get config file path from environment variable
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "vpn-ranker.yaml"
	}

	var cfg *Config

	// Try to load from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		// File doesn't exist, use defaults
		cfg = Default()
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if len(args) == 1 {
		cfg.EndpointList = args[0]
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	parser.parseString("ENDPOINT_LIST", &cfg.EndpointList)

	// Commands
	parser.parseString("SWITCH_COMMAND", &cfg.Commands.Switch)
	parser.parseString("SAMPLE_COMMAND", &cfg.Commands.Sample)
	parser.parseDuration("COMMAND_TIMEOUT", &cfg.Commands.Timeout)

	// Discovery
	parser.parseEnum("INTERNET_DISCOVERY", &cfg.Discovery.Method, discoveryMethods)
	parser.parseString("OPENDNS_SERVER", &cfg.Discovery.OpenDNSServer)
	parser.parseString("STUN_SERVER", &cfg.Discovery.STUNServer)
	parser.parseDuration("DISCOVERY_TIMEOUT", &cfg.Discovery.Timeout)
	parser.parseInt("DISCOVERY_BREAKER_THRESHOLD", &cfg.Discovery.BreakerThreshold, 0, 1000)
	parser.parseDuration("DISCOVERY_BREAKER_COOLDOWN", &cfg.Discovery.BreakerCooldown)

	// Output
	parser.parseString("OUTPUT_DIR", &cfg.Output.Dir)
	parser.parseString("METRICS_FILE", &cfg.Output.MetricsFile)

	// History
	parser.parseBool("HISTORY_ENABLED", &cfg.History.Enabled)
	parser.parseString("DB_PATH", &cfg.History.DBPath)
	parser.parseDuration("HISTORY_RETENTION", &cfg.History.Retention)

	// Logging
	parser.parseEnum("LOG_LEVEL", &cfg.Log.Level, logLevels)
	parser.parseEnum("LOG_FORMAT", &cfg.Log.Format, logFormats)

	// Retry settings
	cfg.Retry.applyEnv(parser)

	return parser.err()
}

// Print outputs the configuration to w
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "endpointList: %v\n", c.EndpointList)
	fmt.Fprintf(w, "switchCommand: %v\n", c.Commands.Switch)
	fmt.Fprintf(w, "sampleCommand: %v\n", c.Commands.Sample)
	fmt.Fprintf(w, "commandTimeout: %v\n", c.Commands.Timeout)
	fmt.Fprintf(w, "discoveryMethod: %v\n", c.Discovery.Method)
	fmt.Fprintf(w, "discoveryTimeout: %v\n", c.Discovery.Timeout)
	fmt.Fprintf(w, "discoveryBreaker: %v after %v failures\n", c.Discovery.BreakerCooldown, c.Discovery.BreakerThreshold)
	fmt.Fprintf(w, "outputDir: %v\n", c.Output.Dir)
	fmt.Fprintf(w, "metricsFile: %v\n", c.Output.MetricsFile)
	fmt.Fprintf(w, "historyEnabled: %v\n", c.History.Enabled)
	fmt.Fprintf(w, "historyDBPath: %v\n", c.History.DBPath)
	fmt.Fprintf(w, "historyRetention: %v\n", c.History.Retention)
	fmt.Fprintf(w, "logLevel: %v\n", c.Log.Level)
	fmt.Fprintf(w, "internetRetries: %v\n", c.Retry.InternetRetries)
	fmt.Fprintf(w, "serverRetries: %v\n", c.Retry.ServerRetries)
	fmt.Fprintf(w, "settleInterval: %v\n", c.Retry.SettleInterval)
	fmt.Fprintf(w, "octetTolerance: %v\n", c.Retry.OctetTolerance)
}
