package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolateEnv points CONFIG_FILE at a missing file and clears every override.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	for _, name := range []string{
		"ENDPOINT_LIST", "SWITCH_COMMAND", "SAMPLE_COMMAND", "COMMAND_TIMEOUT",
		"INTERNET_DISCOVERY", "OPENDNS_SERVER", "STUN_SERVER",
		"DISCOVERY_TIMEOUT", "DISCOVERY_BREAKER_THRESHOLD", "DISCOVERY_BREAKER_COOLDOWN",
		"OUTPUT_DIR", "METRICS_FILE", "HISTORY_ENABLED", "DB_PATH", "HISTORY_RETENTION",
		"LOG_LEVEL", "LOG_FORMAT",
		"RETRY_BUDGET", "SERVER_RETRIES", "SETTLE_INTERVAL", "OCTET_TOLERANCE",
	} {
		t.Setenv(name, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.EndpointList != "serverlist.txt" {
		t.Errorf("Expected EndpointList to be serverlist.txt, got %s", cfg.EndpointList)
	}
	if cfg.Commands.Sample != "speedtest -f tsv" {
		t.Errorf("Expected sample command 'speedtest -f tsv', got %q", cfg.Commands.Sample)
	}
	if cfg.Discovery.Method != DiscoveryAuto {
		t.Errorf("Expected discovery method auto, got %s", cfg.Discovery.Method)
	}
	if !cfg.History.Enabled {
		t.Error("Expected history to be enabled")
	}
	if cfg.Log.Level != "INFO" {
		t.Errorf("Expected log level INFO, got %s", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing endpoint list",
			mutate:  func(cfg *Config) { cfg.EndpointList = "" },
			wantErr: "Endpoint list path is required",
		},
		{
			name:    "empty switch command",
			mutate:  func(cfg *Config) { cfg.Commands.Switch = "   " },
			wantErr: "Switch command",
		},
		{
			name:    "unterminated quote in sample command",
			mutate:  func(cfg *Config) { cfg.Commands.Sample = `speedtest "-f tsv` },
			wantErr: "Sample command",
		},
		{
			name:    "unknown discovery method",
			mutate:  func(cfg *Config) { cfg.Discovery.Method = "carrier-pigeon" },
			wantErr: "Discovery method",
		},
		{
			name:    "negative breaker threshold",
			mutate:  func(cfg *Config) { cfg.Discovery.BreakerThreshold = -1 },
			wantErr: "breaker threshold",
		},
		{
			name: "breaker disabled without cooldown",
			mutate: func(cfg *Config) {
				cfg.Discovery.BreakerThreshold = 0
				cfg.Discovery.BreakerCooldown = 0
			},
		},
		{
			name: "history without database",
			mutate: func(cfg *Config) {
				cfg.History.Enabled = true
				cfg.History.DBPath = ""
			},
			wantErr: "History database path",
		},
		{
			name: "history disabled without database",
			mutate: func(cfg *Config) {
				cfg.History.Enabled = false
				cfg.History.DBPath = ""
			},
		},
		{
			name:    "invalid log format",
			mutate:  func(cfg *Config) { cfg.Log.Format = "xml" },
			wantErr: "Log format",
		},
		{
			name:    "invalid retry settings",
			mutate:  func(cfg *Config) { cfg.Retry.SettleInterval = 0 },
			wantErr: "SettleInterval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.EndpointList = ""
	cfg.Log.Level = "LOUD"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Endpoint list") || !strings.Contains(err.Error(), "Log level") {
		t.Errorf("expected both problems to be reported, got: %v", err)
	}
}

func TestSwitchCommand_Quoting(t *testing.T) {
	cfg := Default()
	cfg.Commands.Switch = `NordVPN.exe -c -n "Singapore #{number}"`

	argv, err := cfg.SwitchCommand()
	if err != nil {
		t.Fatalf("SwitchCommand() error = %v", err)
	}
	want := []string{"NordVPN.exe", "-c", "-n", "Singapore #{number}"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("SwitchCommand() = %q, want %q", argv, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vpn-ranker.yaml")

	configContent := `endpoint_list: "/etc/vpn-ranker/servers.txt"
commands:
  switch: 'NordVPN.exe -c -n "Singapore #{number}"'
  sample: "speedtest.exe -f tsv"
  timeout: "2m"
discovery:
  method: "STUN"
  stun_server: "stun.example.com:3478"
  timeout: "3s"
output:
  dir: "/var/lib/vpn-ranker"
  metrics_file: "/var/lib/node_exporter/vpn-ranker.prom"
history:
  enabled: false
  retention: "720h"
log:
  level: "debug"
  format: "JSON"
retry:
  internet_retries: 10
  server_retries: 2
  settle_interval: "3s"
  octet_tolerance: 8
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.EndpointList != "/etc/vpn-ranker/servers.txt" {
		t.Errorf("EndpointList = %s", cfg.EndpointList)
	}
	if cfg.Commands.Timeout != 2*time.Minute {
		t.Errorf("Commands.Timeout = %v, want 2m", cfg.Commands.Timeout)
	}
	if cfg.Discovery.Method != DiscoverySTUN {
		t.Errorf("Discovery.Method = %s, want stun", cfg.Discovery.Method)
	}
	if cfg.Discovery.OpenDNSServer != "208.67.222.222:53" {
		t.Errorf("unset values should keep their defaults, got %s", cfg.Discovery.OpenDNSServer)
	}
	if cfg.History.Enabled {
		t.Error("Expected history to be disabled")
	}
	if cfg.Log.Level != "DEBUG" || cfg.Log.Format != LogFormatJSON {
		t.Errorf("Log = %+v, want DEBUG/json", cfg.Log)
	}
	if cfg.Retry.InternetRetries != 10 || cfg.Retry.ServerRetries != 2 {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Retry.SettleInterval != 3*time.Second {
		t.Errorf("Retry.SettleInterval = %v, want 3s", cfg.Retry.SettleInterval)
	}
	if cfg.Retry.OctetTolerance != 8 {
		t.Errorf("Retry.OctetTolerance = %d, want 8", cfg.Retry.OctetTolerance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("retry: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file or environment", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load(nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Errorf("Load() = %+v, want defaults", cfg)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		isolateEnv(t)
		configPath := filepath.Join(t.TempDir(), "vpn-ranker.yaml")
		if err := os.WriteFile(configPath, []byte("endpoint_list: from-file.txt\nretry:\n  internet_retries: 3\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONFIG_FILE", configPath)
		t.Setenv("ENDPOINT_LIST", "from-env.txt")
		t.Setenv("LOG_LEVEL", "warn")
		t.Setenv("INTERNET_DISCOVERY", "OpenDNS")
		t.Setenv("SETTLE_INTERVAL", "250ms")
		t.Setenv("HISTORY_ENABLED", "false")
		t.Setenv("DISCOVERY_BREAKER_THRESHOLD", "0")

		cfg, err := Load(nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.EndpointList != "from-env.txt" {
			t.Errorf("EndpointList = %s, want from-env.txt", cfg.EndpointList)
		}
		if cfg.Retry.InternetRetries != 3 {
			t.Errorf("file value should survive env parsing, got %d", cfg.Retry.InternetRetries)
		}
		if cfg.Log.Level != "WARN" {
			t.Errorf("Log.Level = %s, want WARN", cfg.Log.Level)
		}
		if cfg.Discovery.Method != DiscoveryOpenDNS {
			t.Errorf("Discovery.Method = %s, want opendns", cfg.Discovery.Method)
		}
		if cfg.Retry.SettleInterval != 250*time.Millisecond {
			t.Errorf("SettleInterval = %v, want 250ms", cfg.Retry.SettleInterval)
		}
		if cfg.History.Enabled {
			t.Error("Expected history to be disabled")
		}
		if cfg.Discovery.BreakerThreshold != 0 {
			t.Errorf("BreakerThreshold = %d, want 0", cfg.Discovery.BreakerThreshold)
		}
	})

	t.Run("positional argument overrides environment", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("ENDPOINT_LIST", "from-env.txt")

		cfg, err := Load([]string{"from-args.txt"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.EndpointList != "from-args.txt" {
			t.Errorf("EndpointList = %s, want from-args.txt", cfg.EndpointList)
		}
	})

	t.Run("too many arguments", func(t *testing.T) {
		isolateEnv(t)

		if _, err := Load([]string{"a.txt", "b.txt"}); err == nil {
			t.Error("expected error for more than one argument")
		}
	})

	t.Run("invalid environment values are all reported", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("LOG_FORMAT", "xml")
		t.Setenv("RETRY_BUDGET", "many")
		t.Setenv("COMMAND_TIMEOUT", "-1s")

		_, err := Load(nil)
		if err == nil {
			t.Fatal("expected error")
		}
		for _, name := range []string{"LOG_FORMAT", "RETRY_BUDGET", "COMMAND_TIMEOUT"} {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("expected %s in error, got: %v", name, err)
			}
		}
	})
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Default().Print(&buf)

	out := buf.String()
	for _, want := range []string{"endpointList: serverlist.txt", "sampleCommand: speedtest -f tsv", "octetTolerance: 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print() output missing %q:\n%s", want, out)
		}
	}
}
