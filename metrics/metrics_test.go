package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Failed to get metrics: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	// Initialize metrics - including vector metrics to ensure they appear
	RecordEndpointEvaluated("ok")
	RecordSwitchFailure()
	RecordResolveRetry("internet")
	ObserveSampleDuration(20)
	SetEndpointResult("init.example.com", 10, 100, 50, 80, 70)
	SetLastRun(1700000000, 42)

	output := scrape(t)

	expectedMetrics := []string{
		"vpnranker_endpoints_evaluated_total",
		"vpnranker_switch_failures_total",
		"vpnranker_resolve_retries_total",
		"vpnranker_sample_duration_seconds",
		"vpnranker_endpoint_score",
		"vpnranker_endpoint_throughput",
		"vpnranker_endpoint_latency_milliseconds",
		"vpnranker_last_run_timestamp_seconds",
		"vpnranker_last_run_duration_seconds",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(output, metric) {
			t.Errorf("Expected metric %s not found in output", metric)
		}
	}
}

func TestEndpointResultValues(t *testing.T) {
	ResetEndpointResults()
	SetEndpointResult("sg467.nordvpn.com", 12.5, 9000, 3000, 88, 91)

	output := scrape(t)

	tests := []struct {
		name     string
		contains string
	}{
		{"latency", `vpnranker_endpoint_latency_milliseconds{endpoint="sg467.nordvpn.com"} 12.5`},
		{"download", `vpnranker_endpoint_throughput{direction="download",endpoint="sg467.nordvpn.com"} 9000`},
		{"upload", `vpnranker_endpoint_throughput{direction="upload",endpoint="sg467.nordvpn.com"} 3000`},
		{"game", `vpnranker_endpoint_score{endpoint="sg467.nordvpn.com",kind="game"} 88`},
		{"usage", `vpnranker_endpoint_score{endpoint="sg467.nordvpn.com",kind="usage"} 91`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected to find %s in output", tt.contains)
			}
		})
	}
}

func TestResetEndpointResults(t *testing.T) {
	SetEndpointResult("stale.example.com", 1, 1, 1, 1, 1)
	ResetEndpointResults()

	output := scrape(t)
	if strings.Contains(output, `endpoint="stale.example.com"`) {
		t.Error("expected per-endpoint series to be removed after reset")
	}
}

func TestMetricsLabels(t *testing.T) {
	RecordEndpointEvaluated("internet_unresolved")
	RecordEndpointEvaluated("address_mismatch")
	RecordResolveRetry("server")

	output := scrape(t)

	expectedLabels := []string{
		`outcome="internet_unresolved"`,
		`outcome="address_mismatch"`,
		`target="server"`,
	}

	for _, label := range expectedLabels {
		if !strings.Contains(output, label) {
			t.Errorf("Expected to find label %s in output", label)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	SetLastRun(1700000000, 42)

	path := filepath.Join(t.TempDir(), "vpn-ranker.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), "vpnranker_last_run_duration_seconds 42") {
		t.Errorf("textfile missing run duration:\n%s", data)
	}
}
