package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EndpointsEvaluated counts evaluated endpoints by outcome
	// ("ok" or the failure kind of a degraded record)
	EndpointsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpnranker_endpoints_evaluated_total",
		Help: "Total number of evaluated endpoints by outcome",
	}, []string{"outcome"})

	// SwitchFailures counts VPN client invocations that exited abnormally
	SwitchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpnranker_switch_failures_total",
		Help: "Total number of failed endpoint switches",
	})

	// ResolveRetries counts retried address lookups by target (internet, server)
	ResolveRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vpnranker_resolve_retries_total",
		Help: "Total number of retried address lookups",
	}, []string{"target"})

	// SampleDuration tracks how long speed measurements take
	SampleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vpnranker_sample_duration_seconds",
		Help:    "Duration of speed measurements",
		Buckets: []float64{5, 10, 15, 20, 30, 45, 60, 90, 120},
	})

	// EndpointScore holds the latest score of each endpoint by kind (game, usage)
	EndpointScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpnranker_endpoint_score",
		Help: "Latest score of an endpoint (0-100)",
	}, []string{"endpoint", "kind"})

	// EndpointThroughput holds the latest measured throughput by direction
	EndpointThroughput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpnranker_endpoint_throughput",
		Help: "Latest measured throughput of an endpoint in the sampler's units",
	}, []string{"endpoint", "direction"})

	// EndpointLatency holds the latest measured latency in milliseconds
	EndpointLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vpnranker_endpoint_latency_milliseconds",
		Help: "Latest measured latency of an endpoint",
	}, []string{"endpoint"})

	// LastRunTimestamp is the unix time the last run finished
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vpnranker_last_run_timestamp_seconds",
		Help: "Unix time the last benchmark run finished",
	})

	// LastRunDuration is the wall time of the last run
	LastRunDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vpnranker_last_run_duration_seconds",
		Help: "Wall time of the last benchmark run",
	})
)

// RecordEndpointEvaluated increments the evaluation counter for an outcome
func RecordEndpointEvaluated(outcome string) {
	EndpointsEvaluated.WithLabelValues(outcome).Inc()
}

// RecordSwitchFailure increments the switch failure counter
func RecordSwitchFailure() {
	SwitchFailures.Inc()
}

// RecordResolveRetry increments the retry counter for a lookup target
func RecordResolveRetry(target string) {
	ResolveRetries.WithLabelValues(target).Inc()
}

// ObserveSampleDuration records the duration of one speed measurement
func ObserveSampleDuration(seconds float64) {
	SampleDuration.Observe(seconds)
}

// SetEndpointResult publishes the latest measurement and scores of an endpoint
func SetEndpointResult(endpoint string, latency, download, upload, game, usage float64) {
	EndpointLatency.WithLabelValues(endpoint).Set(latency)
	EndpointThroughput.WithLabelValues(endpoint, "download").Set(download)
	EndpointThroughput.WithLabelValues(endpoint, "upload").Set(upload)
	EndpointScore.WithLabelValues(endpoint, "game").Set(game)
	EndpointScore.WithLabelValues(endpoint, "usage").Set(usage)
}

// ResetEndpointResults drops per-endpoint series so a run only reports
// the endpoints it evaluated
func ResetEndpointResults() {
	EndpointLatency.Reset()
	EndpointThroughput.Reset()
	EndpointScore.Reset()
}

// SetLastRun records when the last run finished and how long it took
func SetLastRun(finishedUnix, durationSeconds float64) {
	LastRunTimestamp.Set(finishedUnix)
	LastRunDuration.Set(durationSeconds)
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
