package driven

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alorle/vpn-ranker/internal/probe"
)

var (
	// ErrMissingField is returned when the speedtest output has too few fields.
	ErrMissingField = errors.New("speedtest output is missing fields")
	// ErrMalformedField is returned when a required field is not a number.
	ErrMalformedField = errors.New("speedtest output field is not a number")
)

// Field positions in the speedtest CLI's tab-separated output.
const (
	fieldServerName = iota
	fieldServerID
	fieldLatency
	fieldJitter
	fieldPacketLoss
	fieldDownload
	fieldUpload

	speedtestMinFields
)

// SpeedtestSampler implements the SpeedSampler port by running a speedtest
// CLI in tab-separated output mode.
type SpeedtestSampler struct {
	runner  CommandRunner
	command string
	args    []string
	logger  *slog.Logger
}

// NewSpeedtestSampler creates a sampler running command with args.
func NewSpeedtestSampler(runner CommandRunner, command string, args []string, logger *slog.Logger) (*SpeedtestSampler, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if command == "" {
		return nil, errors.New("sample command cannot be empty")
	}
	return &SpeedtestSampler{
		runner:  runner,
		command: command,
		args:    append([]string(nil), args...),
		logger:  logger,
	}, nil
}

// Sample runs one measurement and parses its output.
func (s *SpeedtestSampler) Sample(ctx context.Context) (probe.Sample, error) {
	result, err := s.runner.Run(ctx, s.command, s.args)
	if err != nil {
		return probe.Sample{}, fmt.Errorf("failed to run speedtest: %w", err)
	}

	sample, err := ParseSpeedtestTSV(result.Stdout)
	if err != nil {
		s.logger.Debug("unparsable speedtest output", "stdout", result.Stdout, "error", err)
		return probe.Sample{}, err
	}
	return sample, nil
}

// ParseSpeedtestTSV parses the first non-blank line of speedtest TSV output:
// server name, server id, latency, jitter, packet loss, download, upload.
// Packet loss is optional; the CLI prints "N/A" when it has no data.
func ParseSpeedtestTSV(output string) (probe.Sample, error) {
	var line string
	for _, l := range strings.Split(output, "\n") {
		if l = strings.TrimRight(l, "\r"); strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	if line == "" {
		return probe.Sample{}, fmt.Errorf("%w: empty output", ErrMissingField)
	}

	fields := strings.Split(line, "\t")
	if len(fields) < speedtestMinFields {
		return probe.Sample{}, fmt.Errorf("%w: got %d, want at least %d", ErrMissingField, len(fields), speedtestMinFields)
	}
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
	}

	values := make(map[int]float64, 4)
	for _, idx := range []int{fieldLatency, fieldJitter, fieldDownload, fieldUpload} {
		v, err := strconv.ParseFloat(fields[idx], 64)
		if err != nil {
			return probe.Sample{}, fmt.Errorf("%w: field %d %q", ErrMalformedField, idx, fields[idx])
		}
		values[idx] = v
	}

	latency, jitter := values[fieldLatency], values[fieldJitter]
	download, upload := values[fieldDownload], values[fieldUpload]

	packetLoss, err := strconv.ParseFloat(fields[fieldPacketLoss], 64)
	if err != nil {
		return probe.NewSampleWithoutPacketLoss(latency, jitter, download, upload)
	}
	return probe.NewSample(latency, jitter, packetLoss, download, upload)
}
