package probe

import "strings"

// Failure names the evaluation stage that degraded an outcome.
type Failure string

const (
	FailureNone               Failure = ""
	FailureInternetUnresolved Failure = "internet_unresolved"
	FailureServerUnresolved   Failure = "server_unresolved"
	FailureAddressMismatch    Failure = "address_mismatch"
	FailureSample             Failure = "sample_failed"
)

// Outcome is the evaluation result of one endpoint in one run.
// It is an immutable value object; scores are attached by Score.
type Outcome struct {
	endpoint   string
	server     Address
	internet   Address
	sample     Sample
	failure    Failure
	gameScore  float64
	usageScore float64
}

// NewOutcome creates the outcome of a fully evaluated endpoint.
func NewOutcome(endpoint string, server, internet Address, sample Sample) (Outcome, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Outcome{}, ErrEmptyEndpoint
	}
	return Outcome{
		endpoint: endpoint,
		server:   server,
		internet: internet,
		sample:   sample,
	}, nil
}

// NewDegradedOutcome creates the outcome of an endpoint whose evaluation
// stopped at the given stage. Its sample is zero-filled with no packet loss
// data; addresses that were resolved before the failure are kept.
func NewDegradedOutcome(endpoint string, server, internet Address, failure Failure) (Outcome, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Outcome{}, ErrEmptyEndpoint
	}
	if failure == FailureNone {
		failure = FailureSample
	}
	return Outcome{
		endpoint: endpoint,
		server:   server,
		internet: internet,
		sample:   degradedSample(),
		failure:  failure,
	}, nil
}

// ReconstructOutcome rebuilds an Outcome from persisted state.
// Intended for repository adapters only — bypasses validation.
func ReconstructOutcome(
	endpoint string,
	server Address,
	internet Address,
	sample Sample,
	failure Failure,
	gameScore float64,
	usageScore float64,
) Outcome {
	return Outcome{
		endpoint:   endpoint,
		server:     server,
		internet:   internet,
		sample:     sample,
		failure:    failure,
		gameScore:  gameScore,
		usageScore: usageScore,
	}
}

// ReconstructSample rebuilds a Sample from persisted state.
// Intended for repository adapters only — bypasses validation.
func ReconstructSample(latency, jitter, packetLoss float64, noPacketLossData bool, download, upload float64) Sample {
	return Sample{
		latency:          latency,
		jitter:           jitter,
		packetLoss:       packetLoss,
		noPacketLossData: noPacketLossData,
		download:         download,
		upload:           upload,
	}
}

func (o Outcome) Endpoint() string         { return o.endpoint }
func (o Outcome) ServerAddress() Address   { return o.server }
func (o Outcome) InternetAddress() Address { return o.internet }
func (o Outcome) Sample() Sample           { return o.sample }
func (o Outcome) Failure() Failure         { return o.failure }
func (o Outcome) Degraded() bool           { return o.failure != FailureNone }
func (o Outcome) NoPacketLossData() bool   { return o.sample.noPacketLossData }
func (o Outcome) GameScore() float64       { return o.gameScore }
func (o Outcome) UsageScore() float64      { return o.usageScore }

func (o Outcome) withScores(game, usage float64) Outcome {
	o.gameScore = game
	o.usageScore = usage
	return o
}
