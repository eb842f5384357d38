package probe

import "strconv"

// PacketLossPlaceholder is the packet loss assumed when the measurement
// program reports none. It only keeps the score formula defined and is never
// rendered; see Sample.PacketLossText.
const PacketLossPlaceholder = 0.3

// NotAvailable is rendered in place of a missing measurement.
const NotAvailable = "N/A"

// Sample is one speed measurement. It is an immutable value object.
type Sample struct {
	latency          float64 // milliseconds
	jitter           float64 // milliseconds
	packetLoss       float64
	noPacketLossData bool
	download         float64
	upload           float64
}

// NewSample creates a sample with a measured packet loss.
func NewSample(latency, jitter, packetLoss, download, upload float64) (Sample, error) {
	if download < 0 || upload < 0 {
		return Sample{}, ErrNegativeThroughput
	}
	return Sample{
		latency:    latency,
		jitter:     jitter,
		packetLoss: packetLoss,
		download:   download,
		upload:     upload,
	}, nil
}

// NewSampleWithoutPacketLoss creates a sample whose packet loss could not be
// measured. The placeholder value is used for scoring.
func NewSampleWithoutPacketLoss(latency, jitter, download, upload float64) (Sample, error) {
	s, err := NewSample(latency, jitter, PacketLossPlaceholder, download, upload)
	if err != nil {
		return Sample{}, err
	}
	s.noPacketLossData = true
	return s, nil
}

// degradedSample is the all-zero sample carried by degraded outcomes.
func degradedSample() Sample {
	return Sample{noPacketLossData: true}
}

func (s Sample) Latency() float64       { return s.latency }
func (s Sample) Jitter() float64        { return s.jitter }
func (s Sample) PacketLoss() float64    { return s.packetLoss }
func (s Sample) NoPacketLossData() bool { return s.noPacketLossData }
func (s Sample) Download() float64      { return s.download }
func (s Sample) Upload() float64        { return s.upload }

// PacketLossText renders packet loss for output, "N/A" when unmeasured.
func (s Sample) PacketLossText() string {
	if s.noPacketLossData {
		return NotAvailable
	}
	return FormatFloat(s.packetLoss)
}

// FormatFloat renders a metric with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
