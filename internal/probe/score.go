package probe

import (
	"cmp"
	"slices"
)

// Weight holds the coefficients of one scoring profile.
type Weight struct {
	Latency    float64
	Jitter     float64
	PacketLoss float64
	Download   float64
	Upload     float64
}

// GameWeight favours low latency and jitter.
func GameWeight() Weight {
	return Weight{Latency: 50, Jitter: 15, PacketLoss: 25, Download: 5, Upload: 5}
}

// UsageWeight favours throughput.
func UsageWeight() Weight {
	return Weight{Latency: 10, Jitter: 10, PacketLoss: 5, Download: 50, Upload: 25}
}

// Normalization ceilings for the latency, jitter and packet loss terms.
const (
	latencyCeilingMs  = 250.0
	jitterCeilingMs   = 5.0
	packetLossCeiling = 3.0
)

// ComputeScore calculates the weighted composite score of a sample.
//
// Formula:
//
//	score = (1 - latency/250)      * w.Latency +
//	        (1 - jitter/5)         * w.Jitter +
//	        (1 - packetLoss/3)     * w.PacketLoss +
//	        (download/maxDownload) * w.Download +
//	        (upload/maxUpload)     * w.Upload
//
// maxDownload and maxUpload are the maxima observed across the whole run and
// must be positive.
func ComputeScore(s Sample, w Weight, maxDownload, maxUpload float64) float64 {
	return (1-s.latency/latencyCeilingMs)*w.Latency +
		(1-s.jitter/jitterCeilingMs)*w.Jitter +
		(1-s.packetLoss/packetLossCeiling)*w.PacketLoss +
		(s.download/maxDownload)*w.Download +
		(s.upload/maxUpload)*w.Upload
}

// Maxima returns the highest download and upload across outcomes.
func Maxima(outcomes []Outcome) (maxDownload, maxUpload float64) {
	for _, o := range outcomes {
		if o.sample.download > maxDownload {
			maxDownload = o.sample.download
		}
		if o.sample.upload > maxUpload {
			maxUpload = o.sample.upload
		}
	}
	return maxDownload, maxUpload
}

// Score returns a copy of outcomes with game and usage scores attached.
// Outcomes without download throughput keep a zero score. It returns
// ErrNoThroughputSignal when no outcome measured any download or upload.
// The input slice is not modified, so scoring the same set twice yields
// identical results.
func Score(outcomes []Outcome) ([]Outcome, error) {
	maxDownload, maxUpload := Maxima(outcomes)
	if maxDownload == 0 || maxUpload == 0 {
		return nil, ErrNoThroughputSignal
	}

	game, usage := GameWeight(), UsageWeight()
	scored := make([]Outcome, len(outcomes))
	for i, o := range outcomes {
		if o.sample.download > 0 {
			o = o.withScores(
				ComputeScore(o.sample, game, maxDownload, maxUpload),
				ComputeScore(o.sample, usage, maxDownload, maxUpload),
			)
		} else {
			o = o.withScores(0, 0)
		}
		scored[i] = o
	}
	return scored, nil
}

// ScoreKey selects the score an outcome is ranked by.
type ScoreKey func(Outcome) float64

// ByGameScore and ByUsageScore are the two ranking keys.
var (
	ByGameScore  ScoreKey = Outcome.GameScore
	ByUsageScore ScoreKey = Outcome.UsageScore
)

// Best returns the outcome with the highest score under key. Ties go to the
// earliest outcome. It returns false for an empty slice.
func Best(outcomes []Outcome, key ScoreKey) (Outcome, bool) {
	if len(outcomes) == 0 {
		return Outcome{}, false
	}
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if key(o) > key(best) {
			best = o
		}
	}
	return best, true
}

// Rank returns outcomes sorted by key descending (best first), keeping the
// input order among equal scores.
func Rank(outcomes []Outcome, key ScoreKey) []Outcome {
	ranked := slices.Clone(outcomes)
	slices.SortStableFunc(ranked, func(a, b Outcome) int {
		return cmp.Compare(key(b), key(a))
	})
	return ranked
}
