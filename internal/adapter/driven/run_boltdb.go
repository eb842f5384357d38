package driven

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alorle/vpn-ranker/internal/port/driven"
	"github.com/alorle/vpn-ranker/internal/probe"
)

const (
	runsBucket     = "runs"
	runIndexBucket = "run_index"
)

// RunBoltDBRepository implements the RunRepository port using BoltDB.
// Runs are stored under big-endian start-time keys suffixed with the run ID,
// so a cursor walks them chronologically; run_index maps run IDs to keys.
type RunBoltDBRepository struct {
	db *bbolt.DB
}

// NewRunBoltDBRepository creates a new BoltDB-backed run repository.
// It initializes the required buckets if they don't exist.
func NewRunBoltDBRepository(db *bbolt.DB) (*RunBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(runIndexBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &RunBoltDBRepository{db: db}, nil
}

// runDTO is the JSON serialization format for a run.
type runDTO struct {
	RunID      string       `json:"run_id"`
	StartedAt  int64        `json:"started_at"`
	FinishedAt int64        `json:"finished_at"`
	Cancelled  bool         `json:"cancelled"`
	BestGame   string       `json:"best_game"`
	BestUsage  string       `json:"best_usage"`
	Outcomes   []outcomeDTO `json:"outcomes"`
}

// outcomeDTO is the JSON serialization format for one endpoint outcome.
type outcomeDTO struct {
	Endpoint         string  `json:"endpoint"`
	ServerIP         string  `json:"server_ip,omitempty"`
	InternetIP       string  `json:"internet_ip,omitempty"`
	Latency          float64 `json:"latency"`
	Jitter           float64 `json:"jitter"`
	PacketLoss       float64 `json:"packet_loss"`
	NoPacketLossData bool    `json:"no_packet_loss_data"`
	Download         float64 `json:"download"`
	Upload           float64 `json:"upload"`
	Failure          string  `json:"failure,omitempty"`
	GameScore        float64 `json:"game_score"`
	UsageScore       float64 `json:"usage_score"`
}

// Write persists a run, replacing any stored run with the same ID.
func (r *RunBoltDBRepository) Write(ctx context.Context, report driven.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report.RunID == "" {
		return errors.New("run id cannot be empty")
	}

	data, err := json.Marshal(reportToDTO(report))
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		index := tx.Bucket([]byte(runIndexBucket))
		if runs == nil || index == nil {
			return errors.New("runs bucket not found")
		}

		if old := index.Get([]byte(report.RunID)); old != nil {
			if err := runs.Delete(old); err != nil {
				return err
			}
		}

		key := runKey(report.StartedAt, report.RunID)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		return index.Put([]byte(report.RunID), key)
	})
}

// FindByRunID retrieves a stored run.
func (r *RunBoltDBRepository) FindByRunID(ctx context.Context, runID string) (driven.Report, error) {
	if err := ctx.Err(); err != nil {
		return driven.Report{}, err
	}

	var report driven.Report
	err := r.db.View(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		index := tx.Bucket([]byte(runIndexBucket))
		if runs == nil || index == nil {
			return errors.New("runs bucket not found")
		}

		key := index.Get([]byte(runID))
		if key == nil {
			return driven.ErrRunNotFound
		}
		data := runs.Get(key)
		if data == nil {
			return driven.ErrRunNotFound
		}

		var err error
		report, err = dtoToReport(data)
		return err
	})
	if err != nil {
		return driven.Report{}, err
	}
	return report, nil
}

// ListRuns returns summaries of all stored runs, most recent first.
func (r *RunBoltDBRepository) ListRuns(ctx context.Context) ([]driven.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []driven.RunSummary
	err := r.db.View(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		if runs == nil {
			return errors.New("runs bucket not found")
		}

		// Iterate in reverse (most recent first)
		c := runs.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			report, err := dtoToReport(v)
			if err != nil {
				return err
			}
			summaries = append(summaries, driven.RunSummary{
				RunID:        report.RunID,
				StartedAt:    report.StartedAt,
				FinishedAt:   report.FinishedAt,
				Cancelled:    report.Cancelled,
				OutcomeCount: len(report.Outcomes),
				BestGame:     report.BestGame,
				BestUsage:    report.BestUsage,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if summaries == nil {
		summaries = []driven.RunSummary{}
	}
	return summaries, nil
}

// DeleteBefore removes all runs that started before the given time.
func (r *RunBoltDBRepository) DeleteBefore(ctx context.Context, before time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		index := tx.Bucket([]byte(runIndexBucket))
		if runs == nil || index == nil {
			return errors.New("runs bucket not found")
		}

		beforeKey := timestampToKey(before)

		// Collect keys to delete (can't delete during iteration)
		var keysToDelete [][]byte
		c := runs.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if bytes.Compare(k[:8], beforeKey) >= 0 {
				break // Keys are sorted, no need to continue
			}
			keyCopy := make([]byte, len(k))
			copy(keyCopy, k)
			keysToDelete = append(keysToDelete, keyCopy)
		}

		for _, dk := range keysToDelete {
			if err := runs.Delete(dk); err != nil {
				return err
			}
			if err := index.Delete(dk[8:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// timestampToKey converts a time.Time to an 8-byte big-endian key.
// This ensures chronological ordering in BoltDB's byte-sorted keys.
func timestampToKey(t time.Time) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return key
}

// runKey appends the run ID to the timestamp key so runs started in the
// same nanosecond stay distinct.
func runKey(startedAt time.Time, runID string) []byte {
	return append(timestampToKey(startedAt), runID...)
}

func reportToDTO(report driven.Report) runDTO {
	dto := runDTO{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt.UnixNano(),
		FinishedAt: report.FinishedAt.UnixNano(),
		Cancelled:  report.Cancelled,
		BestGame:   report.BestGame,
		BestUsage:  report.BestUsage,
		Outcomes:   make([]outcomeDTO, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		s := o.Sample()
		dto.Outcomes = append(dto.Outcomes, outcomeDTO{
			Endpoint:         o.Endpoint(),
			ServerIP:         o.ServerAddress().String(),
			InternetIP:       o.InternetAddress().String(),
			Latency:          s.Latency(),
			Jitter:           s.Jitter(),
			PacketLoss:       s.PacketLoss(),
			NoPacketLossData: s.NoPacketLossData(),
			Download:         s.Download(),
			Upload:           s.Upload(),
			Failure:          string(o.Failure()),
			GameScore:        o.GameScore(),
			UsageScore:       o.UsageScore(),
		})
	}
	return dto
}

// dtoToReport deserializes a JSON value into a driven.Report.
func dtoToReport(data []byte) (driven.Report, error) {
	var dto runDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return driven.Report{}, err
	}

	report := driven.Report{
		RunID:      dto.RunID,
		StartedAt:  time.Unix(0, dto.StartedAt),
		FinishedAt: time.Unix(0, dto.FinishedAt),
		Cancelled:  dto.Cancelled,
		BestGame:   dto.BestGame,
		BestUsage:  dto.BestUsage,
		Outcomes:   make([]probe.Outcome, 0, len(dto.Outcomes)),
	}
	for _, o := range dto.Outcomes {
		server, err := optionalAddress(o.ServerIP)
		if err != nil {
			return driven.Report{}, fmt.Errorf("run %s: invalid server address: %w", dto.RunID, err)
		}
		internet, err := optionalAddress(o.InternetIP)
		if err != nil {
			return driven.Report{}, fmt.Errorf("run %s: invalid internet address: %w", dto.RunID, err)
		}
		report.Outcomes = append(report.Outcomes, probe.ReconstructOutcome(
			o.Endpoint,
			server,
			internet,
			probe.ReconstructSample(o.Latency, o.Jitter, o.PacketLoss, o.NoPacketLossData, o.Download, o.Upload),
			probe.Failure(o.Failure),
			o.GameScore,
			o.UsageScore,
		))
	}
	return report, nil
}

func optionalAddress(s string) (probe.Address, error) {
	if s == "" {
		return probe.Address{}, nil
	}
	return probe.ParseAddress(s)
}
