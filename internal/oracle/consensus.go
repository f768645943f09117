package oracle

import (
	"errors"

	"settlement-service/internal/models"
)

// ErrInsufficientReadings signals that no agent data exists for the requested
// tick. Recoverable: callers should treat it as "no consensus this tick" and
// retry on the next refresh, never as a zero consensus value.
var ErrInsufficientReadings = errors.New("insufficient agent readings for consensus")

// DefaultVarianceLimit classifies a snapshot as untrusted when the spread of
// agent readings (max-min, in the hazard's own unit) exceeds it.
const DefaultVarianceLimit = 15.0

// Aggregate computes the consensus snapshot for one complete reading batch:
// consensus value is the arithmetic mean, dispersion is max-min. Agents that
// failed to report this tick are simply absent from the batch; they are
// excluded from the average, not treated as zero.
func Aggregate(batch models.ReadingBatch, varianceLimit float64) (models.ConsensusSnapshot, error) {
	if len(batch.Readings) == 0 {
		return models.ConsensusSnapshot{}, ErrInsufficientReadings
	}

	sum := 0.0
	lo, hi := batch.Readings[0].Value, batch.Readings[0].Value
	for _, r := range batch.Readings {
		sum += r.Value
		if r.Value < lo {
			lo = r.Value
		}
		if r.Value > hi {
			hi = r.Value
		}
	}
	dispersion := hi - lo

	return models.ConsensusSnapshot{
		HazardID:       batch.HazardID,
		Tick:           batch.Tick,
		ConsensusValue: sum / float64(len(batch.Readings)),
		Dispersion:     dispersion,
		ReadingCount:   len(batch.Readings),
		Trusted:        dispersion <= varianceLimit,
		CapturedAt:     batch.CapturedAt,
	}, nil
}
