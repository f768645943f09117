package oracle

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"settlement-service/internal/models"
)

// Reporter is one measurement agent. A real deployment swaps the simulator
// for a sensor or feed adapter with the same output shape; a failed report
// degrades to "no reading from this agent this tick".
type Reporter interface {
	AgentID() string
	Report(hazard *models.HazardConfig, at time.Time) (models.AgentReading, error)
}

// SimulatedReporter draws pseudo-random observations skewed around the
// hazard threshold: 0.7x-1.2x for greater-than hazards, 0.5x-1.5x for
// less-than hazards. The RNG is injectable so tests are deterministic.
type SimulatedReporter struct {
	id  string
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedReporter(id string, seed int64) *SimulatedReporter {
	return &SimulatedReporter{
		id:  id,
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *SimulatedReporter) AgentID() string { return r.id }

func (r *SimulatedReporter) Report(hazard *models.HazardConfig, at time.Time) (models.AgentReading, error) {
	if hazard == nil {
		return models.AgentReading{}, fmt.Errorf("reporter %s: nil hazard", r.id)
	}

	r.mu.Lock()
	f := r.rng.Float64()
	r.mu.Unlock()

	var value float64
	switch hazard.Condition {
	case models.ConditionGreaterThan:
		value = hazard.Threshold * (0.7 + f*0.5)
	case models.ConditionLessThan:
		value = hazard.Threshold * (0.5 + f*1.0)
	default:
		return models.AgentReading{}, fmt.Errorf("reporter %s: unknown condition %q", r.id, hazard.Condition)
	}

	return models.AgentReading{
		AgentID:    r.id,
		HazardID:   hazard.ID,
		Value:      value,
		CapturedAt: at,
	}, nil
}
