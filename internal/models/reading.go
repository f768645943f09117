package models

import "time"

// ============================================================================
// ORACLE READINGS (EPHEMERAL, REGENERATED EVERY TICK)
// ============================================================================

// AgentReading is one scalar observation reported by one measurement agent.
type AgentReading struct {
	AgentID    string    `json:"agent_id"`
	HazardID   string    `json:"hazard_id"`
	Value      float64   `json:"value"`
	CapturedAt time.Time `json:"captured_at"`
}

// ReadingBatch is the complete set of readings for one hazard captured at a
// single tick. A batch is immutable once published; consensus is only ever
// computed from one complete batch, never from readings of mixed ticks.
type ReadingBatch struct {
	HazardID   string         `json:"hazard_id"`
	Tick       uint64         `json:"tick"`
	Readings   []AgentReading `json:"readings"`
	CapturedAt time.Time      `json:"captured_at"`
}

// ConsensusSnapshot is the derived aggregate over one reading batch. It is
// recomputed on demand and never persisted as a source of truth.
type ConsensusSnapshot struct {
	HazardID       string    `json:"hazard_id"`
	Tick           uint64    `json:"tick"`
	ConsensusValue float64   `json:"consensus_value"`
	Dispersion     float64   `json:"dispersion"`
	ReadingCount   int       `json:"reading_count"`
	Trusted        bool      `json:"trusted"`
	CapturedAt     time.Time `json:"captured_at"`
}
