package oracle

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"settlement-service/internal/catalog"
	"settlement-service/internal/models"
)

// Board owns the latest published reading batch and consensus snapshot per
// hazard. A refresh generates the whole batch for one hazard atomically and
// replaces the published snapshot in one step; published values are never
// mutated in place, so an in-flight claim decision keeps the snapshot it
// started with even if a new tick lands mid-validation.
type Board struct {
	catalog       *catalog.Catalog
	varianceLimit float64

	mu        sync.RWMutex
	tick      uint64
	reporters map[string][]Reporter
	batches   map[string]models.ReadingBatch
	snapshots map[string]models.ConsensusSnapshot
}

// NewBoard wires one simulated reporter per configured agent role. Seeds are
// derived from the base seed so runs are reproducible.
func NewBoard(cat *catalog.Catalog, varianceLimit float64, seed int64) *Board {
	b := &Board{
		catalog:       cat,
		varianceLimit: varianceLimit,
		reporters:     make(map[string][]Reporter),
		batches:       make(map[string]models.ReadingBatch),
		snapshots:     make(map[string]models.ConsensusSnapshot),
	}
	for _, h := range cat.All() {
		reporters := make([]Reporter, 0, len(h.AgentRoles))
		for i, role := range h.AgentRoles {
			reporters = append(reporters, NewSimulatedReporter(role, seed+int64(i)*7919))
		}
		b.reporters[h.ID] = reporters
	}
	return b
}

// SetReporters replaces the reporters for one hazard, e.g. with a real feed
// adapter or a fixed-value stub in tests.
func (b *Board) SetReporters(hazardID string, reporters []Reporter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reporters[hazardID] = reporters
}

// RefreshHazard collects one reading per reporter for the hazard and
// publishes the batch plus its snapshot atomically. Reporter failures are
// logged and skipped; an all-failed tick publishes an empty batch, which
// readers observe as ErrInsufficientReadings.
func (b *Board) RefreshHazard(hazardID string, now time.Time) error {
	hazard := b.catalog.Get(hazardID)
	if hazard == nil {
		return fmt.Errorf("unknown hazard %q", hazardID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tick++
	batch := models.ReadingBatch{
		HazardID:   hazardID,
		Tick:       b.tick,
		CapturedAt: now,
	}
	for _, reporter := range b.reporters[hazardID] {
		reading, err := reporter.Report(hazard, now)
		if err != nil {
			slog.Debug("agent reading skipped", "hazard_id", hazardID, "agent_id", reporter.AgentID(), "error", err)
			continue
		}
		batch.Readings = append(batch.Readings, reading)
	}
	b.batches[hazardID] = batch

	snapshot, err := Aggregate(batch, b.varianceLimit)
	if err != nil {
		delete(b.snapshots, hazardID)
		return nil
	}
	b.snapshots[hazardID] = snapshot
	return nil
}

// Snapshot returns the latest published consensus snapshot for the hazard,
// or ErrInsufficientReadings when no complete batch has produced one.
func (b *Board) Snapshot(hazardID string) (models.ConsensusSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot, ok := b.snapshots[hazardID]
	if !ok {
		return models.ConsensusSnapshot{}, ErrInsufficientReadings
	}
	return snapshot, nil
}

// Batch returns the latest published reading batch for the hazard.
func (b *Board) Batch(hazardID string) (models.ReadingBatch, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	batch, ok := b.batches[hazardID]
	if !ok || len(batch.Readings) == 0 {
		return models.ReadingBatch{}, false
	}
	// Copy the slice header target so callers cannot touch the published batch.
	cp := batch
	cp.Readings = append([]models.AgentReading(nil), batch.Readings...)
	return cp, true
}
