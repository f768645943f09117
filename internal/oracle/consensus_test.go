package oracle

import (
	"testing"
	"time"

	"settlement-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func batchOf(hazardID string, values ...float64) models.ReadingBatch {
	batch := models.ReadingBatch{
		HazardID:   hazardID,
		Tick:       1,
		CapturedAt: time.Now(),
	}
	for i, v := range values {
		batch.Readings = append(batch.Readings, models.AgentReading{
			AgentID:  string(rune('a' + i)),
			HazardID: hazardID,
			Value:    v,
		})
	}
	return batch
}

func TestAggregate_EmptyBatch(t *testing.T) {
	_, err := Aggregate(batchOf("hurricane"), DefaultVarianceLimit)

	assert.ErrorIs(t, err, ErrInsufficientReadings, "an empty batch must never yield a zero-valued consensus")
}

func TestAggregate_MeanAndDispersion(t *testing.T) {
	snapshot, err := Aggregate(batchOf("hurricane", 80, 130, 200), DefaultVarianceLimit)

	assert.NoError(t, err)
	assert.InDelta(t, 136.6667, snapshot.ConsensusValue, 0.001)
	assert.Equal(t, 120.0, snapshot.Dispersion)
	assert.Equal(t, 3, snapshot.ReadingCount)
	assert.False(t, snapshot.Trusted, "dispersion 120 far exceeds the default variance limit")
}

func TestAggregate_IdenticalReadingsHaveZeroDispersion(t *testing.T) {
	snapshot, err := Aggregate(batchOf("gold", 1950, 1950, 1950), DefaultVarianceLimit)

	assert.NoError(t, err)
	assert.Equal(t, 1950.0, snapshot.ConsensusValue)
	assert.Equal(t, 0.0, snapshot.Dispersion)
	assert.True(t, snapshot.Trusted)
}

func TestAggregate_SingleReading(t *testing.T) {
	snapshot, err := Aggregate(batchOf("health", 172), DefaultVarianceLimit)

	assert.NoError(t, err)
	assert.Equal(t, 172.0, snapshot.ConsensusValue)
	assert.Equal(t, 0.0, snapshot.Dispersion)
	assert.True(t, snapshot.Trusted)
}

func TestAggregate_TrustedExactlyAtLimit(t *testing.T) {
	snapshot, err := Aggregate(batchOf("hurricane", 100, 115), DefaultVarianceLimit)

	assert.NoError(t, err)
	assert.Equal(t, 15.0, snapshot.Dispersion)
	assert.True(t, snapshot.Trusted, "dispersion exactly at the limit is still trusted")
}

func TestAggregate_CarriesBatchIdentity(t *testing.T) {
	batch := batchOf("flight", 130, 140)
	batch.Tick = 42

	snapshot, err := Aggregate(batch, DefaultVarianceLimit)

	assert.NoError(t, err)
	assert.Equal(t, "flight", snapshot.HazardID)
	assert.Equal(t, uint64(42), snapshot.Tick)
	assert.Equal(t, batch.CapturedAt, snapshot.CapturedAt)
}
