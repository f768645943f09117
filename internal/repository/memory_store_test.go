package repository

import (
	"context"
	"testing"
	"time"

	"settlement-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func storedPolicy(holderID string) *models.PolicyInstance {
	now := time.Now()
	return &models.PolicyInstance{
		ID:             uuid.New(),
		HazardID:       "hurricane",
		HolderID:       holderID,
		State:          models.PolicyActive,
		PremiumPaid:    150,
		CoverageAmount: 450,
		PurchasedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := storedPolicy("holder-1")

	assert.NoError(t, store.Create(ctx, policy))

	got, err := store.GetByID(ctx, policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, policy.ID, got.ID)
	assert.Equal(t, models.PolicyActive, got.State)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := storedPolicy("holder-1")

	assert.NoError(t, store.Create(ctx, policy))
	assert.Error(t, store.Create(ctx, policy))
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	store := NewMemoryStore()

	err := store.Update(context.Background(), storedPolicy("holder-1"))

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdatePersistsClaim(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := storedPolicy("holder-1")
	assert.NoError(t, store.Create(ctx, policy))

	policy.State = models.PolicyClaimRejected
	policy.Claim = &models.ClaimRecord{
		FiledAt:          time.Now(),
		ProofSupplied:    true,
		Decision:         models.DecisionRejected,
		RejectionReasons: []string{"missing proof of loss"},
	}
	assert.NoError(t, store.Update(ctx, policy))

	got, err := store.GetByID(ctx, policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyClaimRejected, got.State)
	assert.Equal(t, []string{"missing proof of loss"}, got.Claim.RejectionReasons)
}

func TestMemoryStore_ReadsAreDetached(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := storedPolicy("holder-1")
	assert.NoError(t, store.Create(ctx, policy))

	got, err := store.GetByID(ctx, policy.ID)
	assert.NoError(t, err)
	got.State = models.PolicyPayoutProcessed

	again, err := store.GetByID(ctx, policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyActive, again.State)
}

func TestMemoryStore_ListByHolder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := storedPolicy("holder-1")
	second := storedPolicy("holder-1")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := storedPolicy("holder-2")

	assert.NoError(t, store.Create(ctx, first))
	assert.NoError(t, store.Create(ctx, second))
	assert.NoError(t, store.Create(ctx, other))

	policies, err := store.ListByHolder(ctx, "holder-1")
	assert.NoError(t, err)
	assert.Len(t, policies, 2)
	assert.Equal(t, first.ID, policies[0].ID, "policies are ordered by creation time")
}
