package services

import (
	"context"
	"testing"
	"time"

	"settlement-service/internal/catalog"
	"settlement-service/internal/ledger"
	"settlement-service/internal/models"
	"settlement-service/internal/oracle"
	"settlement-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// mutableSnapshots lets a test move the consensus between lifecycle calls.
type mutableSnapshots struct {
	snapshot models.ConsensusSnapshot
	err      error
}

func (s *mutableSnapshots) Snapshot(hazardID string) (models.ConsensusSnapshot, error) {
	return s.snapshot, s.err
}

func (s *mutableSnapshots) set(value, dispersion float64) {
	s.err = nil
	s.snapshot = models.ConsensusSnapshot{
		HazardID:       "hurricane",
		Tick:           s.snapshot.Tick + 1,
		ConsensusValue: value,
		Dispersion:     dispersion,
		ReadingCount:   3,
		Trusted:        dispersion <= oracle.DefaultVarianceLimit,
	}
}

// flakyLedger delegates to a real in-memory ledger but can be switched to
// fail debits or credits with the collaborator-failure error.
type flakyLedger struct {
	inner      *ledger.MemoryLedger
	failDebit  bool
	failCredit bool
}

func (l *flakyLedger) Debit(ctx context.Context, holderID string, amount float64) error {
	if l.failDebit {
		return ledger.ErrUnavailable
	}
	return l.inner.Debit(ctx, holderID, amount)
}

func (l *flakyLedger) Credit(ctx context.Context, holderID string, amount float64) error {
	if l.failCredit {
		return ledger.ErrUnavailable
	}
	return l.inner.Credit(ctx, holderID, amount)
}

func (l *flakyLedger) BalanceOf(ctx context.Context, holderID string) (float64, error) {
	return l.inner.BalanceOf(ctx, holderID)
}

type lifecycleFixture struct {
	service   *LifecycleService
	store     *repository.MemoryStore
	wallet    *flakyLedger
	snapshots *mutableSnapshots
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	cat, err := catalog.Default()
	assert.NoError(t, err)

	snapshots := &mutableSnapshots{}
	snapshots.set(125, 6)
	wallet := &flakyLedger{inner: ledger.NewMemoryLedger(2500)}
	store := repository.NewMemoryStore()

	service := NewLifecycleService(
		store,
		wallet,
		cat,
		NewClaimValidator(snapshots, oracle.DefaultVarianceLimit),
		NewApplicationValidator(wallet, 80),
	)
	return &lifecycleFixture{service: service, store: store, wallet: wallet, snapshots: snapshots}
}

func (f *lifecycleFixture) activate(t *testing.T) *models.PolicyInstance {
	t.Helper()
	policy, decision, err := f.service.ApplyForPolicy(context.Background(), validApplication())
	assert.NoError(t, err)
	assert.True(t, decision.Approved())
	assert.Equal(t, models.PolicyActive, policy.State)
	return policy
}

func (f *lifecycleFixture) balance(t *testing.T) float64 {
	t.Helper()
	balance, err := f.wallet.BalanceOf(context.Background(), "holder-1")
	assert.NoError(t, err)
	return balance
}

// ============================================================================
// TEST SUITE 1: APPLICATION
// ============================================================================

func TestApplyForPolicy_ApprovedDebitsAndActivates(t *testing.T) {
	f := newLifecycleFixture(t)

	policy := f.activate(t)

	assert.Equal(t, 150.0, policy.PremiumPaid)
	assert.Equal(t, 450.0, policy.CoverageAmount)
	assert.False(t, policy.PurchasedAt.IsZero())
	assert.Equal(t, 2350.0, f.balance(t), "premium must be debited exactly once")
}

func TestApplyForPolicy_RejectedNeverTouchesLedger(t *testing.T) {
	f := newLifecycleFixture(t)
	req := validApplication()
	req.TermsAccepted = false

	policy, decision, err := f.service.ApplyForPolicy(context.Background(), req)

	assert.NoError(t, err, "a rejection is a decision, not an error")
	assert.False(t, decision.Approved())
	assert.Equal(t, models.PolicyRejected, policy.State)
	assert.True(t, policy.State.Terminal())
	assert.Zero(t, policy.PremiumPaid)
	assert.Equal(t, 2500.0, f.balance(t))
}

func TestApplyForPolicy_UnknownHazard(t *testing.T) {
	f := newLifecycleFixture(t)
	req := validApplication()
	req.HazardID = "earthquake"

	_, _, err := f.service.ApplyForPolicy(context.Background(), req)

	assert.ErrorIs(t, err, ErrUnknownHazard)
}

func TestApplyForPolicy_DebitFailureLeavesPolicyApplied(t *testing.T) {
	f := newLifecycleFixture(t)
	f.wallet.failDebit = true

	policy, _, err := f.service.ApplyForPolicy(context.Background(), validApplication())

	assert.ErrorIs(t, err, ledger.ErrUnavailable)
	assert.Equal(t, models.PolicyApplied, policy.State, "ledger failure must not advance policy state")
	assert.Zero(t, policy.PremiumPaid)
}

// ============================================================================
// TEST SUITE 2: CLAIMS
// ============================================================================

func TestFileClaim_ApprovedMovesToClaimApproved(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)
	f.snapshots.set(140, 4)

	updated, decision, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())

	assert.NoError(t, err)
	assert.True(t, decision.Approved())
	assert.Equal(t, models.PolicyClaimApproved, updated.State)
	assert.NotNil(t, updated.Claim)
	assert.Equal(t, 1.0, updated.Claim.PayoutFraction)
	assert.Equal(t, 450.0, updated.Claim.PayoutAmount)
	assert.False(t, updated.Claim.PayoutProcessed)
}

func TestFileClaim_RejectedMovesToClaimRejected(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)
	f.snapshots.set(95, 4)

	updated, decision, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())

	assert.NoError(t, err)
	assert.False(t, decision.Approved())
	assert.Equal(t, models.PolicyClaimRejected, updated.State)
	assert.NotEmpty(t, updated.Claim.RejectionReasons)
}

func TestFileClaim_RefilingAfterRejectionReplacesClaim(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)

	f.snapshots.set(95, 4)
	rejected, _, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyClaimRejected, rejected.State)

	f.snapshots.set(140, 4)
	approved, decision, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())

	assert.NoError(t, err)
	assert.True(t, decision.Approved())
	assert.Equal(t, models.PolicyClaimApproved, approved.State)
	assert.Empty(t, approved.Claim.RejectionReasons, "re-filing replaces the previous claim record")
}

func TestFileClaim_FromIllegalState(t *testing.T) {
	f := newLifecycleFixture(t)
	req := validApplication()
	req.TermsAccepted = false
	rejectedPolicy, _, err := f.service.ApplyForPolicy(context.Background(), req)
	assert.NoError(t, err)

	_, _, err = f.service.FileClaim(context.Background(), rejectedPolicy.ID, suppliedProof())

	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFileClaim_UnknownPolicy(t *testing.T) {
	f := newLifecycleFixture(t)

	_, _, err := f.service.FileClaim(context.Background(), uuid.New(), suppliedProof())

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFileClaim_NoConsensusRejects(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)
	f.snapshots.err = oracle.ErrInsufficientReadings

	updated, decision, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())

	assert.NoError(t, err)
	assert.False(t, decision.Approved())
	assert.Equal(t, models.PolicyClaimRejected, updated.State)
	assert.Equal(t, []string{"no sensor consensus available"}, updated.Claim.RejectionReasons)
}

// ============================================================================
// TEST SUITE 3: PAYOUT
// ============================================================================

func approvedClaimPolicy(t *testing.T, f *lifecycleFixture) *models.PolicyInstance {
	t.Helper()
	policy := f.activate(t)
	f.snapshots.set(140, 4)
	updated, _, err := f.service.FileClaim(context.Background(), policy.ID, suppliedProof())
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyClaimApproved, updated.State)
	return updated
}

func TestProcessPayout_CreditsOnce(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := approvedClaimPolicy(t, f)
	before := f.balance(t)

	settled, err := f.service.ProcessPayout(context.Background(), policy.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.PolicyPayoutProcessed, settled.State)
	assert.True(t, settled.State.Terminal())
	assert.True(t, settled.Claim.PayoutProcessed)
	assert.Equal(t, before+450.0, f.balance(t))
}

func TestProcessPayout_RepeatIsIdempotent(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := approvedClaimPolicy(t, f)

	_, err := f.service.ProcessPayout(context.Background(), policy.ID)
	assert.NoError(t, err)
	after := f.balance(t)

	again, err := f.service.ProcessPayout(context.Background(), policy.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.PolicyPayoutProcessed, again.State)
	assert.Equal(t, after, f.balance(t), "a repeated payout call must not credit twice")
}

func TestProcessPayout_WithoutApprovedClaim(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)

	_, err := f.service.ProcessPayout(context.Background(), policy.ID)

	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestProcessPayout_CreditFailureLeavesClaimApproved(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := approvedClaimPolicy(t, f)
	f.wallet.failCredit = true

	_, err := f.service.ProcessPayout(context.Background(), policy.ID)
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	stored, err := f.service.GetPolicy(context.Background(), policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyClaimApproved, stored.State, "failed credit must not advance policy state")
	assert.False(t, stored.Claim.PayoutProcessed)

	f.wallet.failCredit = false
	settled, err := f.service.ProcessPayout(context.Background(), policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyPayoutProcessed, settled.State)
}

// ============================================================================
// TEST SUITE 4: READ VIEWS
// ============================================================================

func TestListPoliciesByHolder(t *testing.T) {
	f := newLifecycleFixture(t)
	f.activate(t)
	time.Sleep(time.Millisecond)
	f.activate(t)

	policies, err := f.service.ListPoliciesByHolder(context.Background(), "holder-1")

	assert.NoError(t, err)
	assert.Len(t, policies, 2)
	assert.True(t, policies[0].CreatedAt.Before(policies[1].CreatedAt) || policies[0].CreatedAt.Equal(policies[1].CreatedAt))
}

func TestGetPolicy_ReturnsDetachedCopy(t *testing.T) {
	f := newLifecycleFixture(t)
	policy := f.activate(t)

	view, err := f.service.GetPolicy(context.Background(), policy.ID)
	assert.NoError(t, err)
	view.State = models.PolicyPayoutProcessed

	stored, err := f.service.GetPolicy(context.Background(), policy.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PolicyActive, stored.State, "read views must not alias stored state")
}
