package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"settlement-service/internal/catalog"
	"settlement-service/internal/ledger"
	"settlement-service/internal/models"
	"settlement-service/internal/repository"

	"github.com/google/uuid"
)

// ErrIllegalTransition is returned when a lifecycle operation is attempted
// against a policy that is not in the required state. No mutation occurs.
var ErrIllegalTransition = errors.New("illegal policy state transition")

// ErrUnknownHazard is returned for applications against hazards missing from
// the catalog.
var ErrUnknownHazard = errors.New("unknown hazard")

// SettlementNotifier receives lifecycle events. Notification failures never
// affect settlement outcomes.
type SettlementNotifier interface {
	NotifyApplicationDecided(ctx context.Context, policy *models.PolicyInstance, decision models.ApplicationDecision)
	NotifyClaimDecided(ctx context.Context, policy *models.PolicyInstance, decision models.ClaimDecision)
	NotifyPayoutProcessed(ctx context.Context, policy *models.PolicyInstance)
}

var legalTransitions = map[models.PolicyState][]models.PolicyState{
	models.PolicyApplied:       {models.PolicyActive, models.PolicyRejected},
	models.PolicyActive:        {models.PolicyClaimFiled},
	models.PolicyClaimFiled:    {models.PolicyClaimApproved, models.PolicyClaimRejected},
	models.PolicyClaimApproved: {models.PolicyPayoutProcessed},
	models.PolicyClaimRejected: {models.PolicyClaimFiled},
}

// LifecycleService owns the policy state machine and its ledger side effects.
// It contains no business rules itself; decisions come from the validators,
// and the service only applies legal transitions. Ledger mutation and state
// transition are one unit: a failed ledger call leaves the prior state.
type LifecycleService struct {
	store    repository.PolicyStore
	ledger   ledger.Ledger
	catalog  *catalog.Catalog
	claims   *ClaimValidator
	apps     *ApplicationValidator
	notifier SettlementNotifier

	// One transition in flight per policy instance.
	locks sync.Map
}

func NewLifecycleService(
	store repository.PolicyStore,
	wallet ledger.Ledger,
	cat *catalog.Catalog,
	claims *ClaimValidator,
	apps *ApplicationValidator,
) *LifecycleService {
	return &LifecycleService{
		store:   store,
		ledger:  wallet,
		catalog: cat,
		claims:  claims,
		apps:    apps,
	}
}

// WithNotifier attaches an optional settlement event sink.
func (s *LifecycleService) WithNotifier(n SettlementNotifier) *LifecycleService {
	s.notifier = n
	return s
}

func (s *LifecycleService) policyLock(id uuid.UUID) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func canTransition(from, to models.PolicyState) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *LifecycleService) transition(policy *models.PolicyInstance, to models.PolicyState) error {
	if !canTransition(policy.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, policy.State, to)
	}
	policy.State = to
	policy.UpdatedAt = time.Now()
	return nil
}

// ApplyForPolicy validates an application and, when approved, debits the base
// premium and activates a new policy instance. Rejected applications are
// recorded in terminal state rejected and never touch the ledger.
func (s *LifecycleService) ApplyForPolicy(ctx context.Context, req models.ApplicationRequest) (*models.PolicyInstance, models.ApplicationDecision, error) {
	hazard := s.catalog.Get(req.HazardID)
	if hazard == nil {
		return nil, models.ApplicationDecision{}, fmt.Errorf("%w: %q", ErrUnknownHazard, req.HazardID)
	}

	decision, err := s.apps.Validate(ctx, req, hazard)
	if err != nil {
		return nil, models.ApplicationDecision{}, err
	}

	now := time.Now()
	policy := &models.PolicyInstance{
		ID:             uuid.New(),
		HazardID:       hazard.ID,
		HolderID:       req.HolderID,
		State:          models.PolicyApplied,
		CoverageAmount: hazard.Coverage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, policy); err != nil {
		return nil, models.ApplicationDecision{}, fmt.Errorf("failed to record application: %w", err)
	}

	if !decision.Approved() {
		if err := s.transition(policy, models.PolicyRejected); err != nil {
			return nil, models.ApplicationDecision{}, err
		}
		if err := s.store.Update(ctx, policy); err != nil {
			return nil, models.ApplicationDecision{}, fmt.Errorf("failed to record rejection: %w", err)
		}
		slog.Info("application rejected", "policy_id", policy.ID, "hazard_id", hazard.ID, "reasons", decision.Reasons)
		s.notifyApplication(ctx, policy, decision)
		return policy.Clone(), decision, nil
	}

	// Debit and activation are one unit: a failed debit leaves the policy in
	// state applied with nothing charged.
	if err := s.ledger.Debit(ctx, req.HolderID, hazard.BasePremium); err != nil {
		return policy.Clone(), decision, fmt.Errorf("premium debit failed: %w", err)
	}
	policy.PremiumPaid = hazard.BasePremium
	policy.PurchasedAt = time.Now()
	if err := s.transition(policy, models.PolicyActive); err != nil {
		return nil, models.ApplicationDecision{}, err
	}
	if err := s.store.Update(ctx, policy); err != nil {
		return nil, models.ApplicationDecision{}, fmt.Errorf("failed to activate policy: %w", err)
	}

	slog.Info("policy activated", "policy_id", policy.ID, "hazard_id", hazard.ID, "holder_id", req.HolderID, "premium", hazard.BasePremium)
	s.notifyApplication(ctx, policy, decision)
	return policy.Clone(), decision, nil
}

// FileClaim runs claim validation for a policy in state active (or
// claim_rejected, which may re-file). The previous rejected claim record is
// replaced; a policy holds one current claim.
func (s *LifecycleService) FileClaim(ctx context.Context, policyID uuid.UUID, proof models.ProofDescriptor) (*models.PolicyInstance, models.ClaimDecision, error) {
	lock := s.policyLock(policyID)
	lock.Lock()
	defer lock.Unlock()

	policy, err := s.store.GetByID(ctx, policyID)
	if err != nil {
		return nil, models.ClaimDecision{}, err
	}
	hazard := s.catalog.Get(policy.HazardID)
	if hazard == nil {
		return nil, models.ClaimDecision{}, fmt.Errorf("%w: %q", ErrUnknownHazard, policy.HazardID)
	}

	if err := s.transition(policy, models.PolicyClaimFiled); err != nil {
		return nil, models.ClaimDecision{}, err
	}

	filedAt := time.Now()
	claim := &models.ClaimRecord{
		FiledAt:         filedAt,
		ProofSupplied:   proof.Supplied,
		ProofArtifacts:  proof.ArtifactCount,
		ProofTotalBytes: proof.TotalBytes,
	}

	decision, snapshot := s.claims.Validate(policy, hazard, proof, filedAt)
	claim.Decision = decision.Status
	claim.PayoutFraction = decision.PayoutFraction
	claim.PayoutAmount = decision.PayoutAmount
	claim.RejectionReasons = decision.Reasons
	policy.Claim = claim

	next := models.PolicyClaimRejected
	if decision.Approved() {
		next = models.PolicyClaimApproved
	}
	if err := s.transition(policy, next); err != nil {
		return nil, models.ClaimDecision{}, err
	}
	if err := s.store.Update(ctx, policy); err != nil {
		return nil, models.ClaimDecision{}, fmt.Errorf("failed to record claim decision: %w", err)
	}

	slog.Info("claim decided",
		"policy_id", policy.ID,
		"hazard_id", hazard.ID,
		"decision", decision.Status,
		"consensus_value", snapshot.ConsensusValue,
		"dispersion", snapshot.Dispersion,
		"payout_amount", decision.PayoutAmount,
		"reasons", decision.Reasons)
	if s.notifier != nil {
		s.notifier.NotifyClaimDecided(ctx, policy.Clone(), decision)
	}
	return policy.Clone(), decision, nil
}

// ProcessPayout credits the approved payout to the holder exactly once.
// Re-invoking it after the payout has been processed is a no-op; any other
// state fails with ErrIllegalTransition and performs no mutation.
func (s *LifecycleService) ProcessPayout(ctx context.Context, policyID uuid.UUID) (*models.PolicyInstance, error) {
	lock := s.policyLock(policyID)
	lock.Lock()
	defer lock.Unlock()

	policy, err := s.store.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}

	if policy.State == models.PolicyPayoutProcessed && policy.Claim != nil && policy.Claim.PayoutProcessed {
		return policy.Clone(), nil
	}
	if policy.State != models.PolicyClaimApproved || policy.Claim == nil {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, policy.State, models.PolicyPayoutProcessed)
	}

	if err := s.ledger.Credit(ctx, policy.HolderID, policy.Claim.PayoutAmount); err != nil {
		return nil, fmt.Errorf("payout credit failed: %w", err)
	}
	policy.Claim.PayoutProcessed = true
	if err := s.transition(policy, models.PolicyPayoutProcessed); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	slog.Info("payout processed",
		"policy_id", policy.ID,
		"holder_id", policy.HolderID,
		"payout_amount", policy.Claim.PayoutAmount)
	if s.notifier != nil {
		s.notifier.NotifyPayoutProcessed(ctx, policy.Clone())
	}
	return policy.Clone(), nil
}

// GetPolicy returns a read-only copy of one policy instance.
func (s *LifecycleService) GetPolicy(ctx context.Context, policyID uuid.UUID) (*models.PolicyInstance, error) {
	return s.store.GetByID(ctx, policyID)
}

// ListPoliciesByHolder returns read-only copies of a holder's policies.
func (s *LifecycleService) ListPoliciesByHolder(ctx context.Context, holderID string) ([]models.PolicyInstance, error) {
	return s.store.ListByHolder(ctx, holderID)
}

func (s *LifecycleService) notifyApplication(ctx context.Context, policy *models.PolicyInstance, decision models.ApplicationDecision) {
	if s.notifier != nil {
		s.notifier.NotifyApplicationDecided(ctx, policy.Clone(), decision)
	}
}
