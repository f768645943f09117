package services

import (
	"fmt"
	"time"

	"settlement-service/internal/models"
	"settlement-service/internal/oracle"
)

// SnapshotSource yields the latest consensus snapshot for a hazard. The
// oracle board implements it; tests substitute fixed snapshots.
type SnapshotSource interface {
	Snapshot(hazardID string) (models.ConsensusSnapshot, error)
}

// ClaimValidator runs the claim rule pass. Rejection reasons accumulate in a
// fixed order and are surfaced verbatim; an empty list means approval.
type ClaimValidator struct {
	snapshots     SnapshotSource
	varianceLimit float64
	checks        []RiskCheck
}

// NewClaimValidator builds a validator with no supplementary risk checks.
func NewClaimValidator(snapshots SnapshotSource, varianceLimit float64) *ClaimValidator {
	return &ClaimValidator{snapshots: snapshots, varianceLimit: varianceLimit}
}

// WithRiskChecks adds supplementary checks; they are advisory heuristics and
// each one names itself in any reason it contributes.
func (v *ClaimValidator) WithRiskChecks(checks ...RiskCheck) *ClaimValidator {
	v.checks = append(v.checks, checks...)
	return v
}

// Validate evaluates one claim against the latest consensus snapshot and
// returns the decision plus the snapshot it was decided on. The snapshot is
// read once; readings arriving mid-validation never affect this decision.
func (v *ClaimValidator) Validate(policy *models.PolicyInstance, hazard *models.HazardConfig, proof models.ProofDescriptor, filedAt time.Time) (models.ClaimDecision, models.ConsensusSnapshot) {
	var reasons []string

	if !proof.Supplied {
		reasons = append(reasons, "missing proof of loss")
	}

	snapshot, err := v.snapshots.Snapshot(hazard.ID)
	if err != nil {
		// Fail closed: a claim is never approved without sensor data.
		reasons = append(reasons, "no sensor consensus available")
		return rejected(reasons), models.ConsensusSnapshot{}
	}

	if !oracle.IsBreached(hazard, snapshot.ConsensusValue) {
		direction := "below"
		if hazard.Condition == models.ConditionLessThan {
			direction = "above"
		}
		reasons = append(reasons, fmt.Sprintf("measured value %.1f %s %s threshold %.1f %s",
			snapshot.ConsensusValue, hazard.Unit, direction, hazard.Threshold, hazard.Unit))
	}

	if snapshot.Dispersion > v.varianceLimit {
		reasons = append(reasons, fmt.Sprintf("reading dispersion %.1f %s exceeds variance limit %.1f %s",
			snapshot.Dispersion, hazard.Unit, v.varianceLimit, hazard.Unit))
	}

	for _, check := range v.checks {
		reasons = append(reasons, check.Evaluate(policy, hazard, snapshot, filedAt)...)
	}

	if len(reasons) > 0 {
		return rejected(reasons), snapshot
	}

	fraction := oracle.PayoutFraction(hazard, snapshot.ConsensusValue)
	return models.ClaimDecision{
		Status:         models.DecisionApproved,
		PayoutFraction: fraction,
		PayoutAmount:   policy.CoverageAmount * fraction,
	}, snapshot
}

func rejected(reasons []string) models.ClaimDecision {
	return models.ClaimDecision{
		Status:  models.DecisionRejected,
		Reasons: reasons,
	}
}
