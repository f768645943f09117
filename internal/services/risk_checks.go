package services

import (
	"fmt"
	"time"

	"settlement-service/internal/models"
)

// RiskCheck is an injectable supplementary heuristic run after the core claim
// rules. Checks must be deterministic over their inputs and must name
// themselves in every reason they add; they never silently tip a decision.
type RiskCheck interface {
	Name() string
	Evaluate(policy *models.PolicyInstance, hazard *models.HazardConfig, snapshot models.ConsensusSnapshot, filedAt time.Time) []string
}

// TimingPlausibilityCheck flags claims filed implausibly soon after the
// policy was purchased.
type TimingPlausibilityCheck struct {
	MinHolding time.Duration
}

func (c TimingPlausibilityCheck) Name() string { return "timing-plausibility" }

func (c TimingPlausibilityCheck) Evaluate(policy *models.PolicyInstance, hazard *models.HazardConfig, snapshot models.ConsensusSnapshot, filedAt time.Time) []string {
	held := filedAt.Sub(policy.PurchasedAt)
	if held >= c.MinHolding {
		return nil
	}
	return []string{fmt.Sprintf("%s: claim filed %s after purchase, minimum holding period is %s",
		c.Name(), held.Round(time.Second), c.MinHolding)}
}
