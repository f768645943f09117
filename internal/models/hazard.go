package models

import "fmt"

// ============================================================================
// HAZARD CONFIGURATION (STATIC CATALOG)
// ============================================================================

// SeverityTier is one step of a piecewise payout curve. Tiers are ordered by
// increasing severity in the direction of the hazard condition.
type SeverityTier struct {
	Limit          float64 `json:"limit" db:"limit"`
	PayoutFraction float64 `json:"payout_fraction" db:"payout_fraction"`
}

// HazardConfig describes one insurable hazard product. Immutable after load
// and shared by every policy instance of that hazard type.
type HazardConfig struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      HazardCategory  `json:"category"`
	Unit          string          `json:"unit"`
	Condition     HazardCondition `json:"condition"`
	Threshold     float64         `json:"threshold"`
	SeverityTiers []SeverityTier  `json:"severity_tiers"`
	BasePremium   float64         `json:"base_premium"`
	Coverage      float64         `json:"coverage"`
	RequiredProof string          `json:"required_proof"`
	AgentRoles    []string        `json:"agent_roles"`
}

// Validate checks the structural invariants of a hazard config: tier limits
// strictly ordered toward severity, payout fractions non-decreasing in [0,1].
func (h *HazardConfig) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("hazard missing id")
	}
	if h.Condition != ConditionGreaterThan && h.Condition != ConditionLessThan {
		return fmt.Errorf("hazard %s: unknown condition %q", h.ID, h.Condition)
	}
	if h.Threshold <= 0 {
		return fmt.Errorf("hazard %s: threshold must be positive, got %v", h.ID, h.Threshold)
	}
	if len(h.SeverityTiers) == 0 {
		return fmt.Errorf("hazard %s: at least one severity tier required", h.ID)
	}
	if h.BasePremium < 0 || h.Coverage <= 0 {
		return fmt.Errorf("hazard %s: invalid premium/coverage (%v, %v)", h.ID, h.BasePremium, h.Coverage)
	}
	if len(h.AgentRoles) == 0 {
		return fmt.Errorf("hazard %s: no agent roles configured", h.ID)
	}
	for i, tier := range h.SeverityTiers {
		if tier.PayoutFraction < 0 || tier.PayoutFraction > 1 {
			return fmt.Errorf("hazard %s: tier %d payout fraction %v outside [0,1]", h.ID, i, tier.PayoutFraction)
		}
		if i == 0 {
			continue
		}
		prev := h.SeverityTiers[i-1]
		if tier.PayoutFraction < prev.PayoutFraction {
			return fmt.Errorf("hazard %s: tier %d payout fraction decreases (%v < %v)", h.ID, i, tier.PayoutFraction, prev.PayoutFraction)
		}
		// Severity direction: limits grow for ">" hazards, shrink for "<".
		if h.Condition == ConditionGreaterThan && tier.Limit <= prev.Limit {
			return fmt.Errorf("hazard %s: tier %d limit %v not strictly increasing", h.ID, i, tier.Limit)
		}
		if h.Condition == ConditionLessThan && tier.Limit >= prev.Limit {
			return fmt.Errorf("hazard %s: tier %d limit %v not strictly decreasing", h.ID, i, tier.Limit)
		}
	}
	return nil
}
