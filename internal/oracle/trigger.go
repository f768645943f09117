package oracle

import "settlement-service/internal/models"

// IsBreached reports whether value crosses the hazard's trigger threshold.
// The comparison is strict: exact equality never breaches.
func IsBreached(hazard *models.HazardConfig, value float64) bool {
	switch hazard.Condition {
	case models.ConditionGreaterThan:
		return value > hazard.Threshold
	case models.ConditionLessThan:
		return value < hazard.Threshold
	default:
		return false
	}
}

// PayoutFraction walks the severity tiers in severity order and returns the
// fraction of the most severe tier the value reaches. Tier limits are
// inclusive: a value exactly at a limit satisfies that tier. Returns 0 when
// no tier is satisfied.
func PayoutFraction(hazard *models.HazardConfig, value float64) float64 {
	fraction := 0.0
	for _, tier := range hazard.SeverityTiers {
		if tierSatisfied(hazard.Condition, tier.Limit, value) {
			fraction = tier.PayoutFraction
		}
	}
	return fraction
}

func tierSatisfied(cond models.HazardCondition, limit, value float64) bool {
	if cond == models.ConditionGreaterThan {
		return value >= limit
	}
	return value <= limit
}
