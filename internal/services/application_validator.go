package services

import (
	"context"
	"fmt"

	"settlement-service/internal/ledger"
	"settlement-service/internal/models"
)

// ApplicationValidator runs the onboarding rule pass. Like claim validation,
// a rejection is a decision with reasons, not an error; only a failing ledger
// read surfaces as an error.
type ApplicationValidator struct {
	ledger      ledger.Ledger
	riskCeiling float64
}

func NewApplicationValidator(wallet ledger.Ledger, riskCeiling float64) *ApplicationValidator {
	return &ApplicationValidator{ledger: wallet, riskCeiling: riskCeiling}
}

func (v *ApplicationValidator) Validate(ctx context.Context, req models.ApplicationRequest, hazard *models.HazardConfig) (models.ApplicationDecision, error) {
	var reasons []string

	if !req.DocumentsPresent {
		reasons = append(reasons, fmt.Sprintf("missing required documents (%s)", hazard.RequiredProof))
	}

	balance, err := v.ledger.BalanceOf(ctx, req.HolderID)
	if err != nil {
		return models.ApplicationDecision{}, fmt.Errorf("failed to read holder balance: %w", err)
	}
	if balance < hazard.BasePremium {
		reasons = append(reasons, fmt.Sprintf("insufficient balance: %.2f available, premium is %.2f", balance, hazard.BasePremium))
	}

	if !req.TermsAccepted {
		reasons = append(reasons, "terms not accepted")
	}

	if req.RiskScore > v.riskCeiling {
		reasons = append(reasons, fmt.Sprintf("risk score %.1f exceeds ceiling %.1f", req.RiskScore, v.riskCeiling))
	}

	if len(reasons) > 0 {
		return models.ApplicationDecision{Status: models.DecisionRejected, Reasons: reasons}, nil
	}
	return models.ApplicationDecision{Status: models.DecisionApproved}, nil
}
