package models

// ============================================================================
// REQUEST / DECISION MODELS
// ============================================================================

// ApplicationRequest carries everything the application validation engine
// inspects when a holder applies for coverage.
type ApplicationRequest struct {
	HazardID         string  `json:"hazard_id"`
	HolderID         string  `json:"holder_id"`
	DocumentsPresent bool    `json:"documents_present"`
	TermsAccepted    bool    `json:"terms_accepted"`
	RiskScore        float64 `json:"risk_score"`
}

// ApplicationDecision is the normal outcome of application validation.
// A rejection is data, not an error; reasons are ordered and verbatim.
type ApplicationDecision struct {
	Status  DecisionStatus `json:"status"`
	Reasons []string       `json:"reasons"`
}

func (d ApplicationDecision) Approved() bool { return d.Status == DecisionApproved }

// ClaimDecision is the outcome of claim validation. PayoutFraction and
// PayoutAmount are only meaningful when Status is approved.
type ClaimDecision struct {
	Status         DecisionStatus `json:"status"`
	PayoutFraction float64        `json:"payout_fraction"`
	PayoutAmount   float64        `json:"payout_amount"`
	Reasons        []string       `json:"reasons"`
}

func (d ClaimDecision) Approved() bool { return d.Status == DecisionApproved }

// FileClaimRequest is the HTTP body for filing a claim against a policy.
// Proof metadata may come from a prior artifact upload or be declared inline.
type FileClaimRequest struct {
	ProofSupplied  bool  `json:"proof_supplied"`
	ArtifactCount  int   `json:"artifact_count"`
	TotalProofSize int64 `json:"total_proof_size"`
}
