package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// POLICY INSTANCES AND CLAIMS
// ============================================================================

// ProofDescriptor is the only shape the engine ever sees of uploaded proof
// artifacts. File contents stay behind the proof-submission boundary.
type ProofDescriptor struct {
	Supplied      bool   `json:"supplied"`
	ArtifactCount int    `json:"artifact_count"`
	TotalBytes    int64  `json:"total_bytes"`
	LastObject    string `json:"last_object,omitempty"`
}

// ClaimRecord is the single current claim of a policy. Re-filing after a
// rejection replaces the record; there is no multi-claim history.
type ClaimRecord struct {
	FiledAt          time.Time      `json:"filed_at" db:"filed_at"`
	ProofSupplied    bool           `json:"proof_supplied" db:"proof_supplied"`
	ProofArtifacts   int            `json:"proof_artifacts" db:"proof_artifacts"`
	ProofTotalBytes  int64          `json:"proof_total_bytes" db:"proof_total_bytes"`
	Decision         DecisionStatus `json:"decision" db:"decision"`
	PayoutFraction   float64        `json:"payout_fraction" db:"payout_fraction"`
	PayoutAmount     float64        `json:"payout_amount" db:"payout_amount"`
	RejectionReasons []string       `json:"rejection_reasons" db:"-"`
	PayoutProcessed  bool           `json:"payout_processed" db:"payout_processed"`
}

// PolicyInstance is one purchased (or attempted) policy. Mutated only by the
// lifecycle manager.
type PolicyInstance struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	HazardID       string       `json:"hazard_id" db:"hazard_id"`
	HolderID       string       `json:"holder_id" db:"holder_id"`
	State          PolicyState  `json:"state" db:"state"`
	PremiumPaid    float64      `json:"premium_paid" db:"premium_paid"`
	CoverageAmount float64      `json:"coverage_amount" db:"coverage_amount"`
	PurchasedAt    time.Time    `json:"purchased_at" db:"purchased_at"`
	Claim          *ClaimRecord `json:"claim,omitempty" db:"-"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so read-only views never alias manager-owned state.
func (p *PolicyInstance) Clone() *PolicyInstance {
	cp := *p
	if p.Claim != nil {
		claim := *p.Claim
		claim.RejectionReasons = append([]string(nil), p.Claim.RejectionReasons...)
		cp.Claim = &claim
	}
	return &cp
}
