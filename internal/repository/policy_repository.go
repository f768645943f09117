package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"settlement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PolicyRepository is the PostgreSQL-backed PolicyStore. The claim record is
// embedded as nullable columns on the policy row since a policy holds at most
// one current claim.
type PolicyRepository struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

type policyRow struct {
	ID             uuid.UUID          `db:"id"`
	HazardID       string             `db:"hazard_id"`
	HolderID       string             `db:"holder_id"`
	State          models.PolicyState `db:"state"`
	PremiumPaid    float64            `db:"premium_paid"`
	CoverageAmount float64            `db:"coverage_amount"`
	PurchasedAt    time.Time          `db:"purchased_at"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`

	ClaimFiledAt         sql.NullTime    `db:"claim_filed_at"`
	ClaimProofSupplied   sql.NullBool    `db:"claim_proof_supplied"`
	ClaimProofArtifacts  sql.NullInt64   `db:"claim_proof_artifacts"`
	ClaimProofTotalBytes sql.NullInt64   `db:"claim_proof_total_bytes"`
	ClaimDecision        sql.NullString  `db:"claim_decision"`
	ClaimPayoutFraction  sql.NullFloat64 `db:"claim_payout_fraction"`
	ClaimPayoutAmount    sql.NullFloat64 `db:"claim_payout_amount"`
	ClaimReasons         []byte          `db:"claim_rejection_reasons"`
	ClaimPayoutProcessed sql.NullBool    `db:"claim_payout_processed"`
}

const policyColumns = `
	id, hazard_id, holder_id, state, premium_paid, coverage_amount,
	purchased_at, created_at, updated_at,
	claim_filed_at, claim_proof_supplied, claim_proof_artifacts,
	claim_proof_total_bytes, claim_decision, claim_payout_fraction,
	claim_payout_amount, claim_rejection_reasons, claim_payout_processed`

func (r *PolicyRepository) Create(ctx context.Context, policy *models.PolicyInstance) error {
	row, err := toRow(policy)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO policy_instances (` + policyColumns + `)
		VALUES (:id, :hazard_id, :holder_id, :state, :premium_paid, :coverage_amount,
			:purchased_at, :created_at, :updated_at,
			:claim_filed_at, :claim_proof_supplied, :claim_proof_artifacts,
			:claim_proof_total_bytes, :claim_decision, :claim_payout_fraction,
			:claim_payout_amount, :claim_rejection_reasons, :claim_payout_processed)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create policy %s: %w", policy.ID, err)
	}
	return nil
}

func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyInstance, error) {
	var row policyRow
	query := `SELECT ` + policyColumns + ` FROM policy_instances WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get policy %s: %w", id, err)
	}
	return fromRow(&row)
}

func (r *PolicyRepository) Update(ctx context.Context, policy *models.PolicyInstance) error {
	row, err := toRow(policy)
	if err != nil {
		return err
	}
	query := `
		UPDATE policy_instances SET
			state = :state,
			premium_paid = :premium_paid,
			updated_at = :updated_at,
			claim_filed_at = :claim_filed_at,
			claim_proof_supplied = :claim_proof_supplied,
			claim_proof_artifacts = :claim_proof_artifacts,
			claim_proof_total_bytes = :claim_proof_total_bytes,
			claim_decision = :claim_decision,
			claim_payout_fraction = :claim_payout_fraction,
			claim_payout_amount = :claim_payout_amount,
			claim_rejection_reasons = :claim_rejection_reasons,
			claim_payout_processed = :claim_payout_processed
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update policy %s: %w", policy.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PolicyRepository) ListByHolder(ctx context.Context, holderID string) ([]models.PolicyInstance, error) {
	var rows []policyRow
	query := `SELECT ` + policyColumns + ` FROM policy_instances WHERE holder_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, holderID); err != nil {
		return nil, fmt.Errorf("failed to list policies for holder %s: %w", holderID, err)
	}
	out := make([]models.PolicyInstance, 0, len(rows))
	for i := range rows {
		policy, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *policy)
	}
	return out, nil
}

func toRow(policy *models.PolicyInstance) (*policyRow, error) {
	row := &policyRow{
		ID:             policy.ID,
		HazardID:       policy.HazardID,
		HolderID:       policy.HolderID,
		State:          policy.State,
		PremiumPaid:    policy.PremiumPaid,
		CoverageAmount: policy.CoverageAmount,
		PurchasedAt:    policy.PurchasedAt,
		CreatedAt:      policy.CreatedAt,
		UpdatedAt:      policy.UpdatedAt,
	}
	if claim := policy.Claim; claim != nil {
		reasons, err := json.Marshal(claim.RejectionReasons)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rejection reasons: %w", err)
		}
		row.ClaimFiledAt = sql.NullTime{Time: claim.FiledAt, Valid: true}
		row.ClaimProofSupplied = sql.NullBool{Bool: claim.ProofSupplied, Valid: true}
		row.ClaimProofArtifacts = sql.NullInt64{Int64: int64(claim.ProofArtifacts), Valid: true}
		row.ClaimProofTotalBytes = sql.NullInt64{Int64: claim.ProofTotalBytes, Valid: true}
		row.ClaimDecision = sql.NullString{String: string(claim.Decision), Valid: true}
		row.ClaimPayoutFraction = sql.NullFloat64{Float64: claim.PayoutFraction, Valid: true}
		row.ClaimPayoutAmount = sql.NullFloat64{Float64: claim.PayoutAmount, Valid: true}
		row.ClaimReasons = reasons
		row.ClaimPayoutProcessed = sql.NullBool{Bool: claim.PayoutProcessed, Valid: true}
	}
	return row, nil
}

func fromRow(row *policyRow) (*models.PolicyInstance, error) {
	policy := &models.PolicyInstance{
		ID:             row.ID,
		HazardID:       row.HazardID,
		HolderID:       row.HolderID,
		State:          row.State,
		PremiumPaid:    row.PremiumPaid,
		CoverageAmount: row.CoverageAmount,
		PurchasedAt:    row.PurchasedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.ClaimFiledAt.Valid {
		claim := &models.ClaimRecord{
			FiledAt:         row.ClaimFiledAt.Time,
			ProofSupplied:   row.ClaimProofSupplied.Bool,
			ProofArtifacts:  int(row.ClaimProofArtifacts.Int64),
			ProofTotalBytes: row.ClaimProofTotalBytes.Int64,
			Decision:        models.DecisionStatus(row.ClaimDecision.String),
			PayoutFraction:  row.ClaimPayoutFraction.Float64,
			PayoutAmount:    row.ClaimPayoutAmount.Float64,
			PayoutProcessed: row.ClaimPayoutProcessed.Bool,
		}
		if len(row.ClaimReasons) > 0 {
			if err := json.Unmarshal(row.ClaimReasons, &claim.RejectionReasons); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rejection reasons for policy %s: %w", row.ID, err)
			}
		}
		policy.Claim = claim
	}
	return policy, nil
}
