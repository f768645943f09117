package services

import (
	"context"
	"testing"

	"settlement-service/internal/ledger"
	"settlement-service/internal/models"

	"github.com/stretchr/testify/assert"
)

type unavailableLedger struct{}

func (unavailableLedger) Debit(ctx context.Context, holderID string, amount float64) error {
	return ledger.ErrUnavailable
}

func (unavailableLedger) Credit(ctx context.Context, holderID string, amount float64) error {
	return ledger.ErrUnavailable
}

func (unavailableLedger) BalanceOf(ctx context.Context, holderID string) (float64, error) {
	return 0, ledger.ErrUnavailable
}

func validApplication() models.ApplicationRequest {
	return models.ApplicationRequest{
		HazardID:         "hurricane",
		HolderID:         "holder-1",
		DocumentsPresent: true,
		TermsAccepted:    true,
		RiskScore:        20,
	}
}

func TestApplicationValidator_Approved(t *testing.T) {
	validator := NewApplicationValidator(ledger.NewMemoryLedger(2500), 80)

	decision, err := validator.Validate(context.Background(), validApplication(), testHurricane())

	assert.NoError(t, err)
	assert.True(t, decision.Approved())
	assert.Empty(t, decision.Reasons)
}

func TestApplicationValidator_MissingDocuments(t *testing.T) {
	validator := NewApplicationValidator(ledger.NewMemoryLedger(2500), 80)
	req := validApplication()
	req.DocumentsPresent = false

	decision, err := validator.Validate(context.Background(), req, testHurricane())

	assert.NoError(t, err)
	assert.False(t, decision.Approved())
	assert.Equal(t, []string{"missing required documents (Property Deed & Geo-Tag)"}, decision.Reasons)
}

func TestApplicationValidator_InsufficientBalance(t *testing.T) {
	wallet := ledger.NewMemoryLedger(2500)
	wallet.SetBalance("holder-1", 50)
	validator := NewApplicationValidator(wallet, 80)

	decision, err := validator.Validate(context.Background(), validApplication(), testHurricane())

	assert.NoError(t, err)
	assert.False(t, decision.Approved())
	assert.Equal(t, []string{"insufficient balance: 50.00 available, premium is 150.00"}, decision.Reasons)
}

func TestApplicationValidator_TermsNotAccepted(t *testing.T) {
	validator := NewApplicationValidator(ledger.NewMemoryLedger(2500), 80)
	req := validApplication()
	req.TermsAccepted = false

	decision, err := validator.Validate(context.Background(), req, testHurricane())

	assert.NoError(t, err)
	assert.Equal(t, []string{"terms not accepted"}, decision.Reasons)
}

func TestApplicationValidator_RiskScoreAboveCeiling(t *testing.T) {
	validator := NewApplicationValidator(ledger.NewMemoryLedger(2500), 80)
	req := validApplication()
	req.RiskScore = 92

	decision, err := validator.Validate(context.Background(), req, testHurricane())

	assert.NoError(t, err)
	assert.Equal(t, []string{"risk score 92.0 exceeds ceiling 80.0"}, decision.Reasons)
}

func TestApplicationValidator_ReasonsAccumulateInOrder(t *testing.T) {
	wallet := ledger.NewMemoryLedger(2500)
	wallet.SetBalance("holder-1", 10)
	validator := NewApplicationValidator(wallet, 80)

	req := models.ApplicationRequest{HazardID: "hurricane", HolderID: "holder-1", RiskScore: 99}
	decision, err := validator.Validate(context.Background(), req, testHurricane())

	assert.NoError(t, err)
	assert.Equal(t, []string{
		"missing required documents (Property Deed & Geo-Tag)",
		"insufficient balance: 10.00 available, premium is 150.00",
		"terms not accepted",
		"risk score 99.0 exceeds ceiling 80.0",
	}, decision.Reasons)
}

func TestApplicationValidator_LedgerFailureIsAnError(t *testing.T) {
	validator := NewApplicationValidator(unavailableLedger{}, 80)

	_, err := validator.Validate(context.Background(), validApplication(), testHurricane())

	assert.ErrorIs(t, err, ledger.ErrUnavailable, "infrastructure failure must not become a rejection decision")
}
