package catalog

import (
	"testing"

	"settlement-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func validHazard() models.HazardConfig {
	return models.HazardConfig{
		ID:        "storm",
		Name:      "Storm Cover",
		Category:  models.CategoryNatCat,
		Unit:      "mph",
		Condition: models.ConditionGreaterThan,
		Threshold: 80,
		SeverityTiers: []models.SeverityTier{
			{Limit: 80, PayoutFraction: 0},
			{Limit: 100, PayoutFraction: 1.0},
		},
		BasePremium:   50,
		Coverage:      300,
		RequiredProof: "Photo Evidence",
		AgentRoles:    []string{"sensor-a", "sensor-b"},
	}
}

func TestDefault_ContainsBuiltinHazards(t *testing.T) {
	cat, err := Default()

	assert.NoError(t, err)
	assert.Len(t, cat.All(), 5)
	for _, id := range []string{"hurricane", "flight", "crop", "health", "gold"} {
		assert.NotNil(t, cat.Get(id), "builtin hazard %s missing", id)
	}
}

func TestDefault_BuiltinConfigsAreValid(t *testing.T) {
	cat, err := Default()
	assert.NoError(t, err)

	for _, h := range cat.All() {
		assert.NoError(t, h.Validate(), "hazard %s", h.ID)
	}
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := New([]models.HazardConfig{validHazard(), validHazard()})

	assert.ErrorContains(t, err, "duplicate hazard id")
}

func TestNew_RejectsEmptyCatalog(t *testing.T) {
	_, err := New(nil)

	assert.Error(t, err)
}

func TestNew_RejectsDecreasingPayoutFractions(t *testing.T) {
	hazard := validHazard()
	hazard.SeverityTiers = []models.SeverityTier{
		{Limit: 80, PayoutFraction: 0.5},
		{Limit: 100, PayoutFraction: 0.2},
	}

	_, err := New([]models.HazardConfig{hazard})
	assert.ErrorContains(t, err, "payout fraction decreases")
}

func TestNew_RejectsMisorderedTierLimits(t *testing.T) {
	hazard := validHazard()
	hazard.SeverityTiers = []models.SeverityTier{
		{Limit: 100, PayoutFraction: 0},
		{Limit: 80, PayoutFraction: 1.0},
	}

	_, err := New([]models.HazardConfig{hazard})
	assert.ErrorContains(t, err, "not strictly increasing")
}

func TestAll_SortedByID(t *testing.T) {
	cat, err := Default()
	assert.NoError(t, err)

	hazards := cat.All()
	for i := 1; i < len(hazards); i++ {
		assert.Less(t, hazards[i-1].ID, hazards[i].ID)
	}
}

func TestGet_UnknownHazardIsNil(t *testing.T) {
	cat, err := Default()
	assert.NoError(t, err)

	assert.Nil(t, cat.Get("earthquake"))
}
