package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"settlement-service/internal/models"
)

// Catalog is the read-only registry of insurable hazards. Loaded once at
// startup; requires no synchronization afterwards.
type Catalog struct {
	hazards map[string]*models.HazardConfig
}

// Default returns the built-in hazard catalog.
func Default() (*Catalog, error) {
	return New(builtinHazards())
}

// New builds a catalog from the given configs, validating each one.
func New(hazards []models.HazardConfig) (*Catalog, error) {
	c := &Catalog{hazards: make(map[string]*models.HazardConfig, len(hazards))}
	for i := range hazards {
		h := hazards[i]
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("invalid hazard config: %w", err)
		}
		if _, dup := c.hazards[h.ID]; dup {
			return nil, fmt.Errorf("duplicate hazard id %q", h.ID)
		}
		c.hazards[h.ID] = &h
	}
	if len(c.hazards) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// LoadFile reads a JSON array of hazard configs, replacing the built-ins.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var hazards []models.HazardConfig
	if err := json.Unmarshal(raw, &hazards); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return New(hazards)
}

// Get returns the hazard config for id, or nil when unknown.
func (c *Catalog) Get(id string) *models.HazardConfig {
	return c.hazards[id]
}

// All returns every hazard config sorted by id.
func (c *Catalog) All() []*models.HazardConfig {
	out := make([]*models.HazardConfig, 0, len(c.hazards))
	for _, h := range c.hazards {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func builtinHazards() []models.HazardConfig {
	return []models.HazardConfig{
		{
			ID:        "hurricane",
			Name:      "Hurricane Guard",
			Category:  models.CategoryNatCat,
			Unit:      "mph",
			Condition: models.ConditionGreaterThan,
			Threshold: 100,
			SeverityTiers: []models.SeverityTier{
				{Limit: 100, PayoutFraction: 0},
				{Limit: 110, PayoutFraction: 0.5},
				{Limit: 130, PayoutFraction: 1.0},
			},
			BasePremium:   150,
			Coverage:      450,
			RequiredProof: "Property Deed & Geo-Tag",
			AgentRoles:    []string{"noaa-scout", "sat-verifier", "news-bot"},
		},
		{
			ID:        "flight",
			Name:      "Flight Delay",
			Category:  models.CategoryTravel,
			Unit:      "min",
			Condition: models.ConditionGreaterThan,
			Threshold: 120,
			SeverityTiers: []models.SeverityTier{
				{Limit: 120, PayoutFraction: 0},
				{Limit: 180, PayoutFraction: 0.5},
				{Limit: 240, PayoutFraction: 1.0},
			},
			BasePremium:   40,
			Coverage:      200,
			RequiredProof: "Boarding Pass Hash",
			AgentRoles:    []string{"flightaware", "atc-net", "iata-bot"},
		},
		{
			ID:        "crop",
			Name:      "Agri-Drought",
			Category:  models.CategoryAgri,
			Unit:      "mm",
			Condition: models.ConditionLessThan,
			Threshold: 30,
			SeverityTiers: []models.SeverityTier{
				{Limit: 30, PayoutFraction: 0},
				{Limit: 15, PayoutFraction: 0.5},
				{Limit: 5, PayoutFraction: 1.0},
			},
			BasePremium:   90,
			Coverage:      600,
			RequiredProof: "Soil IoT Logs",
			AgentRoles:    []string{"soil-sense", "sat-image", "met-office"},
		},
		{
			ID:        "health",
			Name:      "Vital Monitor",
			Category:  models.CategoryHealth,
			Unit:      "bpm",
			Condition: models.ConditionGreaterThan,
			Threshold: 160,
			SeverityTiers: []models.SeverityTier{
				{Limit: 160, PayoutFraction: 0},
				{Limit: 180, PayoutFraction: 1.0},
			},
			BasePremium:   60,
			Coverage:      300,
			RequiredProof: "Medical Report",
			AgentRoles:    []string{"wearable", "hospital-db"},
		},
		{
			ID:        "gold",
			Name:      "Collateral Peg",
			Category:  models.CategoryDeFi,
			Unit:      "USD",
			Condition: models.ConditionLessThan,
			Threshold: 2000,
			SeverityTiers: []models.SeverityTier{
				{Limit: 2000, PayoutFraction: 0},
				{Limit: 1800, PayoutFraction: 1.0},
			},
			BasePremium:   120,
			Coverage:      1000,
			RequiredProof: "Custody Sig",
			AgentRoles:    []string{"chainlink", "binance"},
		},
	}
}
