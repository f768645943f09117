package event

import "time"

// SettlementQueue is the durable queue settlement events are published to.
const SettlementQueue = "settlement_events"

type SettlementEventType string

const (
	EventApplicationDecided SettlementEventType = "application_decided"
	EventClaimDecided       SettlementEventType = "claim_decided"
	EventPayoutProcessed    SettlementEventType = "payout_processed"
)

// SettlementEvent is the wire model for downstream consumers (notification,
// reporting). Reasons are carried verbatim so consumers never re-derive them.
type SettlementEvent struct {
	Type         SettlementEventType `json:"type"`
	PolicyID     string              `json:"policy_id"`
	HazardID     string              `json:"hazard_id"`
	HolderID     string              `json:"holder_id"`
	State        string              `json:"state"`
	Decision     string              `json:"decision,omitempty"`
	Reasons      []string            `json:"reasons,omitempty"`
	PayoutAmount float64             `json:"payout_amount,omitempty"`
	OccurredAt   time.Time           `json:"occurred_at"`
}
