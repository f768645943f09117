package models

type HazardCondition string

const (
	ConditionGreaterThan HazardCondition = ">"
	ConditionLessThan    HazardCondition = "<"
)

type HazardCategory string

const (
	CategoryNatCat HazardCategory = "nat-cat"
	CategoryTravel HazardCategory = "travel"
	CategoryAgri   HazardCategory = "agri"
	CategoryHealth HazardCategory = "health"
	CategoryDeFi   HazardCategory = "defi"
)

type PolicyState string

const (
	PolicyApplied         PolicyState = "applied"
	PolicyRejected        PolicyState = "rejected"
	PolicyActive          PolicyState = "active"
	PolicyClaimFiled      PolicyState = "claim_filed"
	PolicyClaimApproved   PolicyState = "claim_approved"
	PolicyClaimRejected   PolicyState = "claim_rejected"
	PolicyPayoutProcessed PolicyState = "payout_processed"
)

// Terminal reports whether a policy can leave this state.
func (s PolicyState) Terminal() bool {
	return s == PolicyRejected || s == PolicyPayoutProcessed
}

type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
)
