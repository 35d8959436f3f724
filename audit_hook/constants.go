package audithook

// Action constants for audit events.
const (
	// Schedule actions
	ActionScheduleCreated  = "schedule.created"
	ActionScheduleReplaced = "schedule.replaced"
	ActionScheduleRemoved  = "schedule.removed"

	// Funding actions
	ActionDepositCredited = "deposit.credited"

	// Settlement actions
	ActionClaimRequested    = "claim.requested"
	ActionClaimSettled      = "claim.settled"
	ActionClaimRolledBack   = "claim.rolled_back"
	ActionPaymentRequested  = "payment.requested"
	ActionPaymentSettled    = "payment.settled"
	ActionPaymentRolledBack = "payment.rolled_back"

	// Access actions
	ActionAdministratorChanged = "administrator.changed"
	ActionCallRejected         = "call.rejected"
)

// Resource constants for audit events.
const (
	ResourceSchedule = "schedule"
	ResourceDeposit  = "deposit"
	ResourceClaim    = "claim"
	ResourcePayment  = "payment"
	ResourcePool     = "pool"
)

// Category constants for audit events.
const (
	CategorySchedule   = "schedule"
	CategoryFunding    = "funding"
	CategorySettlement = "settlement"
	CategoryAccess     = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
