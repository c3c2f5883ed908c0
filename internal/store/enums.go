package store

// Affiliate status values for User.AffiliateStatus.
// Transitions are one-way: inactive -> active.
const (
	AffiliateStatusInactive = "inactive"
	AffiliateStatusActive   = "active"
)

// Commission status values for Commission.Status.
// Transitions are one-way: pending -> paid.
const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
)

// Lead status values for Lead.Status.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusActivated = "activated"
)
