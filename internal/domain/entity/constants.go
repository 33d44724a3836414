package entity

// Project status constants
const (
	ProjectStatusActive   = "ACTIVE"
	ProjectStatusClosed   = "CLOSED"
	ProjectStatusArchived = "ARCHIVED"
)

// Stage history action constants
const (
	ActionCreated  = "CREATED"
	ActionAdvanced = "ADVANCED"
	ActionReturned = "RETURNED"
)

// Default currency for contracts created without one
const DefaultCurrency = "USD"
