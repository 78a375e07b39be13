package models

// Stable machine-readable codes surfaced by the checkout entrypoints.
// These are part of the public API contract and must not be renamed.
const (
	CodeMissingEventID         = "MISSING_EVENT_ID"
	CodeMissingEmail           = "MISSING_EMAIL"
	CodeNoItems                = "NO_ITEMS"
	CodeEventNotFound          = "EVENT_NOT_FOUND"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeSalesNotStarted        = "SALES_NOT_STARTED"
	CodeSalesEnded             = "SALES_ENDED"
	CodeExceedsMaxPerOrder     = "EXCEEDS_MAX_PER_ORDER"
	CodeRestrictionNotMet      = "RESTRICTION_NOT_MET"
	CodeInsufficientCapacity   = "INSUFFICIENT_CAPACITY"
	CodeTemporarilyUnavailable = "TEMPORARILY_UNAVAILABLE"
	CodeOrderNotPaid           = "ORDER_NOT_PAID"
)
