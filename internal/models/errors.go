package models

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrUnitNotFound  = errors.New("sellable unit not found")
	// ErrUnitUnavailable means a unit row lock could not be acquired
	// promptly; callers should retry rather than queue.
	ErrUnitUnavailable = errors.New("sellable unit temporarily unavailable")

	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatusTransition covers guarded status updates that matched
	// zero rows: the order left the expected state concurrently.
	ErrInvalidStatusTransition = errors.New("order is not in the expected status")
	ErrOrderNotPaid            = errors.New("order is not paid")
	ErrCartRejected            = errors.New("cart failed validation")

	ErrDuplicatePaymentEvent = errors.New("payment event already recorded")
	ErrOverbooked            = errors.New("unit capacity exceeded at fulfillment")
	ErrTicketNotFound        = errors.New("ticket instance not found")
	ErrTicketNotIssued       = errors.New("ticket instance is not in issued status")
)
