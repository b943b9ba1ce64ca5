package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")

	ErrInvalidRateConfig = errors.New("invalid rate configuration")

	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrPaymentRejected     = errors.New("payment rejected")

	ErrAddressNotOwned      = errors.New("address does not belong to buyer")
	ErrQuoteExpired         = errors.New("shipping quote expired")
	ErrIntentNotConfirmed   = errors.New("payment intent not confirmed")
	ErrTrackingCodeRequired = errors.New("tracking code required")

	ErrNotEnoughBalance   = errors.New("not enough balance")
	ErrBelowMinWithdrawal = errors.New("amount below minimal withdrawal")
)

// RateConfigError describes a single invalid fee schedule field. Unwraps to
// ErrInvalidRateConfig so callers can fail checkout closed without inspecting
// the field.
type RateConfigError struct {
	Field  string
	Reason string
}

func (e *RateConfigError) Error() string {
	return fmt.Sprintf("invalid rate configuration: %s: %s", e.Field, e.Reason)
}

func (e *RateConfigError) Unwrap() error {
	return ErrInvalidRateConfig
}

// IllegalTransitionError is returned for any status edge missing from the
// transition table.
type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// StaleTransitionError is returned when a legal transition lost the
// compare-and-set race: the order no longer is in the status the request
// observed.
type StaleTransitionError struct {
	OrderID  int64
	Expected OrderStatus
}

func (e *StaleTransitionError) Error() string {
	return fmt.Sprintf("stale transition for order %d: status is no longer %s", e.OrderID, e.Expected)
}
