// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrMarketClosed       = errors.New("market is closed")
	ErrStaleFeed          = errors.New("live feed is stale")
	ErrFeedNotConnected   = errors.New("live feed not connected")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrInvalidTransition  = errors.New("invalid trade status transition")
	ErrRequestSuperseded  = errors.New("request superseded")
	ErrNoQuote            = errors.New("no live quote received")
)

// ValidationCode identifies which validation rule an order intent broke.
type ValidationCode string

const (
	InvalidStoploss ValidationCode = "INVALID_STOPLOSS"
	InvalidTarget   ValidationCode = "INVALID_TARGET"
	InvalidQuantity ValidationCode = "INVALID_QUANTITY"
	InvalidValidity ValidationCode = "INVALID_VALIDITY"
	InvalidPrice    ValidationCode = "INVALID_PRICE"
	InvalidField    ValidationCode = "INVALID_FIELD"
)

// ValidationError represents a validation error on a single intent field.
// Validation errors are recoverable and never reach the network layer.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s] %s (%v): %s", e.Code, e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(code ValidationCode, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Code:    code,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors collects every rule an intent broke so the caller can
// surface all of them inline at once.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d validation errors (first: %s)", len(e), e[0].Error())
}

// Has reports whether the collection contains an error with the given code.
func (e ValidationErrors) Has(code ValidationCode) bool {
	for _, ve := range e {
		if ve.Code == code {
			return true
		}
	}
	return false
}

// NetworkError represents a failed backend call. The underlying form state
// is preserved by the caller; the error itself is retry-capable.
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s] %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError.
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{
		Op:       op,
		Endpoint: endpoint,
		Err:      err,
	}
}

// OrderError represents an error related to order operations.
type OrderError struct {
	TradeID string
	Symbol  string
	Action  string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.TradeID, e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.TradeID, e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(tradeID, symbol, action, reason string, err error) *OrderError {
	return &OrderError{
		TradeID: tradeID,
		Symbol:  symbol,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// TransitionError reports an illegal trade lifecycle transition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
