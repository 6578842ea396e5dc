package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

var (
	// ErrInvalidOrder is returned for a missing symbol or a share count that is not a positive integer.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrUnknownSymbol is returned when the quote source has no data for a symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInsufficientFunds is returned when cash does not strictly exceed the cost of a buy.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares is returned when a sell asks for more shares than are held.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNotFound is returned when an account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks a persistence failure. The order was not applied.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrQuoteUnavailable is returned when the quote source cannot be reached.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrAccountExists is returned when registering a username that is taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidAccount is returned for malformed registration input.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// OrderError is a deterministic business-rule rejection. Never retriable.
type OrderError struct {
	Kind   error  // One of the Err* sentinels above
	Symbol string // May be empty when the symbol itself was invalid
	Reason string
}

func (e *OrderError) Error() string {
	if e.Symbol == "" {
		return e.Kind.Error() + ": " + e.Reason
	}
	return e.Kind.Error() + " [" + e.Symbol + "]: " + e.Reason
}

func (e *OrderError) IsRetriable() bool {
	return false
}

func (e *OrderError) Unwrap() error {
	return e.Kind
}

// NewOrderError creates a rejection of the given kind.
func NewOrderError(kind error, symbol, format string, args ...any) *OrderError {
	return &OrderError{Kind: kind, Symbol: symbol, Reason: fmt.Sprintf(format, args...)}
}

// StoreError wraps an underlying persistence failure.
// errors.Is matches both ErrStoreUnavailable and the wrapped cause.
type StoreError struct {
	Op  string // Store operation that failed (e.g., "apply_order")
	Err error
}

func (e *StoreError) Error() string {
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) IsRetriable() bool {
	return true
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "lookup", "read")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrQuoteUnavailable, e.Err}
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Error kind names used in logs, metrics and API responses.
const (
	KindInvalidOrder       = "InvalidOrder"
	KindUnknownSymbol      = "UnknownSymbol"
	KindInsufficientFunds  = "InsufficientFunds"
	KindInsufficientShares = "InsufficientShares"
	KindNotFound           = "NotFound"
	KindStoreUnavailable   = "StoreUnavailable"
	KindQuoteUnavailable   = "QuoteUnavailable"
	KindAccountExists      = "AccountExists"
	KindInvalidAccount     = "InvalidAccount"
	KindInternal           = "Internal"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidOrder, KindInvalidOrder},
	{ErrUnknownSymbol, KindUnknownSymbol},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrInsufficientShares, KindInsufficientShares},
	{ErrNotFound, KindNotFound},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrQuoteUnavailable, KindQuoteUnavailable},
	{ErrAccountExists, KindAccountExists},
	{ErrInvalidAccount, KindInvalidAccount},
}

// KindOf names the taxonomy kind of err. Returns "" for nil.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindInternal
}
