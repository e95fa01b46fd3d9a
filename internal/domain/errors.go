package domain

import "fmt"

// The router's typed error kinds. Each implements error and carries its
// context (a reason, the token query, or the failing stage and wrapped
// cause) for the caller to log without re-deriving it.
// A missing 100% baseline route is deliberately not among these: it is
// communicated as a nil *SwapPlan, not an error.

// ConfigInvalidError is fatal to the request: e.g. maxSplits >= 4, or
// distributionPercent does not divide 100.
type ConfigInvalidError struct {
	Reason string
}

func (e ConfigInvalidError) Error() string {
	return fmt.Sprintf("invalid router configuration: %s", e.Reason)
}

// TokenNotFoundError surfaces when a symbol/address is absent from the
// token registry.
type TokenNotFoundError struct {
	Query string
}

func (e TokenNotFoundError) Error() string {
	return fmt.Sprintf("token not found: %s", e.Query)
}

// TransportFailureError wraps an RPC error for a whole batch; it always
// surfaces to the caller, unlike a single failed call within a batch.
type TransportFailureError struct {
	Stage string
	Err   error
}

func (e TransportFailureError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Stage, e.Err)
}

func (e TransportFailureError) Unwrap() error {
	return e.Err
}

// GasPriceUnavailableError is fatal to the request: the gas oracle failed
// to produce a price.
type GasPriceUnavailableError struct {
	Err error
}

func (e GasPriceUnavailableError) Error() string {
	return fmt.Sprintf("gas price unavailable: %v", e.Err)
}

func (e GasPriceUnavailableError) Unwrap() error {
	return e.Err
}
