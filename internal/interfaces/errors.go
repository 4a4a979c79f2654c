package interfaces

import "errors"

// Error taxonomy shared by the watchers and the provider adapters.
// Adapters wrap these with fmt.Errorf("%w: ...") and callers test with errors.Is.
var (
	// ErrTransientFetch covers network failures, timeouts and 5xx-equivalent responses.
	// Retried by the retry policy, then skipped for the cycle.
	ErrTransientFetch = errors.New("transient fetch error")

	// ErrDataFormat marks a missing or malformed field from a provider.
	// The single affected item is skipped; never retried.
	ErrDataFormat = errors.New("data format error")

	// ErrConfiguration marks an unusable user setting (unknown timezone, bad period string).
	// Callers fall back to a safe default and log a warning.
	ErrConfiguration = errors.New("configuration error")

	// ErrDelivery marks a notification sink failure. Logged, not retried.
	ErrDelivery = errors.New("delivery error")

	// ErrUserNotFound is returned by user storage when no record exists
	ErrUserNotFound = errors.New("user not found")
)
