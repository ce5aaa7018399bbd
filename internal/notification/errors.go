package notification

import (
	"errors"
	"fmt"
)

// Errors that can be checked with errors.Is()
var (
	// ErrConfiguration indicates a missing or malformed alert configuration field
	ErrConfiguration = errors.New("invalid alert configuration")

	// ErrDelivery indicates the provider could not be reached or rejected the request
	ErrDelivery = errors.New("delivery failed")
)

// ConfigurationError reports a required field that is missing or malformed. It is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DeliveryError reports a notification that failed after the given number of attempts
type DeliveryError struct {
	Provider  string
	Recipient string
	Attempts  int
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Recipient != "" {
		return fmt.Sprintf("%s delivery to %s failed after %d attempt(s): %v", e.Provider, e.Recipient, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s delivery failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDelivery) match
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}
