package notification

import (
	"context"
	"strings"
)

// DefaultMessage is used when the alert configuration carries no message key at all
const DefaultMessage = "Anomaly Detected: Default Message"

// Notifier delivers a single alert notification to one provider
type Notifier interface {
	Notify(ctx context.Context, cfg AlertConfiguration) (*DeliveryResult, error)
}

// AlertConfiguration holds the string fields Splunk passes in the payload's "configuration" object
type AlertConfiguration map[string]string

// Get returns the trimmed value for key, or an empty string when it is absent
func (c AlertConfiguration) Get(key string) string {
	return strings.TrimSpace(c[key])
}

// Require returns the trimmed value for key or a ConfigurationError when it is missing or blank
func (c AlertConfiguration) Require(key string) (string, error) {
	value := c.Get(key)
	if value == "" {
		return "", &ConfigurationError{Field: key, Reason: "is required"}
	}
	return value, nil
}

// Message returns the alert text. A missing key falls back to DefaultMessage,
// a present but blank one is rejected.
func (c AlertConfiguration) Message() (string, error) {
	raw, ok := c["message"]
	if !ok {
		return DefaultMessage, nil
	}
	if strings.TrimSpace(raw) == "" {
		return "", &ConfigurationError{Field: "message", Reason: "is required"}
	}
	return raw, nil
}

// DeliveryResult describes the provider's answer to a completed notification
type DeliveryResult struct {
	Provider   string
	Recipients []string
	Attempts   int    // Total HTTP attempts across all recipients
	StatusCode int    // Status of the last successful response
	Body       []byte // Raw body of the last successful response, unchanged
}
