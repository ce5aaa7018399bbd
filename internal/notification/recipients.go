package notification

import (
	"strings"
)

// SplitRecipients turns a comma-separated list into trimmed, non-empty entries.
// Order and duplicates are kept as given.
// Example: " 111, ,222 " -> []string{"111", "222"}
func SplitRecipients(raw string) []string {
	recipients := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		recipients = append(recipients, part)
	}
	return recipients
}

// requireRecipients reads key as a recipient list and fails when nothing is left after normalization
func requireRecipients(cfg AlertConfiguration, key string) ([]string, error) {
	recipients := SplitRecipients(cfg[key])
	if len(recipients) == 0 {
		return nil, &ConfigurationError{Field: key, Reason: "is required"}
	}
	return recipients, nil
}

// isNumericID reports whether id is a chat identifier: digits with an optional leading minus for group chats
func isNumericID(id string) bool {
	id = strings.TrimPrefix(id, "-")
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
