package logging

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Redacted replaces every secret value in log output
const Redacted = "[REDACTED]"

// sensitiveFields are always masked, whatever their value
var sensitiveFields = map[string]struct{}{
	"apikey":    {},
	"api_key":   {},
	"bot_token": {},
	"token":     {},
	"password":  {},
}

// RedactHook masks registered secret values in entry messages and fields
type RedactHook struct {
	mu      sync.RWMutex
	secrets []string
}

// NewRedactHook creates a hook that masks the given secrets
func NewRedactHook(secrets ...string) *RedactHook {
	h := &RedactHook{}
	h.Add(secrets...)
	return h
}

// Add registers more secrets. Blank values are ignored.
func (h *RedactHook) Add(secrets ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, secret := range secrets {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		h.secrets = append(h.secrets, secret)
	}
}

// Redact returns s with every registered secret replaced
func (h *RedactHook) Redact(s string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, secret := range h.secrets {
		s = strings.ReplaceAll(s, secret, Redacted)
	}
	return s
}

// Levels implements logrus.Hook
func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *RedactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.Redact(entry.Message)

	for key, value := range entry.Data {
		if _, ok := sensitiveFields[strings.ToLower(key)]; ok {
			entry.Data[key] = Redacted
			continue
		}
		switch v := value.(type) {
		case string:
			entry.Data[key] = h.Redact(v)
		case error:
			entry.Data[key] = h.Redact(v.Error())
		case []string:
			redacted := make([]string, len(v))
			for i, s := range v {
				redacted[i] = h.Redact(s)
			}
			entry.Data[key] = redacted
		}
	}

	return nil
}
