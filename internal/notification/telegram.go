package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// ProviderTelegram names the chat-bot provider in logs and errors
	ProviderTelegram = "telegram-bot"
	// DefaultTelegramBaseURL is used when neither the process config nor the alert sets base_url
	DefaultTelegramBaseURL = "https://api.telegram.org"
)

// telegramPayload is the sendMessage request body
type telegramPayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// TelegramNotifier sends alerts through a Telegram-compatible bot API
type TelegramNotifier struct {
	*HTTPNotifier
	baseURL   string
	retry     RetryPolicy
	formatter *MessageFormatter
}

// NewTelegramNotifier creates a new chat-bot notifier. A nil httpClient uses the default timeout.
func NewTelegramNotifier(baseURL string, httpClient *http.Client, retry RetryPolicy, logger *logrus.Entry) *TelegramNotifier {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultTelegramBaseURL
	}
	return &TelegramNotifier{
		HTTPNotifier: NewHTTPNotifier(httpClient, logger),
		baseURL:      baseURL,
		retry:        retry,
		formatter:    NewMessageFormatter(),
	}
}

// Notify validates cfg and sends the message to every chat id (implements Notifier interface)
func (n *TelegramNotifier) Notify(ctx context.Context, cfg AlertConfiguration) (*DeliveryResult, error) {
	token, err := cfg.Require("bot_token")
	if err != nil {
		return nil, err
	}
	chatIDs, err := requireRecipients(cfg, "chat_id")
	if err != nil {
		return nil, err
	}
	for _, chatID := range chatIDs {
		if !isNumericID(chatID) {
			return nil, &ConfigurationError{Field: "chat_id", Reason: fmt.Sprintf("%q must be numeric", chatID)}
		}
	}
	message, err := cfg.Message()
	if err != nil {
		return nil, err
	}

	baseURL := n.baseURL
	if custom := cfg.Get("base_url"); custom != "" {
		baseURL = custom
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/bot" + token + "/sendMessage"
	chunks := n.formatter.Split(message)

	result := &DeliveryResult{
		Provider:   ProviderTelegram,
		Recipients: chatIDs,
	}

	for _, chatID := range chatIDs {
		chatLogger := n.logger.WithField("chat_id", chatID)
		chatLogger.WithFields(logrus.Fields{
			"message":   message,
			"parts":     len(chunks),
			"bot_token": "[REDACTED]",
		}).Info("Sending Telegram notification")

		for i, chunk := range chunks {
			resp, attempts, err := n.sendMessage(ctx, chatLogger.WithField("part", i+1), endpoint, chatID, chunk)
			result.Attempts += attempts
			if err != nil {
				return nil, &DeliveryError{Provider: ProviderTelegram, Recipient: chatID, Attempts: attempts, Err: err}
			}
			result.StatusCode = resp.StatusCode
			result.Body = resp.Body
		}

		chatLogger.WithField("response", string(result.Body)).Info("Successfully sent Telegram notification")
	}

	return result, nil
}

// sendMessage posts one message to one chat with retries
func (n *TelegramNotifier) sendMessage(ctx context.Context, logger *logrus.Entry, endpoint, chatID, text string) (*HTTPResponse, int, error) {
	payload := telegramPayload{
		ChatID: chatID,
		Text:   text,
	}

	var resp *HTTPResponse
	attempts, err := n.retry.Do(ctx, logger, retryableTelegram, func(int) error {
		var sendErr error
		resp, sendErr = n.PostJSON(ctx, endpoint, payload)
		if sendErr != nil {
			return sendErr
		}
		return checkTelegramResponse(resp.Body)
	})
	if err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// retryableTelegram retries transport failures and 503 Service Unavailable only
func retryableTelegram(err error) bool {
	return isTransportError(err) || hasStatus(err, http.StatusServiceUnavailable)
}

// checkTelegramResponse rejects a 2xx body that reports {"ok": false}
func checkTelegramResponse(body []byte) error {
	var envelope struct {
		OK          *bool  `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.OK == nil || *envelope.OK {
		return nil
	}
	if envelope.Description != "" {
		return fmt.Errorf("bot API rejected the message: %s", envelope.Description)
	}
	return fmt.Errorf("bot API rejected the message")
}
