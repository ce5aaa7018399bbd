package notification

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"alertrelay/internal/niksms"
)

// ProviderNiksmsSingle names the single-send SMS provider in logs and errors
const ProviderNiksmsSingle = "niksms-single"

// NiksmsSingleNotifier sends one SMS request per phone, in order
type NiksmsSingleNotifier struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *logrus.Entry
}

// NewNiksmsSingleNotifier creates a single-send SMS notifier. A nil httpClient uses the default timeout.
func NewNiksmsSingleNotifier(baseURL string, httpClient *http.Client, retry RetryPolicy, logger *logrus.Entry) *NiksmsSingleNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &NiksmsSingleNotifier{
		baseURL:    baseURL,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}
}

// Notify validates cfg and sends the SMS to each phone (implements Notifier interface).
// Every error from the gateway is retried; the first phone that still fails ends the run.
func (n *NiksmsSingleNotifier) Notify(ctx context.Context, cfg AlertConfiguration) (*DeliveryResult, error) {
	apiKey, err := cfg.Require("apikey")
	if err != nil {
		return nil, err
	}
	sender, err := cfg.Require("sender")
	if err != nil {
		return nil, err
	}
	phones, err := requireRecipients(cfg, "phone")
	if err != nil {
		return nil, err
	}
	message, err := cfg.Message()
	if err != nil {
		return nil, err
	}

	client := niksms.NewClient(apiKey, n.baseURL, n.httpClient)
	result := &DeliveryResult{
		Provider:   ProviderNiksmsSingle,
		Recipients: phones,
	}

	for _, phone := range phones {
		phoneLogger := n.logger.WithField("phone", phone)
		phoneLogger.WithFields(logrus.Fields{
			"sender":  sender,
			"message": message,
			"api_key": "[REDACTED]",
		}).Info("Sending SMS")

		var resp *niksms.Response
		attempts, err := n.retry.Do(ctx, phoneLogger, retryAlways, func(int) error {
			var sendErr error
			resp, sendErr = client.SendSingle(ctx, sender, phone, message)
			return sendErr
		})
		result.Attempts += attempts
		if err != nil {
			return nil, &DeliveryError{Provider: ProviderNiksmsSingle, Recipient: phone, Attempts: attempts, Err: err}
		}

		phoneLogger.WithFields(logrus.Fields{
			"attempts": attempts,
			"status":   resp.StatusCode,
			"response": string(resp.Body),
		}).Info("SMS sent")

		result.StatusCode = resp.StatusCode
		result.Body = resp.Body
	}

	return result, nil
}

func retryAlways(error) bool {
	return true
}
