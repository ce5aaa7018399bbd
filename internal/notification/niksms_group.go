package notification

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"alertrelay/internal/niksms"
)

// ProviderNiksmsGroup names the grouped SMS provider in logs and errors
const ProviderNiksmsGroup = "niksms-group"

// NiksmsGroupNotifier sends one SMS to every phone in the alert's "phone" list with a single group request
type NiksmsGroupNotifier struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *logrus.Entry
}

// NewNiksmsGroupNotifier creates a grouped SMS notifier. A nil httpClient uses the default timeout.
func NewNiksmsGroupNotifier(baseURL string, httpClient *http.Client, retry RetryPolicy, logger *logrus.Entry) *NiksmsGroupNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &NiksmsGroupNotifier{
		baseURL:    baseURL,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}
}

// Notify validates cfg and sends the group SMS (implements Notifier interface)
func (n *NiksmsGroupNotifier) Notify(ctx context.Context, cfg AlertConfiguration) (*DeliveryResult, error) {
	apiKey, err := cfg.Require("apikey")
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
	sender := cfg.Get("sender")

	recipients := make([]niksms.Recipient, 0, len(phones))
	for _, phone := range phones {
		recipients = append(recipients, niksms.Recipient{Phone: phone})
	}

	n.logger.WithFields(logrus.Fields{
		"phones":  phones,
		"sender":  sender,
		"message": message,
		"api_key": "[REDACTED]",
	}).Info("Sending group SMS")

	client := niksms.NewClient(apiKey, n.baseURL, n.httpClient)

	var resp *niksms.Response
	attempts, err := n.retry.Do(ctx, n.logger, retryableNiksmsGroup, func(int) error {
		var sendErr error
		resp, sendErr = client.SendGroup(ctx, sender, message, recipients)
		return sendErr
	})
	if err != nil {
		return nil, &DeliveryError{Provider: ProviderNiksmsGroup, Attempts: attempts, Err: err}
	}

	n.logger.WithFields(logrus.Fields{
		"phones":   phones,
		"attempts": attempts,
		"status":   resp.StatusCode,
		"response": string(resp.Body),
	}).Info("Group SMS sent")

	return &DeliveryResult{
		Provider:   ProviderNiksmsGroup,
		Recipients: phones,
		Attempts:   attempts,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}, nil
}

// retryableNiksmsGroup retries transport failures and server-side errors
func retryableNiksmsGroup(err error) bool {
	if errors.Is(err, niksms.ErrTransport) {
		return true
	}
	var statusErr *niksms.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 500
}
