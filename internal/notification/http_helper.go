package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// UserAgent is the User-Agent header value used for all HTTP requests
	UserAgent = "alertrelay/1.0"
	// DefaultHTTPTimeout is the default timeout for HTTP clients
	DefaultHTTPTimeout = 30 * time.Second
	// maxResponseBytes caps how much of a provider response is read
	maxResponseBytes = 1 << 20
)

// TransportError is a request that never produced an HTTP response.
// The request URL is left out of the message since it may embed a credential.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to send request: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a response with a non-2xx status code
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to send message: status %d", e.StatusCode)
}

// HTTPResponse is the status and raw body of a completed request
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPNotifier provides common functionality for HTTP-based notifiers
type HTTPNotifier struct {
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewHTTPNotifier creates a new HTTP notifier with an optional HTTP client
func NewHTTPNotifier(httpClient *http.Client, logger *logrus.Entry) *HTTPNotifier {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultHTTPTimeout,
		}
	}

	return &HTTPNotifier{
		httpClient: httpClient,
		logger:     logger,
	}
}

// PostJSON sends a JSON payload to endpoint and returns the response.
// Transport failures come back as *TransportError, non-2xx responses as *StatusError.
func (n *HTTPNotifier) PostJSON(ctx context.Context, endpoint string, payload interface{}) (*HTTPResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: stripURL(err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	n.logger.Debug("Sending HTTP notification")

	// Send request
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "POST", Err: stripURL(err)}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			n.logger.WithError(err).Warn("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: stripURL(err)}
	}

	// Check response status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// stripURL drops the URL from *url.Error so credentials in the path never reach an error string
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func isTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func hasStatus(err error, codes ...int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	for _, code := range codes {
		if statusErr.StatusCode == code {
			return true
		}
	}
	return false
}
