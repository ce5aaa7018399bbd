// Package niksms is a minimal REST client for the Niksms SMS gateway.
//
// Only the two send operations used by the alert actions are implemented:
// a single message to one phone and one message to a group of phones.
package niksms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the web-service root of the gateway
	DefaultBaseURL = "https://webservice.niksms.com/api/v1/web-service"

	groupPath  = "/sms/send/group"
	singlePath = "/sms/send/single"

	userAgent       = "alertrelay/1.0"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20

	// statusSuccessful is the gateway's application-level success code
	statusSuccessful = 1
)

// ErrTransport marks a request that never produced an HTTP response
var ErrTransport = errors.New("niksms transport failure")

// StatusError is a response with a non-2xx status code
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("niksms returned status %d", e.StatusCode)
}

// RejectedError is a 2xx response whose Status field reports a failure
type RejectedError struct {
	Status int
	Body   []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("niksms rejected the request with status code %d", e.Status)
}

// Recipient is a single entry of a group send
type Recipient struct {
	Phone string `json:"Phone"`
}

// Response is the raw gateway answer
type Response struct {
	StatusCode int
	Body       []byte
}

type groupRequest struct {
	ApiKey       string      `json:"ApiKey"`
	SenderNumber string      `json:"SenderNumber,omitempty"`
	Message      string      `json:"Message"`
	Recipients   []Recipient `json:"Recipients"`
}

type singleRequest struct {
	ApiKey       string `json:"ApiKey"`
	SenderNumber string `json:"SenderNumber"`
	Phone        string `json:"Phone"`
	Message      string `json:"Message"`
}

// Client sends messages through the gateway with one API key
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL, a nil httpClient a 30s-timeout client.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SendGroup sends one message to every recipient in a single request
func (c *Client) SendGroup(ctx context.Context, sender, message string, recipients []Recipient) (*Response, error) {
	return c.post(ctx, groupPath, groupRequest{
		ApiKey:       c.apiKey,
		SenderNumber: sender,
		Message:      message,
		Recipients:   recipients,
	})
}

// SendSingle sends one message to one phone
func (c *Client) SendSingle(ctx context.Context, sender, phone, message string) (*Response, error) {
	return c.post(ctx, singlePath, singleRequest{
		ApiKey:       c.apiKey,
		SenderNumber: sender,
		Phone:        phone,
		Message:      message,
	})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, unwrapURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	if status, ok := applicationStatus(body); ok && status != statusSuccessful {
		return nil, &RejectedError{Status: status, Body: body}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// applicationStatus extracts the numeric Status field, if the body carries one
func applicationStatus(body []byte) (int, bool) {
	var envelope struct {
		Status *int `json:"Status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Status == nil {
		return 0, false
	}
	return *envelope.Status, true
}

func unwrapURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
