// Package payload decodes the JSON document Splunk writes to an alert action's standard input.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"alertrelay/internal/notification"
)

// ErrPayloadParse indicates the standard input was not a valid alert payload
var ErrPayloadParse = errors.New("failed to parse JSON payload")

// ParseError wraps the decoding failure
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPayloadParse, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPayloadParse) match
func (e *ParseError) Is(target error) bool {
	return target == ErrPayloadParse
}

// Payload is the alert action input. Only Configuration drives delivery;
// the remaining fields are kept for log correlation.
type Payload struct {
	Configuration notification.AlertConfiguration
	App           string
	Owner         string
	SearchName    string
	SID           string
	ResultsLink   string
	ServerHost    string
	Result        map[string]interface{}
}

type rawPayload struct {
	Configuration json.RawMessage        `json:"configuration"`
	App           string                 `json:"app"`
	Owner         string                 `json:"owner"`
	SearchName    string                 `json:"search_name"`
	SID           string                 `json:"sid"`
	ResultsLink   string                 `json:"results_link"`
	ServerHost    string                 `json:"server_host"`
	Result        map[string]interface{} `json:"result"`
}

// Decode reads one alert payload from r. Scalar configuration values are
// rendered as text so numeric ids survive; nested values are rejected.
func Decode(r io.Reader) (*Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	cfg, err := decodeConfiguration(raw.Configuration)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return &Payload{
		Configuration: cfg,
		App:           raw.App,
		Owner:         raw.Owner,
		SearchName:    raw.SearchName,
		SID:           raw.SID,
		ResultsLink:   raw.ResultsLink,
		ServerHost:    raw.ServerHost,
		Result:        raw.Result,
	}, nil
}

func decodeConfiguration(data json.RawMessage) (notification.AlertConfiguration, error) {
	cfg := notification.AlertConfiguration{}
	if len(data) == 0 || string(data) == "null" {
		return cfg, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("configuration must be a JSON object: %w", err)
	}

	for key, value := range fields {
		switch v := value.(type) {
		case string:
			cfg[key] = v
		case json.Number:
			cfg[key] = v.String()
		case bool:
			cfg[key] = strconv.FormatBool(v)
		case nil:
			cfg[key] = ""
		default:
			return nil, fmt.Errorf("configuration field %q must be a string", key)
		}
	}

	return cfg, nil
}
