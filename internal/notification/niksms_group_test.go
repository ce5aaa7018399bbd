package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "niksms-api-key"

type groupBody struct {
	ApiKey       string
	SenderNumber string
	Message      string
	Recipients   []struct{ Phone string }
}

func TestNiksmsGroupNotifier_Notify_Success(t *testing.T) {
	var calls int32
	response := `{"Status":1,"Id":42}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/sms/send/group", r.URL.Path)

		var body groupBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testAPIKey, body.ApiKey)
		assert.Equal(t, "3000", body.SenderNumber)
		assert.Equal(t, "Anomaly on web-01", body.Message)
		require.Len(t, body.Recipients, 2)
		assert.Equal(t, "111", body.Recipients[0].Phone)
		assert.Equal(t, "222", body.Recipients[1].Phone)

		w.Write([]byte(response))
	}))
	defer server.Close()

	logger, hook := newTestLogger()
	notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

	result, err := notifier.Notify(context.Background(), AlertConfiguration{
		"apikey":  testAPIKey,
		"phone":   " 111, ,222 ",
		"sender":  "3000",
		"message": "Anomaly on web-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, response, string(result.Body))
	assert.Equal(t, []string{"111", "222"}, result.Recipients)
	assert.Equal(t, ProviderNiksmsGroup, result.Provider)

	for _, entry := range hook.AllEntries() {
		line, formatErr := entry.String()
		require.NoError(t, formatErr)
		assert.NotContains(t, line, testAPIKey)
	}
}

func TestNiksmsGroupNotifier_Notify_DefaultMessageWithoutSender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, DefaultMessage, raw["Message"])
		assert.NotContains(t, raw, "SenderNumber")
		w.Write([]byte(`{"Status":1}`))
	}))
	defer server.Close()

	logger, _ := newTestLogger()
	notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

	_, err := notifier.Notify(context.Background(), AlertConfiguration{
		"apikey": testAPIKey,
		"phone":  "111",
	})
	require.NoError(t, err)
}

func TestNiksmsGroupNotifier_Notify_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   AlertConfiguration
		field string
	}{
		{"missing api key", AlertConfiguration{"phone": "111", "message": "m"}, "apikey"},
		{"blank api key", AlertConfiguration{"apikey": " ", "phone": "111", "message": "m"}, "apikey"},
		{"missing phones", AlertConfiguration{"apikey": testAPIKey, "message": "m"}, "phone"},
		{"only separators", AlertConfiguration{"apikey": testAPIKey, "phone": " , ", "message": "m"}, "phone"},
		{"empty message", AlertConfiguration{"apikey": testAPIKey, "phone": "111", "message": ""}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
			}))
			defer server.Close()

			logger, _ := newTestLogger()
			notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

			_, err := notifier.Notify(context.Background(), tt.cfg)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
		})
	}
}

func TestNiksmsGroupNotifier_Notify_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	logger, hook := newTestLogger()
	notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

	_, err := notifier.Notify(context.Background(), AlertConfiguration{
		"apikey":  testAPIKey,
		"phone":   "111",
		"message": "m",
	})
	require.ErrorIs(t, err, ErrDelivery)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, countLevel(hook, logrus.WarnLevel))

	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, 3, deliveryErr.Attempts)
}

func TestNiksmsGroupNotifier_Notify_RejectionIsNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"client error", http.StatusUnauthorized, `{"Status":5}`},
		{"application failure", http.StatusOK, `{"Status":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			logger, _ := newTestLogger()
			notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

			_, err := notifier.Notify(context.Background(), AlertConfiguration{
				"apikey":  testAPIKey,
				"phone":   "111",
				"message": "m",
			})
			require.ErrorIs(t, err, ErrDelivery)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestNiksmsGroupNotifier_Notify_TransportFailuresThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(flakyHandler(t, 2, &calls, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Status":1}`))
	}))
	defer server.Close()

	logger, hook := newTestLogger()
	notifier := NewNiksmsGroupNotifier(server.URL, nil, fastRetry, logger)

	result, err := notifier.Notify(context.Background(), AlertConfiguration{
		"apikey":  testAPIKey,
		"phone":   "111",
		"message": "m",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 2, countLevel(hook, logrus.WarnLevel))
}
