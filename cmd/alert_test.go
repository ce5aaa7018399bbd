package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertrelay/internal/logging"
	"alertrelay/internal/notification"
)

// alertEnv points config at a temp log dir and makes retries fast
func alertEnv(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	logDir := t.TempDir()
	t.Setenv("AR_ENV_FILE", filepath.Join(logDir, "missing.env"))
	t.Setenv("AR_LOG_DIR", logDir)
	t.Setenv("AR_RETRY_DELAY", "1ms")
	return logDir
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func alertPayload(t *testing.T, configuration map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"search_name":   "High CPU",
		"sid":           "rt_1700000000.42",
		"configuration": configuration,
	})
	require.NoError(t, err)
	return string(data)
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSMSGroupCmd_Success(t *testing.T) {
	logDir := alertEnv(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/sms/send/group", r.URL.Path)
		w.Write([]byte(`{"Status":1}`))
	}))
	defer server.Close()
	t.Setenv("AR_NIKSMS_BASE_URL", server.URL)

	out, err := execute(t, NewSMSGroupCmd(), alertPayload(t, map[string]interface{}{
		"apikey":  "group-secret-key",
		"phone":   "111, 222",
		"message": "CPU high",
	}), "--execute")

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	logContent := readLog(t, filepath.Join(logDir, "niksms_alert.log"))
	assert.Contains(t, logContent, "Received arguments")
	assert.Contains(t, logContent, "Notification delivered")
	assert.Contains(t, logContent, "High CPU")
	assert.NotContains(t, logContent, "group-secret-key")
}

func TestSMSSingleCmd_MissingAPIKey(t *testing.T) {
	logDir := alertEnv(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()
	t.Setenv("AR_NIKSMS_BASE_URL", server.URL)

	out, err := execute(t, NewSMSSingleCmd(), alertPayload(t, map[string]interface{}{
		"sender":  "3000",
		"phone":   "111",
		"message": "CPU high",
	}))

	require.ErrorIs(t, err, ErrAlertFailed)
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, "Error: apikey is required\n", out)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Contains(t, readLog(t, filepath.Join(logDir, "niksms_single_alert.log")), "Notification failed")
}

func TestChatBotCmd_InvalidPayload(t *testing.T) {
	logDir := alertEnv(t)

	out, err := execute(t, NewChatBotCmd(), `{"configuration": `)

	require.ErrorIs(t, err, ErrAlertFailed)
	assert.True(t, strings.HasPrefix(out, "Error: failed to parse JSON payload"))
	assert.Contains(t, readLog(t, filepath.Join(logDir, "chatbot_alert.log")), "Failed to parse JSON payload")
}

func TestChatBotCmd_NonNumericChatID(t *testing.T) {
	alertEnv(t)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	out, err := execute(t, NewChatBotCmd(), alertPayload(t, map[string]interface{}{
		"bot_token": "42:token",
		"chat_id":   "abc123",
		"base_url":  server.URL,
	}))

	require.ErrorIs(t, err, ErrAlertFailed)
	assert.Contains(t, out, "chat_id")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestChatBotCmd_DeliveryFailureRedactsToken(t *testing.T) {
	logDir := alertEnv(t)
	const token = "987654:very-secret"

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		// A misbehaving gateway echoing the path back must not leak the token either
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()
	t.Setenv("AR_BOT_BASE_URL", server.URL)

	out, err := execute(t, NewChatBotCmd(), alertPayload(t, map[string]interface{}{
		"bot_token": token,
		"chat_id":   -100123,
		"message":   "CPU high",
	}), "--execute")

	require.ErrorIs(t, err, ErrAlertFailed)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, out, "after 3 attempt(s)")
	assert.NotContains(t, out, token)

	logContent := readLog(t, filepath.Join(logDir, "chatbot_alert.log"))
	assert.Contains(t, logContent, "Delivery attempt failed")
	assert.NotContains(t, logContent, token)
}

func TestChatBotCmd_ConfigError(t *testing.T) {
	alertEnv(t)
	t.Setenv("AR_RETRY_ATTEMPTS", "0")

	out, err := execute(t, NewChatBotCmd(), `{}`)

	require.ErrorIs(t, err, ErrAlertFailed)
	assert.Contains(t, out, "retry_attempts must be at least 1")
}

func TestRegisterSecrets_TrimmedValues(t *testing.T) {
	hook := logging.NewRedactHook()
	registerSecrets(hook, notification.AlertConfiguration{
		"bot_token": " 123:ABC ",
		"apikey":    "\tkey-42\n",
		"chat_id":   "42",
	})

	assert.Equal(t, "POST /bot[REDACTED]/sendMessage", hook.Redact("POST /bot123:ABC/sendMessage"))
	assert.Equal(t, "ApiKey=[REDACTED]", hook.Redact("ApiKey=key-42"))
	assert.Equal(t, "chat 42", hook.Redact("chat 42"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrAlertFailed))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}
