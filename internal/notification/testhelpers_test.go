package notification

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{Attempts: 3, Delay: time.Millisecond}

func newTestLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func countLevel(hook *test.Hook, level logrus.Level) int {
	count := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == level {
			count++
		}
	}
	return count
}

// dropConnection closes the client connection without writing a response
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hijacker, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hijacker.Hijack()
	require.NoError(t, err)
	conn.Close()
}

// flakyHandler drops the connection for the first failures calls, then runs next
func flakyHandler(t *testing.T, failures int32, calls *int32, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		if n <= failures {
			dropConnection(t, w)
			return
		}
		next(w, r)
	}
}
