package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("verbose text logging to file", func(t *testing.T) {
		dir := t.TempDir()
		logger := logrus.New()

		hook, closer, err := Setup(logger, Options{Dir: dir, File: "alert.log", Backups: 5, Verbose: true})
		require.NoError(t, err)
		hook.Add("top-secret")

		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

		logger.WithField("value", "top-secret").Info("Message top-secret")
		require.NoError(t, closer.Close())
		assert.Equal(t, os.Stderr, logger.Out)

		data, err := os.ReadFile(filepath.Join(dir, "alert.log"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "level=info")
		assert.Contains(t, string(data), "Message [REDACTED]")
		assert.NotContains(t, string(data), "top-secret")
	})

	t.Run("json format at info level", func(t *testing.T) {
		logger := logrus.New()

		_, closer, err := Setup(logger, Options{Dir: t.TempDir(), File: "alert.log", Format: "json"})
		require.NoError(t, err)
		defer closer.Close()

		assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	})

	t.Run("hooks are replaced on every setup", func(t *testing.T) {
		logger := logrus.New()
		for i := 0; i < 3; i++ {
			_, closer, err := Setup(logger, Options{Dir: t.TempDir(), File: "alert.log"})
			require.NoError(t, err)
			require.NoError(t, closer.Close())
		}
		assert.Len(t, logger.Hooks[logrus.InfoLevel], 1)
	})

	t.Run("falls back to stderr when the file cannot be opened", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		logger := logrus.New()
		hook, closer, err := Setup(logger, Options{Dir: blocker, File: "alert.log"})
		require.Error(t, err)
		require.NotNil(t, hook)
		require.NotNil(t, closer)
		assert.NoError(t, closer.Close())
		assert.Equal(t, os.Stderr, logger.Out)
	})
}
