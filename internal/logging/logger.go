// Package logging wires logrus to the alert action's log file.
//
// Every invocation appends to a file under the configured log directory that
// rolls over daily and keeps a fixed number of backups. A RedactHook is always
// installed so API keys and bot tokens never reach the file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options controls where and how the alert log is written
type Options struct {
	Dir     string
	File    string
	Backups int
	Format  string // "text" or "json"
	Verbose bool
}

// Setup points logger at the daily log file and installs a RedactHook.
// When the file cannot be opened the logger keeps writing to stderr and the
// open error is returned alongside a usable hook and closer.
func Setup(logger *logrus.Logger, opts Options) (*RedactHook, io.Closer, error) {
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05,000",
		})
	}

	hook := NewRedactHook()
	hooks := make(logrus.LevelHooks)
	hooks.Add(hook)
	logger.ReplaceHooks(hooks)

	path := filepath.Join(opts.Dir, opts.File)
	file, err := OpenDailyFile(path, opts.Backups)
	if err != nil {
		logger.SetOutput(os.Stderr)
		return hook, nopCloser{}, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	logger.SetOutput(file)
	return hook, &restoringCloser{logger: logger, file: file}, nil
}

// restoringCloser closes the log file and sends further output to stderr
type restoringCloser struct {
	logger *logrus.Logger
	file   *DailyFile
}

func (c *restoringCloser) Close() error {
	c.logger.SetOutput(os.Stderr)
	return c.file.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
