package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"alertrelay/internal/config"
	"alertrelay/internal/logging"
	"alertrelay/internal/notification"
	"alertrelay/internal/payload"
)

// ErrAlertFailed is returned by alert commands after the failure was already
// reported on stdout and in the log; callers only need to exit with status 1.
var ErrAlertFailed = errors.New("alert action failed")

// secretFields are configuration keys whose values must never reach logs or stdout
var secretFields = []string{"apikey", "bot_token"}

// alertAction describes one provider subcommand
type alertAction struct {
	use      string
	short    string
	long     string
	provider string
	logFile  string
	build    func(cfg *config.Config, httpClient *http.Client, logger *logrus.Entry) notification.Notifier
}

// NewSMSGroupCmd creates the grouped SMS alert action
func NewSMSGroupCmd() *cobra.Command {
	return newAlertCmd(alertAction{
		use:   "sms-group",
		short: "Send the alert as one grouped SMS to every phone in the payload",
		long: `Reads a Splunk alert payload from stdin and sends its message to all phones
listed in configuration.phone (comma-separated) with a single grouped request.

Required configuration fields: apikey, phone. Optional: message, sender.`,
		provider: notification.ProviderNiksmsGroup,
		logFile:  "niksms_alert.log",
		build: func(cfg *config.Config, httpClient *http.Client, logger *logrus.Entry) notification.Notifier {
			return notification.NewNiksmsGroupNotifier(cfg.NiksmsBaseURL, httpClient, retryPolicy(cfg), logger)
		},
	})
}

// NewSMSSingleCmd creates the single-send SMS alert action
func NewSMSSingleCmd() *cobra.Command {
	return newAlertCmd(alertAction{
		use:   "sms-single",
		short: "Send the alert as one SMS per phone",
		long: `Reads a Splunk alert payload from stdin and sends its message to each phone
listed in configuration.phone, one request per phone.

Required configuration fields: apikey, sender, phone. Optional: message.`,
		provider: notification.ProviderNiksmsSingle,
		logFile:  "niksms_single_alert.log",
		build: func(cfg *config.Config, httpClient *http.Client, logger *logrus.Entry) notification.Notifier {
			return notification.NewNiksmsSingleNotifier(cfg.NiksmsBaseURL, httpClient, retryPolicy(cfg), logger)
		},
	})
}

// NewChatBotCmd creates the chat-bot alert action
func NewChatBotCmd() *cobra.Command {
	return newAlertCmd(alertAction{
		use:   "chatbot",
		short: "Send the alert through a Telegram-compatible bot",
		long: `Reads a Splunk alert payload from stdin and posts its message to every chat
listed in configuration.chat_id via {base_url}/bot{token}/sendMessage.

Required configuration fields: bot_token, chat_id (numeric). Optional: message, base_url.`,
		provider: notification.ProviderTelegram,
		logFile:  "chatbot_alert.log",
		build: func(cfg *config.Config, httpClient *http.Client, logger *logrus.Entry) notification.Notifier {
			return notification.NewTelegramNotifier(cfg.BotBaseURL, httpClient, retryPolicy(cfg), logger)
		},
	})
}

func newAlertCmd(action alertAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action.use,
		Short: action.short,
		Long:  action.long,
		Args:  cobra.ArbitraryArgs,
		// Failures are reported on stdout by runAlert itself
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlert(cmd, args, action)
		},
	}

	// Splunk passes --execute to every alert action script
	cmd.Flags().Bool("execute", false, "Set by Splunk when the alert action fires")

	return cmd
}

func runAlert(cmd *cobra.Command, args []string, action alertAction) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(action.logFile)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return ErrAlertFailed
	}

	// Set up logging
	hook, closer, err := logging.Setup(logrus.StandardLogger(), logging.Options{
		Dir:     cfg.LogDir,
		File:    cfg.LogFile,
		Backups: cfg.LogBackups,
		Format:  cfg.LogFormat,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		logrus.WithError(err).Warn("Logging to stderr")
	}
	defer closer.Close()

	logger := logrus.WithFields(logrus.Fields{
		"service":       "alertrelay",
		"provider":      action.provider,
		"invocation_id": uuid.NewString(),
	})

	execute, _ := cmd.Flags().GetBool("execute")
	logger.WithFields(logrus.Fields{
		"args":    args,
		"execute": execute,
	}).Info("Received arguments")

	p, err := payload.Decode(cmd.InOrStdin())
	if err != nil {
		logger.WithError(err).Error("Failed to parse JSON payload")
		fmt.Fprintf(out, "Error: %v\n", err)
		return ErrAlertFailed
	}

	registerSecrets(hook, p.Configuration)

	logger.WithFields(logrus.Fields{
		"search_name": p.SearchName,
		"sid":         p.SID,
		"app":         p.App,
		"owner":       p.Owner,
		"server_host": p.ServerHost,
	}).Info("Received payload")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	notifier := action.build(cfg, httpClient, logger.WithField("component", "notifier"))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := notifier.Notify(ctx, p.Configuration)
	if err != nil {
		logger.WithError(err).Error("Notification failed")
		fmt.Fprintf(out, "Error: %s\n", hook.Redact(err.Error()))
		return ErrAlertFailed
	}

	logger.WithFields(logrus.Fields{
		"recipients": result.Recipients,
		"attempts":   result.Attempts,
		"status":     result.StatusCode,
	}).Info("Notification delivered")

	return nil
}

// registerSecrets adds the raw and the trimmed value of every credential field to hook
func registerSecrets(hook *logging.RedactHook, cfg notification.AlertConfiguration) {
	for _, field := range secretFields {
		hook.Add(cfg[field], cfg.Get(field))
	}
}

func retryPolicy(cfg *config.Config) notification.RetryPolicy {
	return notification.RetryPolicy{
		Attempts: cfg.RetryAttempts,
		Delay:    cfg.RetryDelay,
	}
}

// ExitCode maps an Execute error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if !errors.Is(err, ErrAlertFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}
