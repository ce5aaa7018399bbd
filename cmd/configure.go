package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"alertrelay/internal/config"
	"alertrelay/internal/notification"

	"github.com/AlecAivazis/survey/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Test channel choices offered by the wizard
const (
	testNone      = "None"
	testChatBot   = "Chat bot"
	testSMSSingle = "SMS (single)"
	testSMSGroup  = "SMS (group)"
)

// NewConfigureCmd creates the configure subcommand
func NewConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactively configure alertrelay settings",
		Long: `Configure alertrelay in interactive mode.

This command will guide you through setting up:
- Log directory and format
- Retry policy and HTTP timeout
- Provider endpoints

Credentials are not saved; they arrive with every Splunk alert. You can
optionally send a test message before the configuration is written.`,
		RunE: runConfigure,
	}
}

// ConfigWizard holds the wizard answers
type ConfigWizard struct {
	// Logging
	LogDir    string
	LogFormat string
	Verbose   bool

	// Delivery
	RetryAttempts string
	RetryDelay    string
	HTTPTimeout   string

	// Endpoints
	NiksmsBaseURL string
	BotBaseURL    string

	// Test message (never saved)
	TestChannel  string
	TestAPIKey   string
	TestSender   string
	TestPhone    string
	TestBotToken string
	TestChatID   string
}

func runConfigure(cmd *cobra.Command, args []string) error {
	fmt.Println("\nalertrelay Configuration Wizard")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	wizard := &ConfigWizard{}

	// Step 1: Logging
	if err := configureLogging(wizard); err != nil {
		return err
	}

	// Step 2: Delivery
	if err := configureDelivery(wizard); err != nil {
		return err
	}

	// Step 3: Endpoints
	if err := configureEndpoints(wizard); err != nil {
		return err
	}

	cfg, err := wizard.toConfig()
	if err != nil {
		return err
	}

	// Step 4: Test Notification
	if err := configureTest(wizard); err != nil {
		return err
	}
	if wizard.TestChannel != testNone {
		if err := testNotification(wizard, cfg); err != nil {
			fmt.Printf("\nWarning: Notification test failed: %v\n", err)
			fmt.Println("You can still save the configuration and fix it later.")

			var proceed bool
			prompt := &survey.Confirm{
				Message: "Do you want to save the configuration anyway?",
				Default: true,
			}
			if err := survey.AskOne(prompt, &proceed); err != nil {
				return err
			}
			if !proceed {
				return fmt.Errorf("configuration cancelled")
			}
		} else {
			fmt.Println("\nNotification test successful!")
		}
	}

	// Step 5: Save Configuration
	var configPath string
	prompt := &survey.Input{
		Message: "Config file path:",
		Default: "config.yaml",
		Help:    "Where to save the configuration file",
	}
	if err := survey.AskOne(prompt, &configPath); err != nil {
		return err
	}

	if err := writeConfig(configPath, cfg); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to: %s\n", configPath)
	fmt.Println()

	return nil
}

func configureLogging(wizard *ConfigWizard) error {
	fmt.Println("Logging")
	fmt.Println(strings.Repeat("-", 60))

	defaultDir := "."
	if home := os.Getenv("SPLUNK_HOME"); home != "" {
		defaultDir = filepath.Join(home, "var", "log", "splunk")
	}

	questions := []*survey.Question{
		{
			Name: "logDir",
			Prompt: &survey.Input{
				Message: "Log directory:",
				Default: defaultDir,
			},
			Validate: survey.Required,
		},
		{
			Name: "logFormat",
			Prompt: &survey.Select{
				Message: "Log format:",
				Options: []string{"text", "json"},
				Default: "text",
				Help:    "text: one line per entry, json: for log shippers",
			},
		},
		{
			Name: "verbose",
			Prompt: &survey.Confirm{
				Message: "Enable debug logging?",
				Default: false,
			},
		},
	}

	return survey.Ask(questions, wizard)
}

func configureDelivery(wizard *ConfigWizard) error {
	fmt.Println("\nDelivery")
	fmt.Println(strings.Repeat("-", 60))

	defaults := notification.DefaultRetryPolicy()

	questions := []*survey.Question{
		{
			Name: "retryAttempts",
			Prompt: &survey.Input{
				Message: "Delivery attempts per message:",
				Default: strconv.Itoa(defaults.Attempts),
			},
			Validate: survey.Required,
		},
		{
			Name: "retryDelay",
			Prompt: &survey.Input{
				Message: "Delay between attempts:",
				Default: defaults.Delay.String(),
				Help:    "Go duration, e.g. 500ms, 5s, 1m",
			},
			Validate: survey.Required,
		},
		{
			Name: "httpTimeout",
			Prompt: &survey.Input{
				Message: "HTTP request timeout:",
				Default: "30s",
			},
			Validate: survey.Required,
		},
	}

	return survey.Ask(questions, wizard)
}

func configureEndpoints(wizard *ConfigWizard) error {
	fmt.Println("\nProvider Endpoints")
	fmt.Println(strings.Repeat("-", 60))

	questions := []*survey.Question{
		{
			Name: "niksmsBaseURL",
			Prompt: &survey.Input{
				Message: "Niksms web-service base URL:",
				Default: "https://webservice.niksms.com/api/v1/web-service",
			},
			Validate: survey.Required,
		},
		{
			Name: "botBaseURL",
			Prompt: &survey.Input{
				Message: "Bot API base URL:",
				Default: notification.DefaultTelegramBaseURL,
				Help:    "Any Telegram-compatible API, e.g. https://tapi.bale.ai",
			},
			Validate: survey.Required,
		},
	}

	return survey.Ask(questions, wizard)
}

func configureTest(wizard *ConfigWizard) error {
	fmt.Println("\nTest Message")
	fmt.Println(strings.Repeat("-", 60))

	prompt := &survey.Select{
		Message: "Send a test message through:",
		Options: []string{testNone, testChatBot, testSMSSingle, testSMSGroup},
		Default: testNone,
	}
	if err := survey.AskOne(prompt, &wizard.TestChannel); err != nil {
		return err
	}

	var questions []*survey.Question
	switch wizard.TestChannel {
	case testChatBot:
		questions = []*survey.Question{
			{Name: "testBotToken", Prompt: &survey.Password{Message: "Bot token:"}, Validate: survey.Required},
			{Name: "testChatID", Prompt: &survey.Input{Message: "Chat ID:"}, Validate: survey.Required},
		}
	case testSMSSingle, testSMSGroup:
		questions = []*survey.Question{
			{Name: "testAPIKey", Prompt: &survey.Password{Message: "Niksms API key:"}, Validate: survey.Required},
			{Name: "testSender", Prompt: &survey.Input{Message: "Sender number:"}},
			{Name: "testPhone", Prompt: &survey.Input{Message: "Phone number(s), comma-separated:"}, Validate: survey.Required},
		}
	default:
		return nil
	}

	return survey.Ask(questions, wizard)
}

// toConfig validates the answers and converts them to a Config
func (w *ConfigWizard) toConfig() (*config.Config, error) {
	attempts, err := strconv.Atoi(strings.TrimSpace(w.RetryAttempts))
	if err != nil {
		return nil, fmt.Errorf("invalid retry attempts %q: %w", w.RetryAttempts, err)
	}
	delay, err := time.ParseDuration(strings.TrimSpace(w.RetryDelay))
	if err != nil {
		return nil, fmt.Errorf("invalid retry delay %q: %w", w.RetryDelay, err)
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(w.HTTPTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP timeout %q: %w", w.HTTPTimeout, err)
	}

	cfg := &config.Config{
		LogDir:        w.LogDir,
		LogBackups:    5,
		LogFormat:     w.LogFormat,
		Verbose:       w.Verbose,
		RetryAttempts: attempts,
		RetryDelay:    delay,
		HTTPTimeout:   timeout,
		NiksmsBaseURL: w.NiksmsBaseURL,
		BotBaseURL:    w.BotBaseURL,
	}

	// log_file is chosen per subcommand, so validate with a placeholder
	check := *cfg
	check.LogFile = "alert.log"
	if err := check.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// testAlert builds the notifier and alert configuration for the chosen test channel
func (w *ConfigWizard) testAlert(cfg *config.Config, logger *logrus.Entry) (notification.Notifier, notification.AlertConfiguration, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	policy := retryPolicy(cfg)
	message := "alertrelay configuration test\n\nIf you see this, your notification channel is working correctly!"

	switch w.TestChannel {
	case testChatBot:
		return notification.NewTelegramNotifier(cfg.BotBaseURL, httpClient, policy, logger),
			notification.AlertConfiguration{
				"bot_token": w.TestBotToken,
				"chat_id":   w.TestChatID,
				"message":   message,
			}, nil
	case testSMSSingle:
		return notification.NewNiksmsSingleNotifier(cfg.NiksmsBaseURL, httpClient, policy, logger),
			notification.AlertConfiguration{
				"apikey":  w.TestAPIKey,
				"sender":  w.TestSender,
				"phone":   w.TestPhone,
				"message": message,
			}, nil
	case testSMSGroup:
		return notification.NewNiksmsGroupNotifier(cfg.NiksmsBaseURL, httpClient, policy, logger),
			notification.AlertConfiguration{
				"apikey":  w.TestAPIKey,
				"sender":  w.TestSender,
				"phone":   w.TestPhone,
				"message": message,
			}, nil
	default:
		return nil, nil, fmt.Errorf("unknown test channel: %s", w.TestChannel)
	}
}

func testNotification(wizard *ConfigWizard, cfg *config.Config) error {
	fmt.Println("\nTesting notification channel...")

	logger := logrus.NewEntry(logrus.New())
	logger.Logger.SetOutput(os.Stderr)        // Send logs to stderr to keep output clean
	logger.Logger.SetLevel(logrus.ErrorLevel) // Only show errors

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	notifier, alert, err := wizard.testAlert(cfg, logger)
	if err != nil {
		return err
	}

	if _, err := notifier.Notify(ctx, alert); err != nil {
		return fmt.Errorf("failed to send test notification: %w", err)
	}

	return nil
}

// configDocument orders the saved keys and keeps durations human-readable
func configDocument(cfg *config.Config) yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "log_dir", Value: cfg.LogDir},
		{Key: "log_backups", Value: cfg.LogBackups},
		{Key: "log_format", Value: cfg.LogFormat},
		{Key: "verbose", Value: cfg.Verbose},
		{Key: "retry_attempts", Value: cfg.RetryAttempts},
		{Key: "retry_delay", Value: cfg.RetryDelay.String()},
		{Key: "http_timeout", Value: cfg.HTTPTimeout.String()},
		{Key: "niksms_base_url", Value: cfg.NiksmsBaseURL},
		{Key: "bot_base_url", Value: cfg.BotBaseURL},
	}
}

// writeConfig saves cfg as YAML, creating the parent directory when needed
func writeConfig(configPath string, cfg *config.Config) error {
	dir := filepath.Dir(configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Marshal to YAML
	data, err := yaml.Marshal(configDocument(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
