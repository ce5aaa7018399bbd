package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"alertrelay/internal/notification"
)

// Config holds the process-level settings of an alert action run.
// Provider credentials and recipients are not here; they arrive with each alert payload.
type Config struct {
	// Logging settings
	LogDir     string `mapstructure:"log_dir" yaml:"log_dir"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file,omitempty"`
	LogBackups int    `mapstructure:"log_backups" yaml:"log_backups"` // Number of dated log files kept after rotation, 0 keeps all
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`   // "text" or "json"
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`

	// Delivery settings
	RetryAttempts int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`

	// Provider endpoints
	NiksmsBaseURL string `mapstructure:"niksms_base_url" yaml:"niksms_base_url"`
	BotBaseURL    string `mapstructure:"bot_base_url" yaml:"bot_base_url"`
}

// Load loads configuration from various sources.
// defaultLogFile is the log file name used when log_file is not configured.
func Load(defaultLogFile string) (*Config, error) {
	// Load a dotenv file first so its values behave like real environment variables
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	// Set default values
	viper.SetDefault("log_dir", defaultLogDir())
	viper.SetDefault("log_file", defaultLogFile)
	viper.SetDefault("log_backups", 5)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("retry_attempts", notification.DefaultRetryAttempts)
	viper.SetDefault("retry_delay", notification.DefaultRetryDelay)
	viper.SetDefault("http_timeout", 30*time.Second)
	viper.SetDefault("niksms_base_url", "https://webservice.niksms.com/api/v1/web-service")
	viper.SetDefault("bot_base_url", "https://api.telegram.org")

	// An explicit --config path wins over the search paths
	if path := viper.GetString("config_file"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/alertrelay")
		viper.AddConfigPath("$HOME/.alertrelay")
	}

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	// AutomaticEnv() binds every key to an AR_ prefixed variable (e.g. AR_RETRY_ATTEMPTS maps to retry_attempts)
	viper.SetEnvPrefix("AR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that viper cannot enforce
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("log_file is required")
	}
	if c.LogBackups < 0 {
		return fmt.Errorf("log_backups must not be negative")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json', got %q", c.LogFormat)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	return nil
}

// defaultLogDir is Splunk's own log directory when SPLUNK_HOME is set
func defaultLogDir() string {
	if home := os.Getenv("SPLUNK_HOME"); home != "" {
		return filepath.Join(home, "var", "log", "splunk")
	}
	return "."
}

// loadEnvFile reads AR_ENV_FILE (default ".env") without overriding variables that are already set
func loadEnvFile() error {
	path := os.Getenv("AR_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
