package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alertrelay/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := newRootCmd()

	// Bind flags to viper
	if err := bindFlags(rootCmd); err != nil {
		logrus.WithError(err).Fatal("Failed to bind flags")
	}

	os.Exit(cmd.ExitCode(rootCmd.Execute()))
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alertrelay",
		Short: "Splunk alert actions for SMS and chat-bot notifications",
		Long: `alertrelay implements Splunk custom alert actions. Each subcommand reads the
alert payload JSON from stdin, validates its configuration block and delivers the
message through one provider: Niksms grouped SMS, Niksms single SMS, or a
Telegram-compatible chat bot.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alertrelay version %s (commit: %s)\n", version, commit)
		},
	})

	// Add alert actions and the configure wizard
	rootCmd.AddCommand(cmd.NewSMSGroupCmd())
	rootCmd.AddCommand(cmd.NewSMSSingleCmd())
	rootCmd.AddCommand(cmd.NewChatBotCmd())
	rootCmd.AddCommand(cmd.NewConfigureCmd())

	// Add flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for the alert log file")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: 'text' or 'json'")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	return rootCmd
}

// bindFlags maps persistent flags onto their configuration keys.
// Unset flags leave the file, env and default values in place.
func bindFlags(rootCmd *cobra.Command) error {
	bindings := map[string]string{
		"config_file": "config",
		"log_dir":     "log-dir",
		"log_format":  "log-format",
		"verbose":     "verbose",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}
