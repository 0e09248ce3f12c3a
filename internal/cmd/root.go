package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/claudia/internal/config"
	"github.com/Iron-Ham/claudia/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "claudia <markdown-file>",
	Short: "Drive Claude through a Markdown task list until every box is checked",
	Long: `Claudia runs Claude on a pseudo-terminal and works it through the tasks
in a Markdown file. It answers the bypass-permissions prompt, waits out
usage limits, and sends "Continue" whenever Claude stops before every
"[ ]" in the file has become "[x]".

Your keystrokes are passed through to Claude. Press Ctrl-C to stop.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runSupervise,
	SilenceErrors: true,
}

// Execute runs the root command and reports a failure once on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err labeled by its severity. Errors from outside the
// claudia taxonomy (flag parsing, argument checks) get a pointer to --help.
func reportError(w io.Writer, err error) {
	label := "Error"
	if errors.GetSeverity(err) >= errors.SeverityCritical {
		label = "Fatal"
	}
	fmt.Fprintf(w, "%s: %v\n", label, err)
	if !errors.IsUserFacing(err) {
		fmt.Fprintf(w, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/claudia/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.Flags().Bool("debug", false, "log every injected command and detection, and echo them to stderr")
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/claudia")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLAUDIA")
	// e.g., CLAUDIA_SUPERVISOR_MAX_CONTINUES for supervisor.max_continues
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
