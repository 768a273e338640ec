package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/pkg/core/config"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

var (
	cfgFile   string
	verbose   bool
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rechenwerk",
	Short: "meinRECHENWERK - local function-calling calculator",
	Long: `meinRECHENWERK turns natural-language arithmetic into calculator
function calls with a small local model and executes them exactly.

The running total has fixed precision (default 2 places, half-even
rounding), is bounded in magnitude (default 1000) and keeps one step
of undo.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $RECHENWERK_CONFIG or ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.SilenceErrors = true
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(logging.LoggerConfig{
		Level:  level,
		Format: appConfig.General.LogFormat,
		Output: os.Stderr,
	})
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
