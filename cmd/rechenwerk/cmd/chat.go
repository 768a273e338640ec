package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/agent"
	"github.com/msto63/rechenwerk/internal/tui/calcchat"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

var chatNoModel bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive calculator chat",
	Long: `Opens the terminal chat. Plain text goes to the model; input that
starts with { or [ is executed directly as tool calls.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatNoModel, "no-model", false, "accept JSON calls only")
}

func runChat(cmd *cobra.Command, args []string) error {
	// the alt screen owns the terminal, so logs go to a file
	logFile, err := openLogFile(filepath.Join(appConfig.General.DataDir, "chat.log"))
	if err != nil {
		return err
	}
	defer logFile.Close()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession()
	if err != nil {
		return err
	}

	cfg := calcchat.Config{
		Session:     session,
		ModelName:   appConfig.Model.Name,
		HistoryPath: filepath.Join(appConfig.General.DataDir, "chat_history.json"),
		TurnTimeout: appConfig.Model.Timeout.Duration,
	}
	if !chatNoModel {
		var ag *agent.Agent
		if ag, err = a.newAgent(session); err != nil {
			return err
		}
		cfg.Agent = ag
		cfg.Probe = func(ctx context.Context) error { return a.checkModel(ctx) }
	}

	return calcchat.Run(cfg)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	logging.Configure(logging.LoggerConfig{
		Level:  level,
		Format: appConfig.General.LogFormat,
		Output: f,
	})
	return f, nil
}
