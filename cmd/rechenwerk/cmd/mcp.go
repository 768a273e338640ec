package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/mcpserver"
	"github.com/msto63/rechenwerk/pkg/core/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the calculator as MCP tools over stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout. Every
operation is a tool; all tools share one running total.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession()
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(session, mcpserver.Config{
		Name:    "rechenwerk",
		Version: version.Get().Version,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
