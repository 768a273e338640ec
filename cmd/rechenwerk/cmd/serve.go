package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/server"
	"github.com/msto63/rechenwerk/pkg/core/health"
	"github.com/msto63/rechenwerk/pkg/core/version"
)

var serveNoModel bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long: `Serves calculator sessions.

Routes:
  GET  /health              health report (200 or 503)
  GET  /ws                  WebSocket, one session per connection
  POST /api/v1/calc         run tool calls on a fresh session
  GET  /api/v1/operations   list operations
  GET  /api/v1/journal      recent executions (journal enabled)
  GET  /api/v1/version      build information`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoModel, "no-model", false, "disable natural-language questions")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	info := version.Get()
	registry := health.NewRegistry("rechenwerk", info.Version)
	if a.journal != nil {
		registry.Register(health.PingCheck("journal", health.StatusUnhealthy, a.journal.Ping))
	}

	deps := server.Deps{
		NewSession: a.newSession,
		Health:     registry,
		Journal:    a.journal,
	}
	if !serveNoModel {
		deps.NewAgent = a.newAgent
		registry.Register(health.PingCheck("ollama", health.StatusDegraded, a.checkModel))
	}

	srv, err := server.New(server.Config{
		Host:           appConfig.Server.Host,
		Port:           appConfig.Server.Port,
		ReadTimeout:    appConfig.Server.ReadTimeout.Duration,
		WriteTimeout:   appConfig.Server.WriteTimeout.Duration,
		Version:        info.Version,
		AllowedOrigins: appConfig.Server.AllowedOrigins,
	}, deps)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(os.Stderr, "meinRECHENWERK listening on http://%s\n", srv.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "\nStopping server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
