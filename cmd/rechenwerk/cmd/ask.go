package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askShowCalls bool

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Ask the model a calculation in plain language",
	Long: `Sends the text to the configured model, executes the calls it
returns and prints the result.

Example:
  rechenwerk ask "add twelve and thirty, then take ten percent off"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askShowCalls, "calls", false, "print the executed calls")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Model.Timeout.Duration)
	defer cancel()

	if err := a.checkModel(ctx); err != nil {
		return err
	}

	session, err := a.newSession()
	if err != nil {
		return err
	}
	ag, err := a.newAgent(session)
	if err != nil {
		return err
	}

	turn, err := ag.Ask(ctx, strings.Join(args, " "))
	if askShowCalls {
		printResults(turn.Results)
		if len(turn.Results) == 0 && turn.Raw != "" {
			fmt.Printf("model output: %s\n", turn.Raw)
		}
	}
	if err != nil {
		return err
	}
	fmt.Println(turn.Reply())
	return nil
}
