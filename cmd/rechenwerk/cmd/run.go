package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/dispatch"
)

var runKeepGoing bool

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Execute tool-call JSON, one document per line",
	Long: `Reads tool calls as emitted by the model and executes them on one
session. Each line holds a single call, a list of calls, or an object
with a "tool_calls" list. Reads stdin when no file is given.

Example:
  echo '{"name":"add","arguments":{"number":5}}' | rechenwerk run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runKeepGoing, "keep-going", "k", false, "continue with the next line after an error")
}

func runRun(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.newSession()
	if err != nil {
		return err
	}

	failures, err := runLines(context.Background(), session, in, runKeepGoing)
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal: %s\n", session.Format(session.Total()))
	if failures > 0 {
		return fmt.Errorf("%d line(s) failed", failures)
	}
	return nil
}

// runLines dispatches every non-empty line of in. Without keepGoing the
// first failing line ends the run.
func runLines(ctx context.Context, session *dispatch.Session, in io.Reader, keepGoing bool) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	failures := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		results, err := session.Dispatch(ctx, text)
		printResults(results)
		if err != nil {
			failures++
			if results == nil {
				fmt.Printf("line %d: %v\n", line, err)
			}
			if !keepGoing {
				return failures, nil
			}
		}
	}
	return failures, scanner.Err()
}
