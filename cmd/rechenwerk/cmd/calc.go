package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/dispatch"
)

var calcCmd = &cobra.Command{
	Use:   "calc <operation> [value] ...",
	Short: "Run a sequence of operations without a model",
	Long: `Runs operations in order on a fresh session and prints every
intermediate total. Execution stops at the first error.

Operations: add, subtract, multiply, divide, percent, percent_add,
percent_subtract (take a value), get_total, clear, clear_all.

Examples:
  rechenwerk calc add 10.5 percent_add 10
  rechenwerk calc add 3 multiply 4 clear get_total`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, args []string) error {
	calls, err := parseCalcArgs(args)
	if err != nil {
		return err
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

	results, err := session.Run(context.Background(), calls)
	printResults(results)
	fmt.Printf("\nTotal: %s\n", session.Format(session.Total()))
	return err
}

// parseCalcArgs turns "add 5 multiply 3 get_total" into calls
func parseCalcArgs(args []string) ([]dispatch.Call, error) {
	var calls []dispatch.Call
	for i := 0; i < len(args); i++ {
		op, err := dispatch.ParseOperation(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		if !op.NeedsOperand() {
			calls = append(calls, dispatch.NewCall(op, nil))
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("%s needs a value", op)
		}
		i++
		calls = append(calls, dispatch.NewCall(op, args[i]))
	}
	return calls, nil
}
