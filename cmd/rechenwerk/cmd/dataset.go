package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/internal/dataset"
)

var (
	datasetCount     int
	datasetSeed      uint64
	datasetOutput    string
	datasetTemplates string
	datasetMax       int
	datasetDigits    float64
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Generate function-calling training examples as JSONL",
	Long: `Writes {"user": ..., "tool_calls": [...]} lines built from sentence
templates. The same seed always produces the same file.

Examples:
  rechenwerk dataset --count 500 --output -
  rechenwerk dataset --templates my_templates.yaml --seed 7`,
	RunE: runDataset,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.Flags().IntVarP(&datasetCount, "count", "n", 0, "number of examples (default from config)")
	datasetCmd.Flags().Uint64Var(&datasetSeed, "seed", 0, "random seed (default from config)")
	datasetCmd.Flags().StringVarP(&datasetOutput, "output", "o", "", `output file, "-" for stdout (default from config)`)
	datasetCmd.Flags().StringVar(&datasetTemplates, "templates", "", "YAML template file (default: built-in)")
	datasetCmd.Flags().IntVar(&datasetMax, "max", 100, "largest operand")
	datasetCmd.Flags().Float64Var(&datasetDigits, "digits", 0, "share of operands written as digits (0..1)")
}

func runDataset(cmd *cobra.Command, args []string) error {
	count := appConfig.Dataset.Count
	if cmd.Flags().Changed("count") {
		count = datasetCount
	}
	seed := appConfig.Dataset.Seed
	if cmd.Flags().Changed("seed") {
		seed = datasetSeed
	}
	output := appConfig.Dataset.Output
	if datasetOutput != "" {
		output = datasetOutput
	}
	templatePath := appConfig.Dataset.Templates
	if datasetTemplates != "" {
		templatePath = datasetTemplates
	}

	var templates []dataset.Template
	if templatePath != "" {
		var err error
		if templates, err = dataset.LoadTemplates(templatePath); err != nil {
			return err
		}
	}

	cfg := dataset.DefaultConfig()
	cfg.Seed = seed
	cfg.Max = datasetMax
	cfg.DigitRatio = datasetDigits
	gen, err := dataset.NewGenerator(templates, cfg)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return err
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := dataset.WriteJSONL(w, gen.Generate(count)); err != nil {
		return err
	}
	if output != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %d examples to %s\n", count, output)
	}
	return nil
}
