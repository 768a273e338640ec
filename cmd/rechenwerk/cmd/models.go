package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List installed Ollama models",
	Long: `Lists the models of the configured Ollama instance and marks the
one the calculator uses.

Examples:
  rechenwerk models
  rechenwerk models pull functiongemma`,
	RunE: runModels,
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull [model]",
	Short: "Download a model (default: the configured one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelsPull,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsPullCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.ollama.Ping(ctx); err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w\nStart it with: ollama serve", a.ollama.BaseURL(), err)
	}
	models, err := a.models.Models(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	if len(models.Models) == 0 {
		fmt.Println("No models installed.")
		fmt.Printf("  rechenwerk models pull %s\n", appConfig.Model.Name)
		return nil
	}

	fmt.Printf("  %-32s %-10s %-10s\n", "MODEL", "SIZE", "FAMILY")
	fmt.Println(strings.Repeat("-", 58))
	for _, m := range models.Models {
		marker := " "
		if m.Name == appConfig.Model.Name || m.Name == appConfig.Model.Name+":latest" {
			marker = "*"
		}
		family := m.Details.Family
		if family == "" {
			family = "-"
		}
		fmt.Printf("%s %-32s %-10s %-10s\n", marker, m.Name, formatSize(m.Size), family)
	}
	fmt.Printf("\n%d model(s), * = configured\n", len(models.Models))
	return nil
}

func runModelsPull(cmd *cobra.Command, args []string) error {
	name := appConfig.Model.Name
	if len(args) == 1 {
		name = args[0]
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Pulling %s\n", name)

	progressCh, errCh := a.ollama.PullModel(context.Background(), name)
	last := ""
	for p := range progressCh {
		line := p.Status
		if p.Total > 0 {
			line = fmt.Sprintf("%s %3.0f%%", p.Status, float64(p.Completed)/float64(p.Total)*100)
		}
		if line != last {
			fmt.Printf("\r%-60s", line)
			last = line
		}
	}
	fmt.Println()

	if err := <-errCh; err != nil {
		return err
	}
	a.models.Invalidate()
	fmt.Println("Done.")
	return nil
}

func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
