package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/rechenwerk/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("meinRECHENWERK v%s\n", info.Version)
		if info.Commit != "" {
			fmt.Printf("  Git Commit: %s\n", info.Commit)
		}
		if info.BuildDate != "" {
			fmt.Printf("  Build Date: %s\n", info.BuildDate)
		}
		fmt.Printf("  Go Version: %s\n", info.GoVersion)
		fmt.Printf("  OS/Arch:    %s\n", info.Platform)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
