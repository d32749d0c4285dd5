package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardflow",
	Short: "cardflow runs workflow graphs made of cards",
	Long: `cardflow executes card graphs (start, worktask, display, assign, loop) defined in YAML or JSON,
resolving variable tokens against an external store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// graphPath resolves the graph file from the first argument or the --graph flag.
func graphPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("graph")
	if !cmd.Flags().Changed("graph") && len(args) > 0 {
		path = args[0]
	}
	return path
}
