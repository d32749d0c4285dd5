package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/cardflow/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [graph]",
	Short: "Run a card graph in the terminal",
	Long:  `Runs the graph from its start card. Worktasks park until confirmed at the prompt.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readOptions(cmd, args)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.Run(ctx, opts, os.Stdin, cmd.OutOrStdout())
		if errors.Is(err, cli.ErrQuit) {
			if sig := ctx.Signal(); sig != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nInterrupted by %v\n", sig)
			}
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addEngineFlags(runCmd)
	runCmd.Flags().BoolP("quiet", "q", false, "Only print card content")
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("graph", "g", "flow.yaml", "Graph definition file (YAML or JSON)")
	cmd.Flags().String("jobs", "", "Job allow-list file (defaults to jobs.yaml next to the graph)")
	cmd.Flags().String("store", "", "JSON or YAML file holding the variables")
	cmd.Flags().String("redis", "", "Redis URL of the variable store (e.g. redis://localhost:6379/0)")
	cmd.Flags().String("feed", "", "URL of an SSE change feed")
	cmd.Flags().Duration("sync-timeout", 0, "How long a worktask waits for its output variable")
	cmd.Flags().StringArray("var", nil, "Seed a variable as identifier=value (repeatable)")
}

func readOptions(cmd *cobra.Command, args []string) (cli.Options, error) {
	opts := cli.Options{GraphPath: graphPath(cmd, args)}
	var err error
	if opts.JobsPath, err = cmd.Flags().GetString("jobs"); err != nil {
		return opts, err
	}
	if opts.StorePath, err = cmd.Flags().GetString("store"); err != nil {
		return opts, err
	}
	if opts.RedisURL, err = cmd.Flags().GetString("redis"); err != nil {
		return opts, err
	}
	if opts.FeedURL, err = cmd.Flags().GetString("feed"); err != nil {
		return opts, err
	}
	if opts.SyncTimeout, err = cmd.Flags().GetDuration("sync-timeout"); err != nil {
		return opts, err
	}
	if opts.Vars, err = cmd.Flags().GetStringArray("var"); err != nil {
		return opts, err
	}
	opts.Debug, _ = cmd.Flags().GetBool("debug")
	opts.Quiet, _ = cmd.Flags().GetBool("quiet")
	return opts, nil
}
