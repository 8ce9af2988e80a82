package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcrowther/veil/internal/scenario"
)

var replayOpts struct {
	frameInterval time.Duration
}

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml> [more.yaml...]",
	Short: "Replay scripted open/close sequences headlessly",
	Long: `Replay one or more scenario files against an in-memory host and print
the observed lifecycle events as YAML.

A scenario looks like:

  name: tooltip hover
  overlay:
    interaction: hover
    open_delay: 100ms
    transition: 50ms
  steps:
    - open: true
    - after: 200ms
      open: false`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().DurationVar(&replayOpts.frameInterval, "frame-interval", 0,
		"Frame cadence for the replay host (default 4ms)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	runner := scenario.NewRunner(logger, replayOpts.frameInterval)

	for _, path := range args {
		s, err := scenario.Load(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		result, err := runner.Run(cmd.Context(), s)
		if err != nil {
			return fmt.Errorf("replaying %s: %w", s.Name, err)
		}

		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "---\n%s", out)
	}
	return nil
}
