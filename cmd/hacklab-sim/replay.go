package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hacklab-sim/internal/battle"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a battle event log file",
	Long:  "replay feeds event rows from a log file back into GreptimeDB or STDOUT with original pacing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		writer, err := newEventWriter(replayPrintOnly)
		if err != nil {
			return err
		}
		return battle.ReplayLogFile(replayInput, writer, replaySpeed)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to battle event log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print events to STDOUT instead of writing to DB")
	replayCmd.MarkFlagRequired("input")
}
