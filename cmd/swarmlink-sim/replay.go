package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/sim"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a frame log file",
	Long:  "replay feeds frames from a JSONL log written by simulate --log-file back into GreptimeDB or STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		ctx := cmd.Context()
		writer, cleanup, err := newWriters(ctx, nil, replayPrintOnly, false, "")
		if err != nil {
			return err
		}
		defer cleanup()
		n, err := sim.ReplayLogFile(ctx, replayInput, writer, replaySpeed)
		logging.FromContext(ctx).Info("replay finished", "frames", n)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to frame log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no pacing)")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print frames to STDOUT instead of writing to GreptimeDB")
	_ = replayCmd.MarkFlagRequired("input")
}
