package main

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"

	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/sim"
	"swarmlink-sim/internal/telemetry"
)

// stdoutIsTerminal is swapped in tests.
var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// useGreptime reports whether frames go to GreptimeDB.
func useGreptime(printOnly bool) bool {
	return !printOnly && os.Getenv("GREPTIMEDB_ENDPOINT") != ""
}

// newWriters sets up the frame writer chain based on flags and env vars.
// extra writers (the admin hub) join the fan-out. The cleanup function closes
// any resources.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, printOnly, tui bool, logFile string, extra ...sim.FrameWriter) (sim.FrameWriter, func(), error) {
	ws, err := baseWriters(ctx, cfg, printOnly, tui)
	if err != nil {
		return nil, nil, err
	}
	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".state", logFile+".events")
		if err != nil {
			closeAll(ws)
			return nil, nil, err
		}
		ws = append(ws, fw)
	}
	ws = append(ws, extra...)

	if len(ws) == 1 {
		w := ws[0]
		return w, func() { closeAll(ws) }, nil
	}
	mw := sim.NewMultiWriter(ws...)
	return mw, func() { _ = mw.Close() }, nil
}

// baseWriters chooses the primary outputs: GreptimeDB when configured, then
// the TUI on a terminal when requested, otherwise colored or JSON STDOUT.
func baseWriters(ctx context.Context, cfg *config.SimulationConfig, printOnly, tui bool) ([]sim.FrameWriter, error) {
	var ws []sim.FrameWriter
	if useGreptime(printOnly) {
		db := os.Getenv("GREPTIMEDB_DATABASE")
		if db == "" {
			db = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), db,
			telemetry.SwarmStateTableName, telemetry.AttackEventTableName, telemetry.DronePositionTableName)
		if err != nil {
			return nil, err
		}
		ws = append(ws, gw)
	}
	switch {
	case tui && stdoutIsTerminal():
		ws = append(ws, sim.NewTUIWriter(ctx, cfg))
	case tui:
		logging.FromContext(ctx).Warn("stdout is not a terminal, TUI disabled")
		fallthrough
	case len(ws) == 0:
		if stdoutIsTerminal() {
			ws = append(ws, sim.NewColorStdoutWriter(cfg))
		} else {
			ws = append(ws, sim.NewJSONStdoutWriter())
		}
	}
	return ws, nil
}

func closeAll(ws []sim.FrameWriter) {
	for _, w := range ws {
		if c, ok := w.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
