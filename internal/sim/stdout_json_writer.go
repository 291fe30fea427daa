package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/telemetry"
)

// JSONStdoutWriter prints frames, state rows and attack events as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) print(kind string, v any) error {
	data, err := json.Marshal(struct {
		Kind string `json:"kind"`
		Data any    `json:"data"`
	}{kind, v})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteFrame outputs a frame in JSON format.
func (w *JSONStdoutWriter) WriteFrame(f telemetry.FrameRow) error {
	return w.print("frame", f)
}

// WriteState outputs a swarm state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row telemetry.SwarmStateRow) error {
	return w.print("state", row)
}

// WriteStates outputs multiple state rows in JSON format.
func (w *JSONStdoutWriter) WriteStates(rows []telemetry.SwarmStateRow) error {
	for _, r := range rows {
		if err := w.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAttackEvent outputs an attack event in JSON format.
func (w *JSONStdoutWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	return w.print("attack", e)
}

// WriteBriefing outputs a settled briefing in JSON format.
func (w *JSONStdoutWriter) WriteBriefing(st advisory.State) error {
	return w.print("briefing", st)
}
