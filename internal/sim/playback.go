package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"swarmlink-sim/internal/telemetry"
)

// ReplayLog replays frames from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(ctx context.Context, r io.Reader, writer FrameWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var f telemetry.FrameRow
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("decode frame %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := f.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-time.After(diff):
				case <-ctx.Done():
					return n, ctx.Err()
				}
			}
		}
		if err := writer.WriteFrame(f); err != nil {
			return n, err
		}
		n++
		prev = f.Timestamp
	}
}

// ReplayLogFile opens a file and replays its frames.
func ReplayLogFile(ctx context.Context, path string, writer FrameWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
