package sim

import (
	"errors"
	"io"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/telemetry"
)

// MultiWriter fans frames, state rows, attack events and briefings out to
// every writer that supports them. A failing writer does not starve the
// others; their errors are joined.
type MultiWriter struct {
	writers []FrameWriter
}

// NewMultiWriter creates a new MultiWriter. Nil writers are skipped.
func NewMultiWriter(ws ...FrameWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// WriteFrame sends a frame to all writers.
func (mw *MultiWriter) WriteFrame(f telemetry.FrameRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteFrame(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row telemetry.SwarmStateRow) error {
	return mw.WriteStates([]telemetry.SwarmStateRow{row})
}

// WriteStates sends state rows to all state writers, using batch if supported.
func (mw *MultiWriter) WriteStates(rows []telemetry.SwarmStateRow) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchStateWriter); ok {
			if err := bw.WriteStates(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		sw, ok := w.(StateWriter)
		if !ok {
			continue
		}
		for _, r := range rows {
			if err := sw.WriteState(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteAttackEvent sends an attack event to all attack event writers.
func (mw *MultiWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	var errs []error
	for _, w := range mw.writers {
		if aw, ok := w.(AttackEventWriter); ok {
			if err := aw.WriteAttackEvent(e); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteBriefing sends a settled briefing to all briefing writers.
func (mw *MultiWriter) WriteBriefing(st advisory.State) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(BriefingWriter); ok {
			if err := bw.WriteBriefing(st); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetController forwards the controller to writers that accept operator input.
func (mw *MultiWriter) SetController(c Controller) {
	for _, w := range mw.writers {
		if cs, ok := w.(ControllerSetter); ok {
			cs.SetController(c)
		}
	}
}

// SetAdminStatus forwards the admin server status to interested writers.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if as, ok := w.(AdminStatusWriter); ok {
			as.SetAdminStatus(listening)
		}
	}
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
