package sim

import "swarmlink-sim/internal/telemetry"

// StateWriter handles aggregate swarm state rows.
type StateWriter interface {
	WriteState(telemetry.SwarmStateRow) error
}

// Optional: writers may support batch mode for state rows.
type batchStateWriter interface {
	WriteStates([]telemetry.SwarmStateRow) error
}
