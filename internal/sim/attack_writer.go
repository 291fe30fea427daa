package sim

import "swarmlink-sim/internal/telemetry"

// AttackEventWriter handles attack control events.
type AttackEventWriter interface {
	WriteAttackEvent(telemetry.AttackEventRow) error
}
