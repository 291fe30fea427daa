package sim

import "swarmlink-sim/internal/advisory"

// BriefingWriter receives settled tactical briefings.
type BriefingWriter interface {
	WriteBriefing(advisory.State) error
}
