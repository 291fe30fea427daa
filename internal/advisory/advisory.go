// Package advisory produces a short tactical briefing for the current swarm
// state from an external text-generation service.
package advisory

import (
	"context"
	"fmt"
	"strings"

	"swarmlink-sim/internal/logging"
)

// Messages shown instead of a briefing when the request does not produce one.
const (
	FailureMessage = "Error: Communication with HYDRA Command failed. Check logs for details."
	EmptyMessage   = "Could not retrieve briefing from HYDRA Command. The response was empty."
)

// Summary is the aggregate swarm state a briefing is based on.
type Summary struct {
	Total      int  `json:"total"`
	Healthy    int  `json:"healthy"`
	Jammed     int  `json:"jammed"`
	Hijacked   int  `json:"hijacked"`
	PathActive bool `json:"path_active"`
}

// Prompt renders the status report sent to the generator.
func (s Summary) Prompt() string {
	link := "Compromised"
	if s.PathActive {
		link = "Active"
	}
	var b strings.Builder
	b.WriteString("Current Swarm Status Report:\n")
	fmt.Fprintf(&b, "- Total Drones: %d\n", s.Total)
	fmt.Fprintf(&b, "- Healthy: %d\n", s.Healthy)
	fmt.Fprintf(&b, "- Jammed: %d\n", s.Jammed)
	fmt.Fprintf(&b, "- Hijacked: %d\n", s.Hijacked)
	fmt.Fprintf(&b, "- Primary Communication Link: %s\n\n", link)
	b.WriteString("Provide your tactical assessment and one recommendation.")
	return b.String()
}

// Generator produces text for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Brief asks gen for a briefing. It never fails: any error or an empty
// answer is converted into one of the fixed user-facing messages.
// The second result reports whether a real briefing was produced.
func Brief(ctx context.Context, gen Generator, system string, s Summary) (string, bool) {
	log := logging.FromContext(ctx)
	if gen == nil {
		log.Warn("briefing requested without a generator")
		return FailureMessage, false
	}
	text, err := gen.Generate(ctx, system, s.Prompt())
	if err != nil {
		log.Error("briefing request failed", "err", err)
		return FailureMessage, false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("briefing response was empty")
		return EmptyMessage, false
	}
	return text, true
}
