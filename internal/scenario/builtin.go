package scenario

// burst schedules n untargeted actions at the same tick, followed by rest.
func burst(at int64, n int, action string, rest []Step) []Step {
	steps := make([]Step, 0, n+len(rest))
	for i := 0; i < n; i++ {
		steps = append(steps, Step{At: at, Action: action})
	}
	return append(steps, rest...)
}

// BuiltIn returns the predefined attack scripts keyed by name.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"jam-wave": {
			Name:        "Jam Wave",
			Description: "Successive jamming bursts sweep the swarm, testing how fast the trusted link heals.",
			Steps: []Step{
				{At: 60, Action: ActionJam},
				{At: 90, Action: ActionJam},
				{At: 120, Action: ActionJam},
				{At: 150, Action: ActionJam},
				{At: 180, Action: ActionJam},
				{At: 600, Action: ActionJam},
				{At: 620, Action: ActionJam},
				{At: 640, Action: ActionJam},
			},
		},
		"insider-hijack": {
			Name:        "Insider Hijack",
			Description: "Relays on the active path are compromised one by one until command restores the swarm.",
			Steps: []Step{
				{At: 120, Action: ActionHijack},
				{At: 240, Action: ActionHijack},
				{At: 360, Action: ActionHijack},
				{At: 480, Action: ActionHijack},
				{At: 900, Action: ActionRestore},
			},
		},
		"blackout": {
			Name:        "Blackout",
			Description: "A single massive jamming burst silences most of the swarm, then a second burst hits as it recovers.",
			Steps:       burst(60, 12, ActionJam, append(burst(400, 6, ActionJam, nil), Step{At: 700, Action: ActionRestore})),
		},
	}
}
