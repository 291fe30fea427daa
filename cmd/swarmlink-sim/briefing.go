package main

import (
	"context"
	"fmt"
	"io"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/scenario"
	"swarmlink-sim/internal/sim"
)

var (
	briefConfigPath string
	briefSchemaPath string
	briefScenario   string
	briefTicks      int
)

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Run the swarm for a number of ticks and print a tactical briefing",
	Long: "briefing advances the simulation without wall-clock pacing, optionally under a " +
		"scenario, then asks HYDRA Command for an assessment of the final swarm state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load(briefConfigPath, briefSchemaPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		var sc *scenario.Scenario
		if briefScenario != "" {
			if sc, err = scenario.Resolve(briefScenario); err != nil {
				return err
			}
		}
		var advisor advisory.Generator
		if gen, err := advisory.NewOpenAIGenerator(cfg.Advisory.Model, cfg.Advisory.BaseURL); err == nil {
			advisor = gen
		}
		s, err := sim.NewSimulator(cfg, sim.Options{Scenario: sc, Advisor: advisor})
		if err != nil {
			return err
		}
		st, err := runBriefing(ctx, s, briefTicks)
		if err != nil {
			return err
		}
		printBriefing(cmd.OutOrStdout(), s, st)
		return nil
	},
}

// runBriefing steps s ticks times, then requests a briefing and waits for it.
func runBriefing(ctx context.Context, s *sim.Simulator, ticks int) (advisory.State, error) {
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			return advisory.State{}, ctx.Err()
		}
		s.Step(ctx)
	}
	if err := s.RequestBriefing(ctx); err != nil {
		return advisory.State{}, err
	}
	return s.AwaitBriefing(ctx)
}

func printBriefing(w io.Writer, s *sim.Simulator, st advisory.State) {
	sum := s.Summary()
	link := "compromised"
	if sum.PathActive {
		link = "active"
	}
	fmt.Fprintf(w, "tick=%d total=%d healthy=%d jammed=%d hijacked=%d link=%s\n",
		s.Tick(), sum.Total, sum.Healthy, sum.Jammed, sum.Hijacked, link)
	fmt.Fprintln(w, wordwrap.String("HYDRA Command: "+st.Text, 80))
}

func init() {
	briefingCmd.Flags().StringVar(&briefConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	briefingCmd.Flags().StringVar(&briefSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file (empty to skip)")
	briefingCmd.Flags().StringVar(&briefScenario, "scenario", "", "Built-in scenario name or path to a scenario YAML")
	briefingCmd.Flags().IntVar(&briefTicks, "ticks", 600, "Ticks to simulate before the briefing")
}
