package main

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"swarmlink-sim/internal/admin"
	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/metrics"
	"swarmlink-sim/internal/scenario"
	"swarmlink-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTUI        bool
	simLogFile    string
	simScenario   string
	simAdminAddr  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time swarm simulator",
	Long: "simulate runs the swarm at the configured tick rate, maintains the trusted path " +
		"between the start and end drones and accepts jam, hijack and briefing requests.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}

		if simTUI && stdoutIsTerminal() {
			// the alternate screen owns the terminal
			l, err := logging.NewWithLevel(io.Discard, logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(l)
			ctx = logging.NewContext(ctx, l)
		}
		log := logging.FromContext(ctx).With("run_id", uuid.NewString(), "cluster_id", cfg.ClusterID)
		ctx = logging.NewContext(ctx, log)

		var sc *scenario.Scenario
		if simScenario != "" {
			if sc, err = scenario.Resolve(simScenario); err != nil {
				return err
			}
			log.Info("scenario loaded", "name", sc.Name, "steps", len(sc.Steps))
		}

		var advisor advisory.Generator
		if gen, err := advisory.NewOpenAIGenerator(cfg.Advisory.Model, cfg.Advisory.BaseURL); err != nil {
			log.Warn("briefings will report a communication failure", "err", err)
		} else {
			advisor = gen
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		var extra []sim.FrameWriter
		var hub *admin.Hub
		if simAdminAddr != "" {
			hub = admin.NewHub()
			extra = append(extra, hub)
		}
		writer, cleanup, err := newWriters(ctx, cfg, simPrintOnly, simTUI, simLogFile, extra...)
		if err != nil {
			return err
		}
		defer cleanup()

		simulator, err := sim.NewSimulator(cfg, sim.Options{
			Writer:   writer,
			Metrics:  metrics.New(reg),
			Scenario: sc,
			Advisor:  advisor,
		})
		if err != nil {
			return err
		}
		if cs, ok := writer.(sim.ControllerSetter); ok {
			cs.SetController(simulator)
		}

		if hub != nil {
			srv := admin.NewServer(simulator, hub, reg)
			go func() {
				as, hasStatus := writer.(sim.AdminStatusWriter)
				if hasStatus {
					as.SetAdminStatus(true)
				}
				if err := srv.Start(ctx, simAdminAddr); err != nil {
					log.Error("admin server failed", "addr", simAdminAddr, "err", err)
				}
				if hasStatus {
					as.SetAdminStatus(false)
				}
			}()
		}

		simulator.Run(ctx)
		log.Info("swarm simulation stopped", "tick", simulator.Tick())
		return nil
	},
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print frames to STDOUT instead of writing to GreptimeDB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file (empty to skip)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render the swarm in a terminal UI with attack key bindings")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export frames as JSONL (.state and .events files alongside)")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or path to a scenario YAML")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin HTTP address (empty to disable)")
}
