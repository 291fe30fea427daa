// Simulator owning the swarm, its graphs and the attack controls
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/graph"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/metrics"
	"swarmlink-sim/internal/motion"
	"swarmlink-sim/internal/obstacle"
	"swarmlink-sim/internal/scenario"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

// FrameWriter receives the renderable state after each emitted tick.
type FrameWriter interface {
	WriteFrame(telemetry.FrameRow) error
}

// Options carries the collaborators of a Simulator. Every field is optional.
type Options struct {
	Writer   FrameWriter
	Metrics  *metrics.Metrics
	Scenario *scenario.Scenario
	Advisor  advisory.Generator
	Rand     *rand.Rand
	Now      func() time.Time
}

// Simulator is the single owner of all simulation state. The tick loop and
// the attack controls are serialised by mu.
type Simulator struct {
	cfg          *config.SimulationConfig
	swarm        *swarm.Swarm
	model        motion.Model
	field        *obstacle.Field
	bounds       motion.Bounds
	teleGen      *telemetry.Generator
	writer       FrameWriter
	metrics      *metrics.Metrics
	scenario     *scenario.Scenario
	briefing     *advisory.Task
	rand         *rand.Rand
	now          func() time.Time
	tickInterval time.Duration
	emitEvery    int64
	tick         int64
	frame        telemetry.FrameRow
	pending      []telemetry.SwarmStateRow
	mu           sync.Mutex
}

// NewSimulator places the swarm and computes the initial frame.
func NewSimulator(cfg *config.SimulationConfig, opts Options) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	model, err := motion.New(cfg.Motion.Model, motion.Drift{
		Amplitude:        cfg.Motion.DriftAmplitude,
		Frequency:        cfg.Motion.DriftFrequency,
		AvoidRadius:      cfg.Motion.AvoidanceRadius,
		Gain:             cfg.Motion.AvoidanceGain,
		MaxVerticalSpeed: cfg.Motion.MaxVerticalSpeed,
	})
	if err != nil {
		return nil, fmt.Errorf("motion model: %w", err)
	}
	rng := opts.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rate := cfg.TickRate
	if rate <= 0 {
		rate = 60
	}
	emitEvery := int64(cfg.EmitEvery)
	if emitEvery <= 0 {
		emitEvery = 1
	}

	s := &Simulator{
		cfg:          cfg,
		model:        model,
		bounds:       motion.Bounds{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		teleGen:      telemetry.NewGenerator(cfg.ClusterID),
		writer:       opts.Writer,
		metrics:      opts.Metrics,
		scenario:     opts.Scenario,
		briefing:     advisory.NewTask(opts.Advisor, cfg.Advisory.SystemPrompt, cfg.Advisory.TimeoutDuration()),
		rand:         rng,
		now:          now,
		tickInterval: time.Second / time.Duration(rate),
		emitEvery:    emitEvery,
	}
	s.swarm = swarm.New(cfg.Swarm.DroneCount, cfg.Canvas.Width, cfg.Canvas.Height, cfg.Swarm.MaxSpeed, cfg.Swarm.DroneRadius, rng)
	if cfg.Motion.Model == motion.ModelDrift {
		s.field = obstacle.NewField(cfg.Motion.ObstacleCount, cfg.Canvas.Width, cfg.Canvas.Height, cfg.Motion.ObstacleSpeed, cfg.Motion.ObstacleRadius, rng)
	}
	s.briefing.SetObserver(s.briefingSettled)
	s.frame = s.buildFrame(0)
	return s, nil
}

// Tick returns the number of completed ticks.
func (s *Simulator) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Snapshot returns the most recent frame.
func (s *Simulator) Snapshot() telemetry.FrameRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Config returns the simulation configuration.
func (s *Simulator) Config() *config.SimulationConfig {
	return s.cfg
}

// Summary reports live status counts and whether the most recent trusted
// path exists.
func (s *Simulator) Summary() advisory.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Simulator) summaryLocked() advisory.Summary {
	c := s.swarm.Counts()
	return advisory.Summary{
		Total:      c.Total,
		Healthy:    c.Healthy,
		Jammed:     c.Jammed,
		Hijacked:   c.Hijacked,
		PathActive: s.frame.PathActive,
	}
}

// RequestBriefing starts a tactical briefing for the current swarm state. It
// returns advisory.ErrPending while an earlier request is still running.
func (s *Simulator) RequestBriefing(ctx context.Context) error {
	err := s.briefing.Start(ctx, s.Summary())
	if err != nil {
		logging.FromContext(ctx).Debug("briefing request rejected", "err", err)
		return err
	}
	logging.FromContext(ctx).Info("briefing requested")
	return nil
}

// Briefing returns the current briefing state.
func (s *Simulator) Briefing() advisory.State {
	return s.briefing.State()
}

// AwaitBriefing blocks until the pending briefing settles or ctx is done.
func (s *Simulator) AwaitBriefing(ctx context.Context) (advisory.State, error) {
	return s.briefing.Wait(ctx)
}

func (s *Simulator) briefingSettled(ok bool) {
	s.metrics.ObserveBriefing(ok)
	st := s.briefing.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	if bw, isBW := s.writer.(BriefingWriter); isBW {
		_ = bw.WriteBriefing(st)
	}
}

// buildFrame rebuilds both graphs and the trusted path from the current
// swarm. Callers hold mu, except during construction.
func (s *Simulator) buildFrame(tick int64) telemetry.FrameRow {
	nodes := graph.NodesFrom(s.swarm.Drones)
	full, trusted := graph.Build(nodes, s.cfg.Swarm.CommunicationRange)
	path, _ := graph.ShortestPath(trusted, s.swarm.Start, s.swarm.End)
	var obs []obstacle.Obstacle
	if s.field != nil {
		obs = s.field.Snapshot()
	}
	return s.teleGen.Frame(tick, s.swarm, obs, full, trusted, path, s.now())
}
