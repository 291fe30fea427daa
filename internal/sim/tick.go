package sim

import (
	"context"
	"time"

	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/motion"
	"swarmlink-sim/internal/obstacle"
	"swarmlink-sim/internal/telemetry"
)

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval, "drones", len(s.swarm.Drones))
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Step(ctx)
		case <-ctx.Done():
			log.Info("stopping simulator", "tick", s.Tick())
			return
		}
	}
}

// Step advances the simulation by one tick and returns the new frame. It is
// independent of wall-clock rate.
func (s *Simulator) Step(ctx context.Context) telemetry.FrameRow {
	started := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.tick + 1
	s.tick = n

	// timers tick down before this tick's scripted attacks land, so a jam
	// applied at n stays visible for the full jam duration starting at n
	for _, d := range s.swarm.Drones {
		d.Recover()
		d.Drain(s.cfg.Swarm.BatteryDrain)
	}
	for _, st := range s.scenario.Due(n) {
		s.applyStep(ctx, st)
	}

	var obs []obstacle.Obstacle
	if s.field != nil {
		s.field.Step()
		obs = s.field.Obstacles
	}
	env := motion.Env{
		Bounds:    s.bounds,
		Tick:      n,
		Others:    s.swarm.Positions(),
		Obstacles: obs,
	}
	for _, d := range s.swarm.Drones {
		s.model.Move(d, env)
	}

	frame := s.buildFrame(n)
	s.frame = frame

	hops := 0
	if len(frame.Path) > 0 {
		hops = len(frame.Path) - 1
	}
	s.metrics.ObserveTick(frame.Counts(), hops, frame.PathActive, frame.Full.EdgeCount(), frame.Trusted.EdgeCount(), time.Since(started))

	s.pending = append(s.pending, s.teleGen.State(frame))
	if n%s.emitEvery == 0 {
		s.emit(ctx, frame)
	}
	return frame
}

// emit hands the frame and the buffered state rows to the writer. Writer
// errors are logged and never stop the loop.
func (s *Simulator) emit(ctx context.Context, frame telemetry.FrameRow) {
	states := s.pending
	s.pending = nil
	if s.writer == nil {
		return
	}
	log := logging.FromContext(ctx)
	if err := s.writer.WriteFrame(frame); err != nil {
		log.Error("frame write failed", "tick", frame.Tick, "err", err)
	}

	// Batch support if writer implements WriteStates
	if bw, ok := s.writer.(batchStateWriter); ok {
		if err := bw.WriteStates(states); err != nil {
			log.Error("state batch write failed", "tick", frame.Tick, "err", err)
		}
		return
	}
	if sw, ok := s.writer.(StateWriter); ok {
		for _, row := range states {
			if err := sw.WriteState(row); err != nil {
				log.Error("state write failed", "tick", row.Tick, "err", err)
			}
		}
	}
}
