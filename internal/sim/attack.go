package sim

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/scenario"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

// Target selects the drone an attack applies to.
type Target struct {
	id   int
	auto bool
}

// AutoTarget lets the simulator choose according to attacks.target_mode.
func AutoTarget() Target { return Target{auto: true} }

// TargetID addresses one drone explicitly.
func TargetID(id int) Target { return Target{id: id} }

// ParseTarget turns an operator-supplied id into a Target. An empty string
// is an auto target; anything that is not an integer is an error.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AutoTarget(), nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid drone id %q", raw)
	}
	return TargetID(id), nil
}

// Auto reports whether the simulator picks the drone.
func (t Target) Auto() bool { return t.auto }

// Requested returns the explicit id, or nil for an auto target.
func (t Target) Requested() *int {
	if t.auto {
		return nil
	}
	id := t.id
	return &id
}

// ActionResult reports what an attack control did. DroneID is -1 when no
// drone was selected.
type ActionResult struct {
	Action   string        `json:"action"`
	DroneID  int           `json:"drone_id"`
	Applied  bool          `json:"applied"`
	Affected int           `json:"affected"`
	Counts   swarm.Counts  `json:"counts"`
	Status   *swarm.Status `json:"status,omitempty"`
}

// Jam jams the targeted drone for jam_duration_ticks. Non-healthy or
// protected drones are left untouched.
func (s *Simulator) Jam(ctx context.Context, t Target) ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attackLocked(ctx, telemetry.ActionJam, t)
}

// Hijack compromises the targeted drone using attacks.hijack_mode.
func (s *Simulator) Hijack(ctx context.Context, t Target) ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attackLocked(ctx, telemetry.ActionHijack, t)
}

// RestoreAll returns every drone to healthy and clears all jam timers.
func (s *Simulator) RestoreAll(ctx context.Context) ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreLocked(ctx)
}

func (s *Simulator) restoreLocked(ctx context.Context) ActionResult {
	n := s.swarm.RestoreAll()
	res := ActionResult{
		Action:   telemetry.ActionRestore,
		DroneID:  -1,
		Applied:  n > 0,
		Affected: n,
		Counts:   s.swarm.Counts(),
	}
	logging.FromContext(ctx).Info("swarm restored", "affected", n, "tick", s.tick)
	s.recordAttack(ctx, res, nil)
	return res
}

func (s *Simulator) attackLocked(ctx context.Context, action string, t Target) ActionResult {
	log := logging.FromContext(ctx)
	res := ActionResult{Action: action, DroneID: -1}
	d, ok := s.pick(t)
	if ok {
		res.DroneID = d.ID
		switch action {
		case telemetry.ActionJam:
			res.Applied = d.Jam(s.cfg.Swarm.JamDurationTicks)
		case telemetry.ActionHijack:
			res.Applied = d.Hijack(s.cfg.Attacks.HijackMode)
		}
		st := d.Status
		res.Status = &st
		if res.Applied {
			res.Affected = 1
		}
	}
	res.Counts = s.swarm.Counts()
	if res.Applied {
		log.Info("attack applied", "action", action, "drone_id", res.DroneID, "status", res.Status.String(), "tick", s.tick)
	} else {
		log.Debug("attack ignored", "action", action, "drone_id", res.DroneID, "tick", s.tick)
	}
	s.recordAttack(ctx, res, t.Requested())
	return res
}

// pick resolves a target to a drone. Explicit ids that are out of range or
// protected resolve to nothing.
func (s *Simulator) pick(t Target) (*swarm.Drone, bool) {
	if !t.auto {
		if s.protected(t.id) {
			return nil, false
		}
		return s.swarm.Get(t.id)
	}
	var candidates []int
	switch s.cfg.Attacks.TargetMode {
	case config.TargetPath:
		if len(s.frame.Path) > 2 {
			candidates = s.frame.Path[1 : len(s.frame.Path)-1]
		}
	default:
		for _, d := range s.swarm.Drones {
			if !s.protected(d.ID) {
				candidates = append(candidates, d.ID)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return s.swarm.Get(candidates[s.rand.Intn(len(candidates))])
}

func (s *Simulator) protected(id int) bool {
	return s.cfg.Attacks.ProtectEndpoints && s.swarm.IsEndpoint(id)
}

func (s *Simulator) recordAttack(ctx context.Context, res ActionResult, requested *int) {
	s.metrics.ObserveAttack(res.Action, res.Applied)
	aw, ok := s.writer.(AttackEventWriter)
	if !ok {
		return
	}
	row := telemetry.AttackEventRow{
		ClusterID: s.cfg.ClusterID,
		Action:    res.Action,
		Requested: requested,
		DroneID:   res.DroneID,
		Applied:   res.Applied,
		Affected:  res.Affected,
		Tick:      s.tick,
		Timestamp: s.now().UTC(),
	}
	if err := aw.WriteAttackEvent(row); err != nil {
		logging.FromContext(ctx).Error("attack event write failed", "action", res.Action, "err", err)
	}
}

// applyStep runs one scripted scenario step. Negative targets count back
// from the last drone.
func (s *Simulator) applyStep(ctx context.Context, st scenario.Step) {
	if st.Action == scenario.ActionRestore {
		s.restoreLocked(ctx)
		return
	}
	t := AutoTarget()
	if st.Target != nil {
		id := *st.Target
		if id < 0 {
			id += len(s.swarm.Drones)
		}
		t = TargetID(id)
	}
	s.attackLocked(ctx, st.Action, t)
}
