// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"swarmlink-sim/internal/swarm"
)

// Canvas is the simulated 2-D area in canvas units.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Swarm configures the drones and their communication links.
type Swarm struct {
	DroneCount         int     `yaml:"drone_count"`
	DroneRadius        float64 `yaml:"drone_radius"`
	MaxSpeed           float64 `yaml:"max_speed"`
	CommunicationRange float64 `yaml:"communication_range"`
	JamDurationTicks   int     `yaml:"jam_duration_ticks"`
	BatteryDrain       float64 `yaml:"battery_drain"`
}

// Motion selects and tunes the movement model.
type Motion struct {
	Model            string  `yaml:"model"`
	DriftAmplitude   float64 `yaml:"drift_amplitude"`
	DriftFrequency   float64 `yaml:"drift_frequency"`
	AvoidanceRadius  float64 `yaml:"avoidance_radius"`
	AvoidanceGain    float64 `yaml:"avoidance_gain"`
	MaxVerticalSpeed float64 `yaml:"max_vertical_speed"`
	ObstacleCount    int     `yaml:"obstacle_count"`
	ObstacleSpeed    float64 `yaml:"obstacle_speed"`
	ObstacleRadius   float64 `yaml:"obstacle_radius"`
}

// Target modes for attacks without an explicit drone id.
const (
	TargetRandom = "random"
	TargetPath   = "path"
)

// Attacks configures how jam and hijack requests behave.
type Attacks struct {
	HijackMode       swarm.HijackMode `yaml:"hijack_mode"`
	TargetMode       string           `yaml:"target_mode"`
	ProtectEndpoints bool             `yaml:"protect_endpoints"`
}

// Advisory configures the tactical briefing generator.
type Advisory struct {
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	Timeout      string `yaml:"timeout"`
	SystemPrompt string `yaml:"system_prompt"`
}

// TimeoutDuration parses Timeout, falling back to 30s.
func (a Advisory) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// SimulationConfig is the root configuration.
type SimulationConfig struct {
	ClusterID string   `yaml:"cluster_id"`
	TickRate  int      `yaml:"tick_rate"`
	EmitEvery int      `yaml:"emit_every"`
	Seed      int64    `yaml:"seed"`
	Canvas    Canvas   `yaml:"canvas"`
	Swarm     Swarm    `yaml:"swarm"`
	Motion    Motion   `yaml:"motion"`
	Attacks   Attacks  `yaml:"attacks"`
	Advisory  Advisory `yaml:"advisory"`

	// set when JamDurationTicks was derived from TickRate
	jamDerived bool
}

// jamSeconds is the default jam length in wall-clock seconds.
const jamSeconds = 5

// Default returns the configuration of the reference swarm: 25 drones on a
// 1000x600 canvas, 150 unit links and a five second jam at 60 ticks/s.
func Default() *SimulationConfig {
	cfg := seeded()
	cfg.ApplyDefaults()
	return cfg
}

// seeded presets the fields for which zero is a meaningful setting, so a
// config file can still ask for stationary drones or no obstacles.
func seeded() *SimulationConfig {
	return &SimulationConfig{
		Swarm: Swarm{MaxSpeed: 0.75},
		Motion: Motion{
			DriftAmplitude:   1.2,
			DriftFrequency:   0.02,
			AvoidanceRadius:  60,
			AvoidanceGain:    0.05,
			MaxVerticalSpeed: 2,
			ObstacleCount:    6,
			ObstacleSpeed:    1.5,
		},
	}
}

// ApplyDefaults fills zero values that are not valid settings.
func (c *SimulationConfig) ApplyDefaults() {
	if c.ClusterID == "" {
		c.ClusterID = "swarm-01"
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
	if c.EmitEvery <= 0 {
		c.EmitEvery = 1
	}
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = 1000
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = 600
	}
	s := &c.Swarm
	if s.DroneCount <= 0 {
		s.DroneCount = 25
	}
	if s.DroneRadius <= 0 {
		s.DroneRadius = 10
	}
	if s.CommunicationRange <= 0 {
		s.CommunicationRange = 150
	}
	if s.JamDurationTicks <= 0 {
		s.JamDurationTicks = jamSeconds * c.TickRate
		c.jamDerived = true
	}
	m := &c.Motion
	if m.Model == "" {
		m.Model = "bounce"
	}
	if m.ObstacleRadius <= 0 {
		m.ObstacleRadius = 18
	}
	if c.Attacks.HijackMode == "" {
		c.Attacks.HijackMode = swarm.HijackToggle
	}
	if c.Attacks.TargetMode == "" {
		c.Attacks.TargetMode = TargetRandom
	}
	if c.Advisory.Model == "" {
		c.Advisory.Model = "gpt-4o-mini"
	}
	if c.Advisory.Timeout == "" {
		c.Advisory.Timeout = "30s"
	}
	if c.Advisory.SystemPrompt == "" {
		c.Advisory.SystemPrompt = "You are an AI military strategist named 'HYDRA Command'. " +
			"Your mission is to analyze drone swarm data and provide a concise, tactical briefing in 2-3 sentences. " +
			"Do not use markdown or lists. Be direct and authoritative."
	}
}

// ApplyEnv applies CLUSTER_ID, TICK_RATE, OPENAI_MODEL and OPENAI_BASE_URL.
// A derived jam duration follows the overridden tick rate.
func (c *SimulationConfig) ApplyEnv() error {
	if v := os.Getenv("CLUSTER_ID"); v != "" {
		c.ClusterID = v
	}
	if v := os.Getenv("TICK_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid TICK_RATE %q", v)
		}
		c.TickRate = n
		if c.jamDerived {
			c.Swarm.JamDurationTicks = jamSeconds * n
		}
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Advisory.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Advisory.BaseURL = v
	}
	return nil
}

// Load loads YAML config, validates it against a CUE schema when
// cueSchemaPath is set and applies defaults.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := seeded()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c *SimulationConfig) Validate() error {
	if c.Swarm.DroneCount < 2 {
		return fmt.Errorf("swarm.drone_count must be at least 2, got %d", c.Swarm.DroneCount)
	}
	if 2*c.Swarm.DroneRadius >= c.Canvas.Width || 2*c.Swarm.DroneRadius >= c.Canvas.Height {
		return fmt.Errorf("canvas %gx%g too small for drone radius %g", c.Canvas.Width, c.Canvas.Height, c.Swarm.DroneRadius)
	}
	m := c.Motion
	for name, v := range map[string]float64{
		"swarm.max_speed":           c.Swarm.MaxSpeed,
		"swarm.battery_drain":       c.Swarm.BatteryDrain,
		"motion.drift_amplitude":    m.DriftAmplitude,
		"motion.drift_frequency":    m.DriftFrequency,
		"motion.avoidance_radius":   m.AvoidanceRadius,
		"motion.avoidance_gain":     m.AvoidanceGain,
		"motion.max_vertical_speed": m.MaxVerticalSpeed,
		"motion.obstacle_count":     float64(m.ObstacleCount),
		"motion.obstacle_speed":     m.ObstacleSpeed,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %g", name, v)
		}
	}
	switch c.Attacks.HijackMode {
	case swarm.HijackToggle, swarm.HijackLatch:
	default:
		return fmt.Errorf("unknown attacks.hijack_mode %q", c.Attacks.HijackMode)
	}
	switch c.Attacks.TargetMode {
	case TargetRandom, TargetPath:
	default:
		return fmt.Errorf("unknown attacks.target_mode %q", c.Attacks.TargetMode)
	}
	return nil
}
