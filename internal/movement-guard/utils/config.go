package utils

import (
	"fmt"
	"runtime"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Bounds is an axis-aligned rectangle in world pixels.
type Bounds struct {
	MinX int64 `yaml:"min_x" env:"MIN_X"`
	MaxX int64 `yaml:"max_x" env:"MAX_X"`
	MinY int64 `yaml:"min_y" env:"MIN_Y"`
	MaxY int64 `yaml:"max_y" env:"MAX_Y"`
}

// Contains reports whether (x, y) lies inside the bounds, edges included.
func (b Bounds) Contains(x, y int64) bool {
	return b.ContainsX(x) && b.ContainsY(y)
}

// ContainsX reports whether x lies within the horizontal extent.
func (b Bounds) ContainsX(x int64) bool {
	return x >= b.MinX && x <= b.MaxX
}

// ContainsY reports whether y lies within the vertical extent.
func (b Bounds) ContainsY(y int64) bool {
	return y >= b.MinY && y <= b.MaxY
}

// Clamp returns the point inside the bounds closest to (x, y).
func (b Bounds) Clamp(x, y int64) (int64, int64) {
	return min(max(x, b.MinX), b.MaxX), min(max(y, b.MinY), b.MaxY)
}

// Config represents the configuration for movement integrity verification
type Config struct {
	// Trace collection
	WindowSeconds     float64 `yaml:"window_seconds" env:"GUARD_WINDOW_SECONDS"`           // Duration at which a window is sealed
	MaxPendingWindows int     `yaml:"max_pending_windows" env:"GUARD_MAX_PENDING_WINDOWS"` // Sealed windows kept before drop-oldest
	MinTraceHeight    int     `yaml:"min_trace_height" env:"GUARD_MIN_TRACE_HEIGHT"`       // Floor for the padded matrix height

	// Physics (must match the simulation exactly)
	MovementSpeed int64 `yaml:"movement_speed" env:"GUARD_MOVEMENT_SPEED"` // Pixels per second for one pressed axis
	PhysicsFactor int64 `yaml:"physics_factor" env:"GUARD_PHYSICS_FACTOR"` // Scaled position delta per unit of velocity per tick

	// Fixed-point encoding
	PositionScale   int64 `yaml:"position_scale" env:"GUARD_POSITION_SCALE"`
	PositionBias    int64 `yaml:"position_bias" env:"GUARD_POSITION_BIAS"`
	PositionModulus int64 `yaml:"position_modulus" env:"GUARD_POSITION_MODULUS"`
	VelocityBias    int64 `yaml:"velocity_bias" env:"GUARD_VELOCITY_BIAS"`

	// Proving
	Workers        int    `yaml:"workers" env:"GUARD_WORKERS"`                 // Concurrent proof units
	QueryCount     int    `yaml:"query_count" env:"GUARD_QUERY_COUNT"`         // Row openings per proof
	TranscriptHash string `yaml:"transcript_hash" env:"GUARD_TRANSCRIPT_HASH"` // "sha3" or "sha256"

	World Bounds `yaml:"world" envPrefix:"GUARD_WORLD_"`

	// Simulation clock
	TickRate int `yaml:"tick_rate" env:"GUARD_TICK_RATE"` // Simulation ticks per second

	// Logging
	LogLevel             string  `yaml:"log_level" env:"GUARD_LOG_LEVEL"`
	StatsIntervalSeconds float64 `yaml:"stats_interval_seconds" env:"GUARD_STATS_INTERVAL_SECONDS"` // 0 disables periodic stats
}

// DefaultConfig returns the configuration matching the reference 60 FPS simulation
func DefaultConfig() *Config {
	return &Config{
		WindowSeconds:     0.1,
		MaxPendingWindows: 5,
		MinTraceHeight:    4,
		MovementSpeed:     200,
		PhysicsFactor:     15,
		PositionScale:     1000,
		PositionBias:      50_000_000,
		PositionModulus:   100_000_000,
		VelocityBias:      1000,
		Workers:           runtime.NumCPU(),
		QueryCount:        8,
		TranscriptHash:    "sha3",
		World: Bounds{
			MinX: -400,
			MaxX: 400,
			MinY: -300,
			MaxY: 300,
		},
		TickRate:             60,
		LogLevel:             "info",
		StatsIntervalSeconds: 5,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window duration must be positive, got %v", c.WindowSeconds)
	}

	if c.MaxPendingWindows <= 0 {
		return fmt.Errorf("max pending windows must be positive")
	}

	if c.MinTraceHeight < 2 || !IsPowerOfTwo(c.MinTraceHeight) {
		return fmt.Errorf("min trace height must be a power of 2 >= 2, got %d", c.MinTraceHeight)
	}

	if c.MovementSpeed <= 0 || c.PhysicsFactor <= 0 || c.PositionScale <= 0 {
		return fmt.Errorf("movement speed, physics factor and position scale must be positive")
	}

	// Integer movement moves MovementSpeed*PhysicsFactor/PositionScale pixels per tick;
	// the constraint sees the scaled value, so the division has to be exact.
	if (c.MovementSpeed*c.PhysicsFactor)%c.PositionScale != 0 {
		return fmt.Errorf("movement speed * physics factor (%d) must be a multiple of position scale (%d)",
			c.MovementSpeed*c.PhysicsFactor, c.PositionScale)
	}

	if c.PositionModulus <= 0 || uint64(c.PositionModulus) >= field.P {
		return fmt.Errorf("position modulus %d must be positive and below the field modulus", c.PositionModulus)
	}

	if c.PositionBias <= 0 || 2*c.PositionBias > c.PositionModulus {
		return fmt.Errorf("position bias (%d) must be positive and at most half the modulus (%d)",
			c.PositionBias, c.PositionModulus)
	}

	if c.VelocityBias <= c.MovementSpeed {
		return fmt.Errorf("velocity bias (%d) must exceed movement speed (%d)", c.VelocityBias, c.MovementSpeed)
	}

	if c.World.MinX > c.World.MaxX || c.World.MinY > c.World.MaxY {
		return fmt.Errorf("world bounds are inverted: %+v", c.World)
	}

	for _, v := range []int64{c.World.MinX, c.World.MaxX, c.World.MinY, c.World.MaxY} {
		if abs64(v)*c.PositionScale >= c.PositionBias {
			return fmt.Errorf("world bound %d exceeds the encodable position range (±%d)",
				v, c.PositionBias/c.PositionScale)
		}
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	if c.QueryCount <= 0 {
		return fmt.Errorf("query count must be positive")
	}

	switch c.TranscriptHash {
	case "sha3", "sha256":
	default:
		return fmt.Errorf("transcript hash must be 'sha3' or 'sha256', got '%s'", c.TranscriptHash)
	}

	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive")
	}

	if c.StatsIntervalSeconds < 0 {
		return fmt.Errorf("stats interval must not be negative")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be 'debug', 'info', 'warn', or 'error', got '%s'", c.LogLevel)
	}

	return nil
}

// WithWindowSeconds sets the window duration
func (c *Config) WithWindowSeconds(seconds float64) *Config {
	c.WindowSeconds = seconds
	return c
}

// WithMaxPendingWindows sets the sealed window queue bound
func (c *Config) WithMaxPendingWindows(n int) *Config {
	c.MaxPendingWindows = n
	return c
}

// WithWorkers sets the number of concurrent proof units
func (c *Config) WithWorkers(n int) *Config {
	c.Workers = n
	return c
}

// WithQueryCount sets the number of row openings per proof
func (c *Config) WithQueryCount(n int) *Config {
	c.QueryCount = n
	return c
}

// WithTranscriptHash selects the Fiat-Shamir transcript hash
func (c *Config) WithTranscriptHash(name string) *Config {
	c.TranscriptHash = name
	return c
}

// WithLogLevel sets the log level
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// WithTickRate sets the simulation tick rate
func (c *Config) WithTickRate(hz int) *Config {
	c.TickRate = hz
	return c
}

// TickSeconds returns the duration of one simulation tick
func (c *Config) TickSeconds() float64 {
	return 1 / float64(c.TickRate)
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
