// Package trace buffers per-tick movement samples into time-bounded windows.
//
// A window is sealed once its accumulated duration reaches the configured
// threshold. The sample that seals a window also opens the next one, so every
// position change falls inside at least one window and no transition spans an
// unrecorded gap at a boundary.
package trace

import "fmt"

// Vec2 is an integer world vector (pixels, or pixels per second).
type Vec2 struct {
	X int64 `yaml:"x" json:"x" msgpack:"x"`
	Y int64 `yaml:"y" json:"y" msgpack:"y"`
}

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// InputFlags is the directional input state that produced a tick's velocity.
type InputFlags struct {
	Left  bool `yaml:"left" json:"left" msgpack:"left"`
	Right bool `yaml:"right" json:"right" msgpack:"right"`
	Up    bool `yaml:"up" json:"up" msgpack:"up"`
	Down  bool `yaml:"down" json:"down" msgpack:"down"`
}

// TickSample is the observed player state for one simulation tick.
// Samples are stored by value and never mutated after recording.
type TickSample struct {
	Position  Vec2       `yaml:"position" json:"position" msgpack:"position"`
	Velocity  Vec2       `yaml:"velocity" json:"velocity" msgpack:"velocity"`
	Inputs    InputFlags `yaml:"inputs" json:"inputs" msgpack:"inputs"`
	Timestamp float64    `yaml:"timestamp" json:"timestamp" msgpack:"timestamp"`
}

// AtOrigin reports whether the sample is at the origin with zero velocity.
func (s TickSample) AtOrigin() bool {
	return s.Position.IsZero() && s.Velocity.IsZero()
}
