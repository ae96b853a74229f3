// Package sim is the deterministic integer movement simulation whose ticks
// feed the trace collector.
//
// It also carries the tampering hooks used to exercise detection: speed
// multipliers, a boost and teleportation. None of them update the recorded
// input flags, which is what makes them detectable.
package sim

import (
	"fmt"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/protocols"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/utils"
)

// Controls is the input for one tick.
type Controls struct {
	Left  bool `yaml:"left"`
	Right bool `yaml:"right"`
	Up    bool `yaml:"up"`
	Down  bool `yaml:"down"`

	Cheats Cheats `yaml:"cheats"`
}

// Cheats are client-side tampering hooks.
type Cheats struct {
	SpeedHack bool        `yaml:"speed_hack"` // velocity x3
	Boost     bool        `yaml:"boost"`      // velocity x2 while moving
	Freeze    bool        `yaml:"freeze"`     // velocity x0
	Teleport  *trace.Vec2 `yaml:"teleport"`   // jump to a position, clamped to the world
}

// Active reports whether any cheat is engaged.
func (c Cheats) Active() bool {
	return c.SpeedHack || c.Boost || c.Freeze || c.Teleport != nil
}

// Params are the simulation constants.
type Params struct {
	Speed         int64
	PhysicsFactor int64
	Scale         int64
	MaxSpeed      int64 // cap on any velocity component, including cheats
	World         utils.Bounds
}

// ParamsFromConfig derives simulation constants from the guard config.
func ParamsFromConfig(cfg *utils.Config) Params {
	return Params{
		Speed:         cfg.MovementSpeed,
		PhysicsFactor: cfg.PhysicsFactor,
		Scale:         cfg.PositionScale,
		MaxSpeed:      cfg.VelocityBias - 1,
		World:         cfg.World,
	}
}

// Player is the simulated player. It starts at rest at the origin.
type Player struct {
	params Params

	position trace.Vec2
	velocity trace.Vec2
	inputs   trace.InputFlags
}

// NewPlayer creates a player at the origin.
func NewPlayer(params Params) (*Player, error) {
	if params.Speed <= 0 || params.PhysicsFactor <= 0 || params.Scale <= 0 {
		return nil, fmt.Errorf("speed, physics factor and scale must be positive")
	}
	if params.MaxSpeed < params.Speed {
		return nil, fmt.Errorf("max speed %d below movement speed %d", params.MaxSpeed, params.Speed)
	}
	if !params.World.Contains(0, 0) {
		return nil, fmt.Errorf("world bounds %+v do not contain the origin", params.World)
	}
	return &Player{params: params}, nil
}

// Step advances one tick and returns the sample to record, stamped with ts.
//
// Opposing inputs resolve with right over left and down over up. An input
// that would carry the player past the world edge is released for the
// tick, so the recorded flags still explain the recorded velocity.
func (p *Player) Step(c Controls, ts float64) trace.TickSample {
	in := resolve(c)

	vx, vy := p.velocityFor(in, c.Cheats)
	if !p.params.World.ContainsX(p.position.X + p.delta(vx)) {
		in.Left, in.Right = false, false
		vx, vy = p.velocityFor(in, c.Cheats)
	}
	if !p.params.World.ContainsY(p.position.Y + p.delta(vy)) {
		in.Up, in.Down = false, false
		vx, vy = p.velocityFor(in, c.Cheats)
	}

	p.inputs = in
	p.velocity = trace.Vec2{X: vx, Y: vy}

	if c.Cheats.Teleport != nil {
		x, y := p.params.World.Clamp(c.Cheats.Teleport.X, c.Cheats.Teleport.Y)
		p.position = trace.Vec2{X: x, Y: y}
	} else {
		p.position.X += p.delta(vx)
		p.position.Y += p.delta(vy)
	}

	return p.Sample(ts)
}

func resolve(c Controls) trace.InputFlags {
	in := trace.InputFlags{Left: c.Left, Right: c.Right, Up: c.Up, Down: c.Down}
	if in.Right {
		in.Left = false
	}
	if in.Down {
		in.Up = false
	}
	return in
}

func (p *Player) velocityFor(in trace.InputFlags, cheats Cheats) (int64, int64) {
	vx, vy := protocols.ExpectedVelocity(in.Left, in.Right, in.Up, in.Down, p.params.Speed)

	if cheats.Boost && (vx != 0 || vy != 0) {
		vx, vy = vx*2, vy*2
	}
	if cheats.SpeedHack {
		vx, vy = vx*3, vy*3
	}
	if cheats.Freeze {
		vx, vy = 0, 0
	}
	return clamp(vx, p.params.MaxSpeed), clamp(vy, p.params.MaxSpeed)
}

// delta is the per-tick position change for a velocity component.
func (p *Player) delta(v int64) int64 {
	return v * p.params.PhysicsFactor / p.params.Scale
}

func clamp(v, limit int64) int64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// Sample returns the current state stamped with ts.
func (p *Player) Sample(ts float64) trace.TickSample {
	return trace.TickSample{
		Position:  p.position,
		Velocity:  p.velocity,
		Inputs:    p.inputs,
		Timestamp: ts,
	}
}

// Position returns the current position.
func (p *Player) Position() trace.Vec2 {
	return p.position
}

// Velocity returns the current velocity.
func (p *Player) Velocity() trace.Vec2 {
	return p.velocity
}

// ResetToOrigin puts the player at rest at the origin with no inputs held.
func (p *Player) ResetToOrigin() {
	p.position = trace.Vec2{}
	p.velocity = trace.Vec2{}
	p.inputs = trace.InputFlags{}
}
