package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Trace columns, in row order.
const (
	ColPositionX = iota
	ColPositionY
	ColVelocityX
	ColVelocityY
	ColInputLeft
	ColInputRight
	ColInputUp
	ColInputDown

	NumMovementColumns
)

// MovementParameters are the physics constants the AIR enforces. They must
// match the simulation's integer movement exactly.
type MovementParameters struct {
	Speed         int64 // velocity magnitude of one pressed axis
	PhysicsFactor int64 // scaled position delta per unit velocity per tick
	VelocityBias  int64 // encoding offset of a zero velocity
}

// Validate checks the parameters are usable as field constants
func (p MovementParameters) Validate() error {
	if p.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %d", p.Speed)
	}
	if p.PhysicsFactor <= 0 {
		return fmt.Errorf("physics factor must be positive, got %d", p.PhysicsFactor)
	}
	if p.VelocityBias <= p.Speed {
		return fmt.Errorf("velocity bias %d must exceed speed %d", p.VelocityBias, p.Speed)
	}
	return nil
}

// NewMovementAIR creates the movement constraint system:
//
//   - every input flag is boolean
//   - velocity is (right-left)*speed + bias and (up-down)*speed + bias, a pure
//     function of the current row's flags
//   - next.position = position + (next.velocity - bias) * physicsFactor for
//     every adjacent pair of rows
//
// The first-row-after-reset origin rule is deliberately absent; it is a
// structural precondition of BuildTraceMatrix so the constraint system
// carries no reset state.
func NewMovementAIR(params MovementParameters) (*AIRConstraints, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid movement parameters: %w", err)
	}

	air := NewAIRConstraints(NumMovementColumns)

	speed := field.New(uint64(params.Speed))
	bias := field.New(uint64(params.VelocityBias))
	factor := field.New(uint64(params.PhysicsFactor))

	inputs := []struct {
		name string
		col  int
	}{
		{"input_left_is_bool", ColInputLeft},
		{"input_right_is_bool", ColInputRight},
		{"input_up_is_bool", ColInputUp},
		{"input_down_is_bool", ColInputDown},
	}
	for _, in := range inputs {
		col := in.col
		air.AddConsistencyConstraint(in.name, 2, func(row []field.Element) field.Element {
			// bit * (bit - 1) = 0
			bit := row[col]
			return bit.Mul(bit.Sub(field.One))
		})
	}

	air.AddConsistencyConstraint("velocity_x_from_inputs", 1, func(row []field.Element) field.Element {
		expected := row[ColInputRight].Sub(row[ColInputLeft]).Mul(speed).Add(bias)
		return row[ColVelocityX].Sub(expected)
	})

	air.AddConsistencyConstraint("velocity_y_from_inputs", 1, func(row []field.Element) field.Element {
		expected := row[ColInputUp].Sub(row[ColInputDown]).Mul(speed).Add(bias)
		return row[ColVelocityY].Sub(expected)
	})

	// The position change into the next row is produced by the next row's velocity.
	air.AddTransitionConstraint("position_x_continuity", 1, func(current, next []field.Element) field.Element {
		expected := current[ColPositionX].Add(next[ColVelocityX].Sub(bias).Mul(factor))
		return next[ColPositionX].Sub(expected)
	})

	air.AddTransitionConstraint("position_y_continuity", 1, func(current, next []field.Element) field.Element {
		expected := current[ColPositionY].Add(next[ColVelocityY].Sub(bias).Mul(factor))
		return next[ColPositionY].Sub(expected)
	})

	return air, nil
}

// ExpectedVelocity returns the velocity the AIR accepts for the given flags.
// Used by the simulation so recorded velocities and constraints share one
// definition.
func ExpectedVelocity(left, right, up, down bool, speed int64) (vx, vy int64) {
	return (b2i(right) - b2i(left)) * speed, (b2i(up) - b2i(down)) * speed
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
