// Package core holds the fixed-point encoding that maps signed simulation
// values into the non-negative range of the proving field.
package core

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Quantity names the encoded value in overflow errors.
type Quantity string

const (
	QuantityPosition Quantity = "position"
	QuantityVelocity Quantity = "velocity"
)

// EncodingOverflowError reports a value outside the supported fixed-point
// range. It signals misconfiguration upstream, never a cheating client.
type EncodingOverflowError struct {
	Quantity Quantity
	Value    int64
	Limit    int64 // exclusive bound on |Value| after scaling
}

func (e *EncodingOverflowError) Error() string {
	return fmt.Sprintf("%s %d outside encodable range (|scaled| < %d)", e.Quantity, e.Value, e.Limit)
}

// FixedPoint encodes positions as p*Scale + PositionBias and velocities as
// v + VelocityBias. Out-of-range values are rejected rather than reduced
// modulo PositionModulus, so the transition constraint never sees a wrapped
// coordinate.
type FixedPoint struct {
	Scale           int64
	PositionBias    int64
	PositionModulus int64
	VelocityBias    int64
}

// NewFixedPoint creates a codec and checks that its ranges fit the field.
func NewFixedPoint(scale, positionBias, positionModulus, velocityBias int64) (*FixedPoint, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %d", scale)
	}
	if positionModulus <= 0 || uint64(positionModulus) >= field.P {
		return nil, fmt.Errorf("position modulus %d must be positive and below the field modulus", positionModulus)
	}
	if positionBias <= 0 || 2*positionBias > positionModulus {
		return nil, fmt.Errorf("position bias %d must be in (0, modulus/2]", positionBias)
	}
	if velocityBias <= 0 {
		return nil, fmt.Errorf("velocity bias must be positive, got %d", velocityBias)
	}
	return &FixedPoint{
		Scale:           scale,
		PositionBias:    positionBias,
		PositionModulus: positionModulus,
		VelocityBias:    velocityBias,
	}, nil
}

// PositionLimit returns the exclusive bound on |p*Scale|.
func (fp *FixedPoint) PositionLimit() int64 {
	limit := fp.PositionModulus / 2
	if fp.PositionBias < limit {
		limit = fp.PositionBias
	}
	return limit
}

// EncodePosition maps a world coordinate to its field encoding.
func (fp *FixedPoint) EncodePosition(p int64) (field.Element, error) {
	limit := fp.PositionLimit()
	if p > limit/fp.Scale || p < -(limit/fp.Scale) {
		return field.Zero, &EncodingOverflowError{Quantity: QuantityPosition, Value: p, Limit: limit}
	}
	scaled := p * fp.Scale
	if scaled >= limit || scaled <= -limit {
		return field.Zero, &EncodingOverflowError{Quantity: QuantityPosition, Value: p, Limit: limit}
	}
	return field.New(uint64(scaled + fp.PositionBias)), nil
}

// DecodePosition inverts EncodePosition. The result is only meaningful for
// elements produced by EncodePosition.
func (fp *FixedPoint) DecodePosition(e field.Element) int64 {
	return (int64(e.Value()) - fp.PositionBias) / fp.Scale
}

// EncodeVelocity maps a velocity component to its field encoding.
func (fp *FixedPoint) EncodeVelocity(v int64) (field.Element, error) {
	if v >= fp.VelocityBias || v <= -fp.VelocityBias {
		return field.Zero, &EncodingOverflowError{Quantity: QuantityVelocity, Value: v, Limit: fp.VelocityBias}
	}
	return field.New(uint64(v + fp.VelocityBias)), nil
}

// DecodeVelocity inverts EncodeVelocity.
func (fp *FixedPoint) DecodeVelocity(e field.Element) int64 {
	return int64(e.Value()) - fp.VelocityBias
}

// ZeroVelocity is the encoding of a stationary axis.
func (fp *FixedPoint) ZeroVelocity() field.Element {
	return field.New(uint64(fp.VelocityBias))
}

// Bool encodes a flag as 0 or 1.
func Bool(b bool) field.Element {
	if b {
		return field.One
	}
	return field.Zero
}
