package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/core"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/utils"
)

// DefaultMinTraceHeight is the smallest matrix height the backend accepts.
const DefaultMinTraceHeight = 4

// TraceMatrix is the arithmetized form of one window: Height rows of Width
// field elements. Height is always a power of two.
type TraceMatrix struct {
	WindowID uint64
	Height   int
	Width    int
	Rows     [][]field.Element

	// RealRows is the number of rows taken from recorded samples; the rest
	// are padding.
	RealRows int
}

// PublicInputs are the boundary values bound into a proof: the encoded
// position of the first and last rows.
type PublicInputs struct {
	InitialX uint64 `msgpack:"initial_x"`
	InitialY uint64 `msgpack:"initial_y"`
	FinalX   uint64 `msgpack:"final_x"`
	FinalY   uint64 `msgpack:"final_y"`
}

// Elements returns the public inputs in hashing order.
func (p PublicInputs) Elements() []field.Element {
	return []field.Element{
		field.New(p.InitialX),
		field.New(p.InitialY),
		field.New(p.FinalX),
		field.New(p.FinalY),
	}
}

// PublicInputs extracts the boundary values of the matrix.
func (m *TraceMatrix) PublicInputs() PublicInputs {
	first := m.Rows[0]
	last := m.Rows[m.Height-1]
	return PublicInputs{
		InitialX: first[ColPositionX].Value(),
		InitialY: first[ColPositionY].Value(),
		FinalX:   last[ColPositionX].Value(),
		FinalY:   last[ColPositionY].Value(),
	}
}

// Row returns a copy of row i.
func (m *TraceMatrix) Row(i int) []field.Element {
	row := make([]field.Element, m.Width)
	copy(row, m.Rows[i])
	return row
}

// TargetHeight returns the smallest power of two that is at least n and at
// least minHeight.
func TargetHeight(n, minHeight int) int {
	if minHeight < 1 {
		minHeight = 1
	}
	if n < minHeight {
		n = minHeight
	}
	return utils.NextPowerOfTwo(n)
}

// BuildTraceMatrix arithmetizes a window into a matrix of exactly
// targetHeight rows.
//
// A first-after-reset window whose first sample is not at the origin with
// zero velocity fails with *StructuralError before anything is encoded.
// Values outside the codec's range fail with *core.EncodingOverflowError.
// Padding rows repeat the last real position with zero velocity and no
// inputs, which satisfies every constraint.
func BuildTraceMatrix(w trace.TraceWindow, codec *core.FixedPoint, targetHeight int) (*TraceMatrix, error) {
	n := len(w.Samples)
	if n == 0 {
		return nil, &StructuralError{WindowID: w.ID, Reason: "window has no samples"}
	}
	if !utils.IsPowerOfTwo(targetHeight) {
		return nil, fmt.Errorf("target height %d is not a power of two", targetHeight)
	}
	if targetHeight < n {
		return nil, fmt.Errorf("target height %d is smaller than window length %d", targetHeight, n)
	}

	if w.FirstAfterReset && !w.Samples[0].AtOrigin() {
		first := w.Samples[0]
		return nil, &StructuralError{
			WindowID: w.ID,
			Reason: fmt.Sprintf("first window after reset starts at %s with velocity %s, not at rest at the origin",
				first.Position, first.Velocity),
		}
	}

	m := &TraceMatrix{
		WindowID: w.ID,
		Height:   targetHeight,
		Width:    NumMovementColumns,
		Rows:     make([][]field.Element, targetHeight),
		RealRows: n,
	}

	for i, s := range w.Samples {
		row, err := encodeRow(s, codec)
		if err != nil {
			return nil, fmt.Errorf("window %d row %d: %w", w.ID, i, err)
		}
		m.Rows[i] = row
	}

	last := m.Rows[n-1]
	zeroVel := codec.ZeroVelocity()
	for i := n; i < targetHeight; i++ {
		row := make([]field.Element, NumMovementColumns)
		row[ColPositionX] = last[ColPositionX]
		row[ColPositionY] = last[ColPositionY]
		row[ColVelocityX] = zeroVel
		row[ColVelocityY] = zeroVel
		row[ColInputLeft] = field.Zero
		row[ColInputRight] = field.Zero
		row[ColInputUp] = field.Zero
		row[ColInputDown] = field.Zero
		m.Rows[i] = row
	}

	return m, nil
}

func encodeRow(s trace.TickSample, codec *core.FixedPoint) ([]field.Element, error) {
	px, err := codec.EncodePosition(s.Position.X)
	if err != nil {
		return nil, err
	}
	py, err := codec.EncodePosition(s.Position.Y)
	if err != nil {
		return nil, err
	}
	vx, err := codec.EncodeVelocity(s.Velocity.X)
	if err != nil {
		return nil, err
	}
	vy, err := codec.EncodeVelocity(s.Velocity.Y)
	if err != nil {
		return nil, err
	}

	row := make([]field.Element, NumMovementColumns)
	row[ColPositionX] = px
	row[ColPositionY] = py
	row[ColVelocityX] = vx
	row[ColVelocityY] = vy
	row[ColInputLeft] = core.Bool(s.Inputs.Left)
	row[ColInputRight] = core.Bool(s.Inputs.Right)
	row[ColInputUp] = core.Bool(s.Inputs.Up)
	row[ColInputDown] = core.Bool(s.Inputs.Down)
	return row, nil
}
