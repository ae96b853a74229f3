package protocols

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// RowFunc evaluates a constraint over one row.
type RowFunc func(row []field.Element) field.Element

// StepFunc evaluates a constraint over a row and its successor.
type StepFunc func(current, next []field.Element) field.Element

// constraint is one polynomial relation of the AIR. Exactly one of row and
// step is set.
type constraint struct {
	name   string
	degree int
	row    RowFunc
	step   StepFunc
}

func (c *constraint) eval(current, next []field.Element) field.Element {
	if c.step != nil {
		return c.step(current, next)
	}
	return c.row(current)
}

// AIRConstraints is the set of polynomial relations a movement trace must
// satisfy. Row constraints hold on every row; transition constraints hold on
// every row except the last, which never wraps to the first.
//
// Constraints are evaluated in registration order, row constraints before
// transition constraints within each row.
type AIRConstraints struct {
	width       int
	rows        []*constraint
	transitions []*constraint
}

// NewAIRConstraints creates an empty constraint set over rows of the given width
func NewAIRConstraints(width int) *AIRConstraints {
	return &AIRConstraints{width: width}
}

// AddConsistencyConstraint registers a constraint over a single row
func (air *AIRConstraints) AddConsistencyConstraint(name string, degree int, eval RowFunc) {
	air.rows = append(air.rows, &constraint{name: name, degree: degree, row: eval})
}

// AddTransitionConstraint registers a constraint over a row and its successor
func (air *AIRConstraints) AddTransitionConstraint(name string, degree int, eval StepFunc) {
	air.transitions = append(air.transitions, &constraint{name: name, degree: degree, step: eval})
}

// Width returns the number of columns each row must have
func (air *AIRConstraints) Width() int {
	return air.width
}

// active returns the constraints that apply to a row, in evaluation order.
func (air *AIRConstraints) active(isLast bool) []*constraint {
	if isLast {
		return air.rows
	}
	out := make([]*constraint, 0, len(air.rows)+len(air.transitions))
	out = append(out, air.rows...)
	return append(out, air.transitions...)
}

func (air *AIRConstraints) all() []*constraint {
	return air.active(false)
}

// Check evaluates every constraint over the matrix and returns the first
// violation, scanning rows top to bottom, as a *ConstraintError.
func (air *AIRConstraints) Check(m *TraceMatrix) error {
	if m == nil || m.Height == 0 {
		return fmt.Errorf("trace matrix is empty")
	}
	if m.Width != air.width {
		return fmt.Errorf("trace width %d does not match AIR width %d", m.Width, air.width)
	}

	for i := 0; i < m.Height; i++ {
		var next []field.Element
		isLast := i == m.Height-1
		if !isLast {
			next = m.Rows[i+1]
		}
		for _, c := range air.active(isLast) {
			if v := c.eval(m.Rows[i], next); !v.IsZero() {
				return &ConstraintError{Name: c.name, Row: i, Value: v.Value()}
			}
		}
	}
	return nil
}

// EvaluateRow folds the constraints that apply to a row into one value,
// Σ αᵢ·Cᵢ(current, next), weighting the i-th constraint by challenges[i].
// A satisfying row evaluates to zero. next is ignored when isLast is set.
func (air *AIRConstraints) EvaluateRow(current, next []field.Element, isLast bool, challenges []field.Element) field.Element {
	acc := field.Zero
	for i, c := range air.active(isLast) {
		acc = acc.Add(c.eval(current, next).Mul(challenges[i%len(challenges)]))
	}
	return acc
}

// MaxDegree returns the highest constraint degree
func (air *AIRConstraints) MaxDegree() int {
	d := 0
	for _, c := range air.all() {
		d = max(d, c.degree)
	}
	return d
}

// NumConstraints returns the total number of constraints
func (air *AIRConstraints) NumConstraints() int {
	return len(air.rows) + len(air.transitions)
}

// ConstraintNames lists constraint names in evaluation order
func (air *AIRConstraints) ConstraintNames() []string {
	names := make([]string, 0, air.NumConstraints())
	for _, c := range air.all() {
		names = append(names, c.name)
	}
	return names
}

// IsTransition reports whether the named constraint relates consecutive rows.
func (air *AIRConstraints) IsTransition(name string) bool {
	for _, c := range air.transitions {
		if c.name == name {
			return true
		}
	}
	return false
}
