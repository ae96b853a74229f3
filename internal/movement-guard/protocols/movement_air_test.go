package protocols

import (
	"errors"
	"strings"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-movement-guard/internal/movement-guard/core"
	"github.com/vybium/vybium-movement-guard/internal/movement-guard/trace"
)

const testTick = 1.0 / 60

func testParams() MovementParameters {
	return MovementParameters{Speed: 200, PhysicsFactor: 15, VelocityBias: 1000}
}

func testAIR(t *testing.T) *AIRConstraints {
	t.Helper()
	air, err := NewMovementAIR(testParams())
	if err != nil {
		t.Fatalf("NewMovementAIR failed: %v", err)
	}
	return air
}

func testCodec(t *testing.T) *core.FixedPoint {
	t.Helper()
	fp, err := core.NewFixedPoint(1000, 50_000_000, 100_000_000, 1000)
	if err != nil {
		t.Fatalf("NewFixedPoint failed: %v", err)
	}
	return fp
}

// honestWindow starts at rest at the origin and holds right for n-1 ticks.
func honestWindow(n int) trace.TraceWindow {
	w := trace.TraceWindow{ID: 1, FirstAfterReset: true}
	w.Samples = append(w.Samples, trace.TickSample{})
	for i := 1; i < n; i++ {
		w.Samples = append(w.Samples, trace.TickSample{
			Position:  trace.Vec2{X: int64(3 * i)},
			Velocity:  trace.Vec2{X: 200},
			Inputs:    trace.InputFlags{Right: true},
			Timestamp: float64(i) * testTick,
		})
	}
	w.Duration = float64(n-1) * testTick
	return w
}

func buildMatrix(t *testing.T, w trace.TraceWindow) *TraceMatrix {
	t.Helper()
	m, err := BuildTraceMatrix(w, testCodec(t), TargetHeight(w.Len(), DefaultMinTraceHeight))
	if err != nil {
		t.Fatalf("BuildTraceMatrix failed: %v", err)
	}
	return m
}

// TestMovementParametersValidate tests parameter validation
func TestMovementParametersValidate(t *testing.T) {
	tests := []struct {
		name      string
		params    MovementParameters
		expectErr bool
	}{
		{"reference", testParams(), false},
		{"zero speed", MovementParameters{Speed: 0, PhysicsFactor: 15, VelocityBias: 1000}, true},
		{"zero factor", MovementParameters{Speed: 200, PhysicsFactor: 0, VelocityBias: 1000}, true},
		{"bias not above speed", MovementParameters{Speed: 200, PhysicsFactor: 15, VelocityBias: 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMovementAIR(tt.params)
			if (err != nil) != tt.expectErr {
				t.Errorf("NewMovementAIR error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

// TestMovementAIRShape tests the registered constraints
func TestMovementAIRShape(t *testing.T) {
	air := testAIR(t)

	if air.Width() != NumMovementColumns {
		t.Errorf("Expected width %d, got %d", NumMovementColumns, air.Width())
	}
	if air.NumConstraints() != 8 {
		t.Errorf("Expected 8 constraints, got %d", air.NumConstraints())
	}
	if air.MaxDegree() != 2 {
		t.Errorf("Expected max degree 2, got %d", air.MaxDegree())
	}

	names := air.ConstraintNames()
	if names[0] != "input_left_is_bool" || names[len(names)-1] != "position_y_continuity" {
		t.Errorf("Unexpected constraint order: %v", names)
	}

	for _, name := range names {
		want := strings.HasPrefix(name, "position_")
		if got := air.IsTransition(name); got != want {
			t.Errorf("IsTransition(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestExpectedVelocity tests velocity as a pure function of the flags
func TestExpectedVelocity(t *testing.T) {
	tests := []struct {
		name                  string
		left, right, up, down bool
		vx, vy                int64
	}{
		{"idle", false, false, false, false, 0, 0},
		{"right", false, true, false, false, 200, 0},
		{"left", true, false, false, false, -200, 0},
		{"up", false, false, true, false, 0, 200},
		{"down", false, false, false, true, 0, -200},
		{"diagonal", false, true, true, false, 200, 200},
		{"opposing cancel", true, true, false, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vx, vy := ExpectedVelocity(tt.left, tt.right, tt.up, tt.down, 200)
			if vx != tt.vx || vy != tt.vy {
				t.Errorf("ExpectedVelocity = (%d, %d), expected (%d, %d)", vx, vy, tt.vx, tt.vy)
			}
		})
	}
}

// TestHonestMovementSatisfiesAIR tests that honest movement passes every constraint
func TestHonestMovementSatisfiesAIR(t *testing.T) {
	air := testAIR(t)

	for _, n := range []int{2, 3, 4, 7, 8, 9} {
		m := buildMatrix(t, honestWindow(n))
		if err := air.Check(m); err != nil {
			t.Errorf("Honest window of %d samples failed: %v", n, err)
		}
	}
}

// TestSpeedHackViolatesAIR tests that a tripled velocity is caught
func TestSpeedHackViolatesAIR(t *testing.T) {
	air := testAIR(t)

	w := honestWindow(6)
	for i := 1; i < w.Len(); i++ {
		w.Samples[i].Velocity.X = 600
		w.Samples[i].Position.X = int64(9 * i)
	}

	err := air.Check(buildMatrix(t, w))
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstraintError, got %v", err)
	}
	if ce.Name != "velocity_x_from_inputs" {
		t.Errorf("Expected velocity constraint to fail, got %q", ce.Name)
	}
	if ce.Row != 1 {
		t.Errorf("Expected failure at row 1, got %d", ce.Row)
	}
}

// TestTeleportViolatesAIR tests that a position jump is caught
func TestTeleportViolatesAIR(t *testing.T) {
	air := testAIR(t)

	w := honestWindow(6)
	for i := 3; i < w.Len(); i++ {
		w.Samples[i].Position.X += 150
	}

	err := air.Check(buildMatrix(t, w))
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstraintError, got %v", err)
	}
	if ce.Name != "position_x_continuity" || ce.Row != 2 {
		t.Errorf("Expected position_x_continuity at row 2, got %q at row %d", ce.Name, ce.Row)
	}
}

// TestFrozenVelocityViolatesAIR tests that held keys without motion are caught
func TestFrozenVelocityViolatesAIR(t *testing.T) {
	air := testAIR(t)

	w := honestWindow(4)
	for i := 1; i < w.Len(); i++ {
		w.Samples[i].Velocity.X = 0
		w.Samples[i].Position.X = 0
	}

	var ce *ConstraintError
	if err := air.Check(buildMatrix(t, w)); !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstraintError, got %v", err)
	}
}

// TestNonBooleanInputViolatesAIR tests the boolean constraints directly
func TestNonBooleanInputViolatesAIR(t *testing.T) {
	air := testAIR(t)
	m := buildMatrix(t, honestWindow(4))

	m.Rows[2][ColInputUp] = field.New(2)

	var ce *ConstraintError
	if err := air.Check(m); !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstraintError, got %v", err)
	}
	if ce.Name != "input_up_is_bool" || ce.Row != 2 {
		t.Errorf("Expected input_up_is_bool at row 2, got %q at row %d", ce.Name, ce.Row)
	}
}

// TestNoWraparoundTransition tests that the last row is not linked to the first
func TestNoWraparoundTransition(t *testing.T) {
	air := testAIR(t)

	// the final position differs from the initial one, which a cyclic
	// transition would reject
	m := buildMatrix(t, honestWindow(8))
	if m.Height != 8 {
		t.Fatalf("Expected an unpadded matrix of 8 rows, got %d", m.Height)
	}
	if err := air.Check(m); err != nil {
		t.Errorf("Check should not wrap around: %v", err)
	}
}

// TestEvaluateRow tests the composition on satisfying and violating rows
func TestEvaluateRow(t *testing.T) {
	air := testAIR(t)
	m := buildMatrix(t, honestWindow(4))
	challenges := []field.Element{field.New(3), field.New(5), field.New(7)}

	for i := 0; i < m.Height; i++ {
		isLast := i == m.Height-1
		var next []field.Element
		if !isLast {
			next = m.Rows[i+1]
		}
		if c := air.EvaluateRow(m.Rows[i], next, isLast, challenges); !c.IsZero() {
			t.Errorf("Composition at row %d should vanish, got %d", i, c.Value())
		}
	}

	bad := m.Row(1)
	bad[ColVelocityX] = field.New(1600)
	if c := air.EvaluateRow(bad, m.Rows[2], false, challenges); c.IsZero() {
		t.Error("Composition should not vanish on a tampered row")
	}
}

// TestCheckRejectsWidthMismatch tests Check on a malformed matrix
func TestCheckRejectsWidthMismatch(t *testing.T) {
	air := testAIR(t)
	m := buildMatrix(t, honestWindow(4))
	m.Width = 3

	err := air.Check(m)
	if err == nil {
		t.Fatal("Expected width mismatch error")
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		t.Error("Width mismatch is not a constraint violation")
	}
	if err := air.Check(nil); err == nil {
		t.Error("Expected error for nil matrix")
	}
}
