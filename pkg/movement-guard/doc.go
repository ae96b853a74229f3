// Package movementguard verifies that simulated player movement follows
// fixed integer physics, using succinct proofs over short windows of
// recorded ticks.
//
// A Guard owns a window collector, a background proof pipeline and a
// two-state integrity machine. The simulation feeds it one sample per tick
// and calls Tick once per frame; a tampered window (speed hacks,
// teleportation, velocities that the held keys cannot explain) fails to
// prove, and the guard moves to ViolationDetected until the operator
// acknowledges it.
//
// # Quick Start
//
// Driving the built-in player:
//
//	g, err := movementguard.New(movementguard.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ts := 0.0
//	for frame := 0; frame < 600; frame++ {
//		ts += g.Config().TickSeconds()
//		g.Step(movementguard.Controls{Right: true}, ts)
//		if _, err := g.Tick(); err != nil {
//			log.Fatal(err)
//		}
//		if g.State() == movementguard.ViolationDetected {
//			fmt.Println(g.Status().Message)
//			g.Acknowledge()
//		}
//	}
//
// Feeding samples from an external simulation instead:
//
//	g, err := movementguard.New(cfg, movementguard.WithSimulation(mySim))
//	...
//	g.Record(movementguard.TickSample{Position: pos, Velocity: vel, Inputs: in, Timestamp: ts})
//	outcomes, err := g.Tick()
//
// # Physics
//
// Each tick a pressed axis yields velocity ±MovementSpeed, and position
// advances by velocity*PhysicsFactor/PositionScale pixels. The proof
// checks the same relation over fixed-point field encodings of every
// sample. Positions are encoded as p*PositionScale + PositionBias and
// velocities as v + VelocityBias; values outside those ranges are rejected
// with ErrEncodingOverflow instead of wrapping.
//
// # Errors
//
// Structural errors (a first window after reset that does not start at
// rest at the origin) and encoding overflows indicate a misconfigured
// simulation. They are returned from Tick as *GuardError and never turned
// into violations. Every proving, serialization or verification failure is
// a violation.
//
// # Architecture
//
//   - pkg/movement-guard/: Public API (this package)
//   - internal/movement-guard/: Private implementation (not importable)
package movementguard
