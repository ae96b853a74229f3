package trace

import "fmt"

// Collector owns the active window and a bounded FIFO of sealed windows.
// It is not safe for concurrent use; the scheduling tick owns it.
type Collector struct {
	windowSeconds float64
	maxSealed     int

	current *TraceWindow
	sealed  []TraceWindow

	nextID              uint64
	nextFirstAfterReset bool
	dropped             uint64
}

// NewCollector creates a collector sealing windows after windowSeconds and
// keeping at most maxSealed windows queued. The first window started is
// flagged first-after-reset, since the simulation starts at the origin.
func NewCollector(windowSeconds float64, maxSealed int) (*Collector, error) {
	if windowSeconds <= 0 {
		return nil, fmt.Errorf("window duration must be positive, got %v", windowSeconds)
	}
	if maxSealed <= 0 {
		return nil, fmt.Errorf("sealed queue bound must be positive, got %d", maxSealed)
	}
	return &Collector{
		windowSeconds:       windowSeconds,
		maxSealed:           maxSealed,
		sealed:              make([]TraceWindow, 0, maxSealed),
		nextFirstAfterReset: true,
	}, nil
}

// AddSample appends a tick to the active window, starting one if needed.
// When the window seals it is queued and a new window is started with the
// same sample as its first entry.
func (c *Collector) AddSample(s TickSample) {
	if c.current == nil {
		c.startWindow(s.Timestamp)
	}

	c.current.add(s)

	if c.current.Sealed(c.windowSeconds) {
		c.seal()
		c.startWindow(s.Timestamp)
		c.current.add(s)
	}
}

// MarkReset flags the next newly started window as first-after-reset.
func (c *Collector) MarkReset() {
	c.nextFirstAfterReset = true
}

// PopSealed removes and returns the oldest sealed window. The caller takes
// ownership; the collector keeps no reference to it.
func (c *Collector) PopSealed() (TraceWindow, bool) {
	if len(c.sealed) == 0 {
		return TraceWindow{}, false
	}
	w := c.sealed[0]
	c.sealed[0] = TraceWindow{}
	c.sealed = c.sealed[1:]
	return w, true
}

// Reset drops the active window and every queued sealed window. The
// first-after-reset flag is left as is; callers recovering from a violation
// follow up with MarkReset.
func (c *Collector) Reset() {
	c.current = nil
	c.sealed = make([]TraceWindow, 0, c.maxSealed)
}

// Flush seals the active window regardless of its duration. The next
// sample starts a fresh window, so Flush is meant for the end of a run.
func (c *Collector) Flush() {
	if c.current == nil || c.current.Len() == 0 {
		return
	}
	c.seal()
}

// Pending returns the number of sealed windows waiting to be popped.
func (c *Collector) Pending() int {
	return len(c.sealed)
}

// Active reports whether a window is currently being filled.
func (c *Collector) Active() bool {
	return c.current != nil
}

// Dropped returns how many sealed windows were evicted by the queue bound.
func (c *Collector) Dropped() uint64 {
	return c.dropped
}

func (c *Collector) startWindow(ts float64) {
	c.nextID++
	c.current = newWindow(c.nextID, ts, c.nextFirstAfterReset)
	c.nextFirstAfterReset = false
}

func (c *Collector) seal() {
	c.sealed = append(c.sealed, *c.current)
	c.current = nil

	for len(c.sealed) > c.maxSealed {
		c.sealed[0] = TraceWindow{}
		c.sealed = c.sealed[1:]
		c.dropped++
	}
}
