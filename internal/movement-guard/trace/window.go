package trace

// TraceWindow is an ordered run of samples proven as one unit.
type TraceWindow struct {
	ID              uint64       `yaml:"id" json:"id"`
	Samples         []TickSample `yaml:"samples" json:"samples"`
	StartTime       float64      `yaml:"start_time" json:"start_time"`
	Duration        float64      `yaml:"duration" json:"duration"`
	FirstAfterReset bool         `yaml:"first_after_reset" json:"first_after_reset"`
}

func newWindow(id uint64, startTime float64, firstAfterReset bool) *TraceWindow {
	return &TraceWindow{
		ID:              id,
		Samples:         make([]TickSample, 0, 8),
		StartTime:       startTime,
		FirstAfterReset: firstAfterReset,
	}
}

func (w *TraceWindow) add(s TickSample) {
	w.Duration = s.Timestamp - w.StartTime
	w.Samples = append(w.Samples, s)
}

// Sealed reports whether the window has reached the target duration.
func (w *TraceWindow) Sealed(target float64) bool {
	return w.Duration >= target
}

// Len returns the number of recorded samples.
func (w *TraceWindow) Len() int {
	return len(w.Samples)
}

// First returns the opening sample. The window must not be empty.
func (w *TraceWindow) First() TickSample {
	return w.Samples[0]
}

// Last returns the closing sample. The window must not be empty.
func (w *TraceWindow) Last() TickSample {
	return w.Samples[len(w.Samples)-1]
}
