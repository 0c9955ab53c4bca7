// Package common holds the run instrumentation shared by the pipeline and
// the CLI: named stage timers and memory snapshots.
package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timer measures one named span.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewNamedTimer starts a timer called name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed time.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration { return t.duration }

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// StageTimes collects stage durations in the order the stages ran.
type StageTimes struct {
	timers []*Timer
}

// Track starts a timer for stage and returns the func that stops it.
func (s *StageTimes) Track(stage string) func() {
	t := NewNamedTimer(stage)
	s.timers = append(s.timers, t)
	return func() { t.Stop() }
}

// Get returns the recorded duration of stage, zero when it never ran.
func (s *StageTimes) Get(stage string) time.Duration {
	for _, t := range s.timers {
		if t.name == stage {
			return t.duration
		}
	}
	return 0
}

// Total sums every stage.
func (s *StageTimes) Total() time.Duration {
	var d time.Duration
	for _, t := range s.timers {
		d += t.duration
	}
	return d
}

// String renders "pages 1.2s, partition 300ms".
func (s *StageTimes) String() string {
	parts := make([]string, 0, len(s.timers))
	for _, t := range s.timers {
		parts = append(parts, fmt.Sprintf("%s %v", t.name, t.duration.Round(time.Millisecond)))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON writes each stage as milliseconds.
func (s *StageTimes) MarshalJSON() ([]byte, error) {
	out := make(map[string]int64, len(s.timers))
	for _, t := range s.timers {
		out[t.name] = t.duration.Milliseconds()
	}
	return json.Marshal(out)
}
