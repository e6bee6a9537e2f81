package limiter

import (
	"math"
	"testing"
)

func TestStatsAccumulator(t *testing.T) {
	var a statsAccumulator

	if got := a.snapshot(); got != neutralStats() {
		t.Fatalf("fresh snapshot=%+v, want neutral", got)
	}

	a.update(0.3, 0.8, 0.9)
	a.update(0.2, 0.5, 0.95)
	a.update(0.6, 0.7, 0.7)

	want := Stats{Peak: 0.6, MaxGain: 0.95, MinGain: 0.5}
	if got := a.snapshot(); got != want {
		t.Fatalf("snapshot=%+v, want %+v", got, want)
	}

	a.reset()

	if got := a.snapshot(); got != neutralStats() {
		t.Fatalf("after reset=%+v, want neutral", got)
	}
}

func TestStatsFirstUpdateReplacesNeutral(t *testing.T) {
	var a statsAccumulator
	a.update(0.1, 0.4, 0.6)

	want := Stats{Peak: 0.1, MaxGain: 0.6, MinGain: 0.4}
	if got := a.snapshot(); got != want {
		t.Fatalf("snapshot=%+v, want %+v", got, want)
	}
}

func TestStatsDB(t *testing.T) {
	s := Stats{Peak: 0.5, MaxGain: 1, MinGain: 0.25}

	if got := s.PeakDB(); math.Abs(got-(-6.0206)) > 1e-4 {
		t.Fatalf("PeakDB=%v", got)
	}

	if got := s.MinReductionDB(); got != 0 {
		t.Fatalf("MinReductionDB=%v, want 0", got)
	}

	if got := s.MaxReductionDB(); math.Abs(got-(-12.0412)) > 1e-4 {
		t.Fatalf("MaxReductionDB=%v", got)
	}
}
