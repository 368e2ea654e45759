package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	got := clock.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("RealClock.Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestMockClock(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(base)

	if !clock.Now().Equal(base) {
		t.Errorf("expected %v, got %v", base, clock.Now())
	}

	clock.Advance(90 * time.Second)
	if want := base.Add(90 * time.Second); !clock.Now().Equal(want) {
		t.Errorf("after Advance expected %v, got %v", want, clock.Now())
	}

	reset := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(reset)
	if !clock.Now().Equal(reset) {
		t.Errorf("after Set expected %v, got %v", reset, clock.Now())
	}
}
