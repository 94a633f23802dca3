package clock

import (
	"testing"
)

func TestClockTick(t *testing.T) {
	var cl Clock
	cl.Start(60)

	if got := cl.Tick(1); got != 59 {
		t.Errorf("after 1s: %d", got)
	}
	if got := cl.Tick(30); got != 29 {
		t.Errorf("after 31s: %d", got)
	}
	if cl.String() != "0:29" {
		t.Errorf("unexpected string %q", cl.String())
	}
	if got := cl.Tick(-5); got != 29 {
		t.Errorf("negative elapsed changed remaining: %d", got)
	}
}

func TestClockNeverNegative(t *testing.T) {
	for _, elapsed := range []int{10, 11, 60, 1000} {
		var cl Clock
		cl.Start(10)

		if got := cl.Tick(elapsed); got != 0 {
			t.Errorf("tick(%d) on 10s allowance returned %d", elapsed, got)
		}
		if got := cl.Tick(elapsed); got != 0 {
			t.Errorf("second tick(%d) returned %d", elapsed, got)
		}
		if !cl.Expired() {
			t.Errorf("tick(%d) did not expire", elapsed)
		}
	}
}

func TestClockPauseResume(t *testing.T) {
	var cl Clock
	cl.Start(20)
	cl.Tick(5)

	cl.Pause()
	if got := cl.Tick(10); got != 15 {
		t.Errorf("paused clock moved: %d", got)
	}

	cl.Resume()
	if got := cl.Tick(10); got != 5 {
		t.Errorf("resumed clock: %d", got)
	}
}

func TestClockCancel(t *testing.T) {
	var cl Clock
	cl.Start(20)
	cl.Cancel()

	if cl.Running() {
		t.Error("cancelled clock still running")
	}
	if got := cl.Tick(5); got != 20 {
		t.Errorf("cancelled clock moved: %d", got)
	}

	cl.Start(90)
	if got := cl.Tick(1); got != 89 || cl.String() != "1:29" {
		t.Errorf("restarted clock: %d %s", got, cl.String())
	}
}
