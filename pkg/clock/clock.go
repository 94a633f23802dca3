// Package clock implements the countdown shown with a timed question.
//
// The countdown is presentational: it never decides anything about the
// game, the operator does.
package clock

import (
	"fmt"
)

type Clock struct {
	Allowance int
	Remaining int
	Paused    bool

	running bool
}

func (cl *Clock) String() string {
	return fmt.Sprintf("%d:%02d", cl.Remaining/60, cl.Remaining%60)
}

// Start (re)arms the countdown with allowance seconds.
func (cl *Clock) Start(allowance int) {
	if allowance < 0 {
		allowance = 0
	}
	cl.Allowance = allowance
	cl.Remaining = allowance
	cl.Paused = false
	cl.running = true
}

// Tick counts elapsed seconds off the countdown and returns what is left.
// The result never drops below zero.
func (cl *Clock) Tick(elapsed int) int {
	if !cl.running || cl.Paused || elapsed <= 0 {
		return cl.Remaining
	}

	cl.Remaining -= elapsed
	if cl.Remaining < 0 {
		cl.Remaining = 0
	}
	return cl.Remaining
}

func (cl *Clock) Pause() {
	cl.Paused = true
}

func (cl *Clock) Resume() {
	cl.Paused = false
}

// Cancel stops the countdown for good; ticks no longer change it.
func (cl *Clock) Cancel() {
	cl.running = false
	cl.Paused = false
}

func (cl *Clock) Running() bool {
	return cl.running
}

func (cl *Clock) Expired() bool {
	return cl.running && cl.Remaining == 0
}
