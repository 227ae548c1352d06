// Package timer implements the programmable countdown timer.
package timer

import (
	"svision/emu/log"
	"svision/hw/snapshot"
)

const (
	slowPrescaler = 0x100
	fastPrescaler = 0x4000
)

// Timer counts CPU cycles down from the value programmed by the last write.
// Reaching zero fires it once, it stays idle until rearmed.
type Timer struct {
	cycles int32
	active bool
}

func (t *Timer) Reset() {
	t.cycles = 0
	t.active = false
}

// Write (re)arms the timer for val*0x100 cycles, or val*0x4000 when fast is
// set. A value of 0 counts as 256.
func (t *Timer) Write(val uint8, fast bool) {
	d := int32(val)
	if d == 0 {
		d = 0x100
	}
	if fast {
		t.cycles = d * fastPrescaler
	} else {
		t.cycles = d * slowPrescaler
	}
	t.active = true

	log.ModTimer.DebugZ("timer armed").
		Hex8("val", val).
		Bool("fast", fast).
		Int32("cycles", t.cycles).
		End()
}

// Advance consumes cycles and reports whether the timer fired. Undershoot is
// discarded: a timer rearmed after firing starts from its full count.
func (t *Timer) Advance(cycles int32) bool {
	if !t.active {
		return false
	}

	t.cycles -= cycles
	if t.cycles > 0 {
		return false
	}

	t.active = false
	log.ModTimer.DebugZ("timer fired").Int32("cycles", t.cycles).End()
	return true
}

func (t *Timer) State(state *snapshot.Timer) {
	state.Cycles = t.cycles
	state.Active = t.active
}

func (t *Timer) SetState(state *snapshot.Timer) {
	t.cycles = state.Cycles
	t.active = state.Active
}
