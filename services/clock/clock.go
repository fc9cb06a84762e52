// Package clock implements the deterministic TestClock used by the
// backtest driver and the wall-clock LiveClock, plus the shared Timer
// bookkeeping both build on.
package clock

import (
	"sort"
	"time"

	"github.com/mrhb33/nautilus-backtest-go/services/events"
)

type timer struct {
	name       string
	callback   func(events.TimeEvent)
	intervalNs int64
	nextTimeNs int64
	stopTimeNs int64 // only meaningful when hasStop is true
	hasStop    bool
	seq        int // insertion order, for tie-breaking
}

// Clock is the common interface engines depend on; strategies only ever
// read TimestampNs.
type Clock interface {
	TimestampNs() int64
	SetTimer(name string, intervalNs int64, callback func(events.TimeEvent), startTimeNs *int64, stopTimeNs *int64)
	CancelTimer(name string)
	TimerNames() []string
	TimerCount() int
}

type timerSet struct {
	timers  map[string]*timer
	nextSeq int
}

func newTimerSet() timerSet {
	return timerSet{timers: make(map[string]*timer)}
}

func (t *timerSet) set(now int64, name string, intervalNs int64, callback func(events.TimeEvent), startTimeNs, stopTimeNs *int64) {
	start := now
	if startTimeNs != nil {
		start = *startTimeNs
	}
	tm := &timer{
		name:       name,
		callback:   callback,
		intervalNs: intervalNs,
		nextTimeNs: start + intervalNs,
		seq:        t.nextSeq,
	}
	if stopTimeNs != nil {
		tm.hasStop = true
		tm.stopTimeNs = *stopTimeNs
	}
	t.nextSeq++
	t.timers[name] = tm
}

func (t *timerSet) cancel(name string) { delete(t.timers, name) }

func (t *timerSet) names() []string {
	out := make([]string, 0, len(t.timers))
	for name := range t.timers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *timerSet) count() int { return len(t.timers) }

// TestClock advances only when told to; it never reads wall-clock time.
// Grounded on the original source's TestClock.advance_time, generalised so
// a single advance can span multiple nominal ticks of a periodic timer
// while producing exactly one TimeEvent per tick, in non-decreasing
// fire-timestamp order with ties broken by insertion order.
type TestClock struct {
	nowNs int64
	set   timerSet
}

func NewTestClock(initialNs int64) *TestClock {
	return &TestClock{nowNs: initialNs, set: newTimerSet()}
}

func (c *TestClock) TimestampNs() int64 { return c.nowNs }

func (c *TestClock) SetTimer(name string, intervalNs int64, callback func(events.TimeEvent), startTimeNs, stopTimeNs *int64) {
	c.set.set(c.nowNs, name, intervalNs, callback, startTimeNs, stopTimeNs)
}

func (c *TestClock) CancelTimer(name string) { c.set.cancel(name) }
func (c *TestClock) TimerNames() []string     { return c.set.names() }
func (c *TestClock) TimerCount() int          { return c.set.count() }

// AdvanceTo moves the clock forward to toNs and returns every TimeEvent
// whose fire timestamp falls in (previousNow, toNs], in non-decreasing
// fire-timestamp order. Calling AdvanceTo twice with the same toNs is
// idempotent: the second call returns no events, since every timer's
// nextTimeNs has already moved past toNs.
//
// AdvanceTo panics if toNs is less than the current time: the clock never
// moves backwards.
func (c *TestClock) AdvanceTo(toNs int64) []events.TimeEvent {
	if toNs < c.nowNs {
		panic("clock: AdvanceTo cannot move time backwards")
	}

	type fired struct {
		ev  events.TimeEvent
		seq int
	}
	var out []fired
	var expired []string

	for name, tm := range c.set.timers {
		for tm.nextTimeNs <= toNs {
			if tm.hasStop && tm.nextTimeNs > tm.stopTimeNs {
				expired = append(expired, name)
				break
			}
			out = append(out, fired{
				ev: events.TimeEvent{
					Name:     tm.name,
					TsEvent:  tm.nextTimeNs,
					TsInit:   tm.nextTimeNs,
					Callback: tm.callback,
				},
				seq: tm.seq,
			})
			tm.nextTimeNs += tm.intervalNs
		}
	}
	for _, name := range expired {
		c.set.cancel(name)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ev.TsEvent != out[j].ev.TsEvent {
			return out[i].ev.TsEvent < out[j].ev.TsEvent
		}
		return out[i].seq < out[j].seq
	})

	c.nowNs = toNs

	result := make([]events.TimeEvent, len(out))
	for i, f := range out {
		result[i] = f.ev
	}
	return result
}

// LiveClock reads the operating system's wall clock; it is never used on
// the deterministic replay path, only by tooling that wraps the kernel.
type LiveClock struct{ set timerSet }

func NewLiveClock() *LiveClock { return &LiveClock{set: newTimerSet()} }

func (c *LiveClock) TimestampNs() int64 { return time.Now().UnixNano() }

func (c *LiveClock) SetTimer(name string, intervalNs int64, callback func(events.TimeEvent), startTimeNs, stopTimeNs *int64) {
	c.set.set(c.TimestampNs(), name, intervalNs, callback, startTimeNs, stopTimeNs)
}

func (c *LiveClock) CancelTimer(name string) { c.set.cancel(name) }
func (c *LiveClock) TimerNames() []string     { return c.set.names() }
func (c *LiveClock) TimerCount() int          { return c.set.count() }
