package noc

import (
	"math"

	"github.com/sirupsen/logrus"

	"noctrace/src/misc"
)

// dispatcher is satisfied by both Scheduler and LPScheduler (which embeds
// one), letting Array drive either without caring which policy is active.
type dispatcher interface {
	Schedule(now float64, comms []*Communication) ([]string, error)
}

// Array is the event-driven execution engine (§4.7): it owns every tile and
// communication and the wire network they share, and drives a monotonic
// clock from event to event until every tile and communication's trace has
// drained.
type Array struct {
	Tiles []*Tile
	Comms []*Communication

	wireNetwork *WireNetwork
	scheduler   dispatcher

	now      float64
	finished bool

	logger *logrus.Entry
}

// NewArray builds the event loop over tiles and comms sharing wireNetwork,
// dispatching communications with scheduler.
func NewArray(tiles []*Tile, comms []*Communication, wireNetwork *WireNetwork, scheduler dispatcher) *Array {
	return &Array{
		Tiles:       tiles,
		Comms:       comms,
		wireNetwork: wireNetwork,
		scheduler:   scheduler,
		logger:      misc.NewComponentLogger("array"),
	}
}

// Now returns the simulated clock's current value.
func (a *Array) Now() float64 {
	return a.now
}

// Finished reports whether the run has reached its fixed point.
func (a *Array) Finished() bool {
	return a.finished
}

// Run drives the event loop to completion, returning the final simulated
// time or the first fatal error encountered (§4.7, §7). Each full tick
// performs, in order: communication completion for every running
// communication, then tile completion+dispatch for every tile, then the
// communication dispatch phase via the scheduler — completions must commit
// before any downstream tile's readiness check is reconsulted in the same
// tick. The clock then advances to the next event time; if no finite next
// event exists while tiles or communications remain unfinished, that is a
// deadlock and is reported as an invariant violation rather than looped on
// forever.
func (a *Array) Run() (float64, error) {
	for {
		if err := a.tick(); err != nil {
			return a.now, err
		}
		if a.allFinished() {
			a.finished = true
			return a.now, nil
		}

		next, ok := a.nextEventTime()
		if !ok || next <= a.now {
			return a.now, misc.NewInvariantError("", "", "",
				"deadlock detected: no forward progress possible at time %v", a.now)
		}
		a.now = next
	}
}

func (a *Array) tick() error {
	for _, c := range a.Comms {
		if err := c.Update(a.now); err != nil {
			return err
		}
	}
	for _, t := range a.Tiles {
		if err := t.Update(a.now); err != nil {
			return err
		}
	}
	if _, err := a.scheduler.Schedule(a.now, a.Comms); err != nil {
		return err
	}
	return nil
}

func (a *Array) allFinished() bool {
	for _, t := range a.Tiles {
		if !t.Finished() {
			return false
		}
	}
	for _, c := range a.Comms {
		if !c.Finished() {
			return false
		}
	}
	return true
}

func (a *Array) nextEventTime() (float64, bool) {
	next := math.Inf(1)
	found := false
	for _, t := range a.Tiles {
		if t.running && t.EndTime() < next {
			next = t.EndTime()
			found = true
		}
	}
	for _, c := range a.Comms {
		if c.running && c.EndTime() < next {
			next = c.EndTime()
			found = true
		}
	}
	return next, found
}

// CheckFinish sweeps every tile and communication for a post-run invariant
// violation: a trace left mid-dependency, a communication short of its
// total, or anything still reporting running (§8).
func (a *Array) CheckFinish() error {
	for _, t := range a.Tiles {
		if err := t.CheckFinish(); err != nil {
			return err
		}
	}
	for _, c := range a.Comms {
		if err := c.CheckFinish(); err != nil {
			return err
		}
	}
	return nil
}
