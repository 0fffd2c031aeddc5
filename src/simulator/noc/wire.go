package noc

import (
	"fmt"
	"sort"

	"noctrace/src/misc"
)

// Interval is a half-open [Start, End) span during which CommID held the
// wire, recorded for post-run occupancy reporting (§6).
type Interval struct {
	Start  float64
	End    float64
	CommID string
}

// Wire is a single bidirectional link between two adjacent mesh/torus nodes
// (§4.3). Endpoints are normalized so A precedes B lexicographically, which
// makes wire identity independent of the direction a caller happens to
// query it from.
type Wire struct {
	A, B        string
	bandwidth   float64
	transparent bool

	active    map[string]float64 // commID -> start time of its current hold
	occupancy []Interval
}

// NewWire builds a wire between a and b, normalizing endpoint order.
func NewWire(a, b string, bandwidth float64, transparent bool) *Wire {
	if a > b {
		a, b = b, a
	}
	return &Wire{
		A:           a,
		B:           b,
		bandwidth:   bandwidth,
		transparent: transparent,
		active:      make(map[string]float64),
	}
}

// ID renders the wire's normalized endpoint pair as a stable string key.
func (w *Wire) ID() string {
	return fmt.Sprintf("%s<->%s", w.A, w.B)
}

// Endpoints returns the wire's two normalized endpoints, A then B.
func (w *Wire) Endpoints() (string, string) {
	return w.A, w.B
}

// Bandwidth returns the wire's bits-per-ns capacity.
func (w *Wire) Bandwidth() float64 {
	return w.bandwidth
}

// Transparent reports whether this wire allows concurrent holders (§4.3).
func (w *Wire) Transparent() bool {
	return w.transparent
}

// IsBusy reports whether any communication currently holds the wire.
func (w *Wire) IsBusy() bool {
	return len(w.active) > 0
}

// HolderCount returns how many communications currently hold the wire
// (always 0 or 1 outside transparent mode).
func (w *Wire) HolderCount() int {
	return len(w.active)
}

// SetState records a communication acquiring or releasing the wire. Setting
// busy=true on a non-transparent wire that is already held by a different
// communication is an invariant violation (§8). Setting busy=false for a
// communication that does not currently hold the wire is likewise an
// invariant violation.
func (w *Wire) SetState(busy bool, commID string, now float64) error {
	if busy {
		if !w.transparent && w.IsBusy() {
			if _, already := w.active[commID]; !already {
				return misc.NewInvariantError("", commID, w.ID(),
					"wire already held by another communication")
			}
		}
		w.active[commID] = now
		return nil
	}
	start, ok := w.active[commID]
	if !ok {
		return misc.NewInvariantError("", commID, w.ID(),
			"release of a wire not held by this communication")
	}
	delete(w.active, commID)
	w.occupancy = append(w.occupancy, Interval{Start: start, End: now, CommID: commID})
	return nil
}

// TransferTime returns the time needed to move chunks across this wire at
// its bandwidth: total bits / bandwidth.
func (w *Wire) TransferTime(chunks []Chunk) float64 {
	var totalBits int64
	for _, c := range chunks {
		totalBits += c.Bits()
	}
	return float64(totalBits) / w.bandwidth
}

// RunningRate returns the effective per-communication bandwidth at endTime:
// the full bandwidth when the wire is held exclusively or idle, and an even
// share of it when transparent mode is letting several communications hold
// the wire concurrently.
func (w *Wire) RunningRate(endTime float64) float64 {
	holders := 0
	for _, start := range w.active {
		if start <= endTime {
			holders++
		}
	}
	if holders <= 1 {
		return w.bandwidth
	}
	return w.bandwidth / float64(holders)
}

// Occupancy returns the completed (closed) occupancy intervals recorded on
// this wire, sorted by start time, for the run's wire-range report (§6).
func (w *Wire) Occupancy() []Interval {
	out := append([]Interval(nil), w.occupancy...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
