package noc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"noctrace/src/misc"
)

// Dependency is one entry of a tile's behavior trace (§3, §6): once every
// chunk in Wait is present in the tile's input, the tile may start
// computing; on completion it drops Drop from input, commits Output to
// output, and spends Latency time units doing so.
type Dependency struct {
	Wait    []Chunk
	Output  []Chunk
	Drop    []Chunk
	Latency float64
}

// TileBehavior is the immutable per-image-independent description of one
// tile's place in the dependency trace (§6): its task, position, the tiles
// it reads from and writes to, and its dependency list. TileID is only
// unique within TaskID — two tasks loaded from different
// task_config_path_list entries may each have their own tile 0, landing on
// distinct physical nodes (§3, §6).
type TileBehavior struct {
	TaskID        int
	TileID        int
	LayerID       int
	TargetTileIDs []int
	SourceTileIDs []int
	Dependencies  []Dependency
}

// Validate checks the trace invariants §3 requires of a behavior record:
// every Drop is a structural subset of the corresponding Wait, and every
// Latency is strictly positive.
func (b TileBehavior) Validate() error {
	for i, dep := range b.Dependencies {
		if !isSubsetOf(dep.Drop, dep.Wait) {
			return misc.NewTraceError(fmt.Sprintf("%d,%d", b.TaskID, b.TileID),
				"dependency %d: drop set is not a subset of wait set", i)
		}
		if dep.Latency <= 0 {
			return misc.NewTraceError(fmt.Sprintf("%d,%d", b.TaskID, b.TileID),
				"dependency %d: latency must be positive, got %v", i, dep.Latency)
		}
	}
	return nil
}

// Tile is one compute node's runtime state (§4.1): a fixed behavior
// trace plus the mutable machinery (buffers, dependency cursor, running
// flag) that lets the event loop ask it to advance. One Tile exists per
// (task, tile id) — not per image: its Behavior.Dependencies is already the
// full image_count × trace_length list built by ExpandForImageCount, so a
// single physical compute resource serializes every image's trace against
// its own buffers (§3, §4.1).
type Tile struct {
	ID       int
	TaskID   int
	Behavior TileBehavior

	Input  *MultiInputBuffer
	Output *MultiOutputBuffer

	running      bool
	depIndex     int
	end          float64
	computeSpans []Interval
	finished     bool

	logger *logrus.Entry
}

// NewTile builds the single physical tile at a grid position: one compute
// resource processing behavior's full, already-image-concatenated
// dependency list sequentially against freshly sized input/output buffers
// (§3, §4.1 — one Tile per node, not one per image).
func NewTile(behavior TileBehavior, inputCapacity, outputCapacity int64) *Tile {
	sources := behavior.SourceTileIDs
	if len(sources) == 0 {
		sources = []int{PipelineSentinel}
	}
	targets := behavior.TargetTileIDs
	if len(targets) == 0 {
		targets = []int{PipelineSentinel}
	}
	return &Tile{
		ID:       behavior.TileID,
		TaskID:   behavior.TaskID,
		Behavior: behavior,
		Input:    NewMultiInputBuffer(sources, inputCapacity),
		Output:   NewMultiOutputBuffer(targets, outputCapacity),
		end:      math.Inf(1),
		logger:   misc.NewComponentLogger(fmt.Sprintf("tile[%d,%d]", behavior.TaskID, behavior.TileID)),
	}
}

// id renders the tile's diagnostic identity as "task,tile".
func (t *Tile) id() string {
	return fmt.Sprintf("%d,%d", t.TaskID, t.ID)
}

// Finished reports whether every dependency in the trace has completed.
func (t *Tile) Finished() bool {
	return t.depIndex >= len(t.Behavior.Dependencies)
}

// EndTime returns the tile's next scheduled completion, or +Inf if it is
// not currently running.
func (t *Tile) EndTime() float64 {
	return t.end
}

// currentDependency returns the dependency the tile is currently waiting on
// or executing, and whether one remains.
func (t *Tile) currentDependency() (Dependency, bool) {
	if t.Finished() {
		return Dependency{}, false
	}
	return t.Behavior.Dependencies[t.depIndex], true
}

// Update advances the tile at time now: first the completion phase (drop
// consumed input, commit produced output, advance the cursor, if the
// tile is currently running and now has reached its end time), then the
// dispatch phase (if idle, check whether the next dependency's wait set is
// present and there is output-buffer room to commit its result; if so,
// start it, else block with end = +Inf) (§4.1).
func (t *Tile) Update(now float64) error {
	if t.running && now >= t.end {
		dep, ok := t.currentDependency()
		if !ok {
			return misc.NewInvariantError(t.id(), "", "",
				"tile completed with no pending dependency")
		}
		t.Input.DeleteDataList(dep.Drop)
		t.Output.AddDataList(dep.Output)
		t.computeSpans = append(t.computeSpans, Interval{Start: t.end - dep.Latency, End: t.end})
		t.depIndex++
		t.running = false
		t.end = math.Inf(1)
	}

	if t.running || t.Finished() {
		if t.Finished() {
			t.finished = true
		}
		return nil
	}

	dep, _ := t.currentDependency()
	if !t.Input.CheckDataAlready(dep.Wait) {
		return nil
	}
	if t.Output.CheckRemainSize() < totalBits(dep.Output) {
		return nil
	}
	t.running = true
	t.end = now + dep.Latency
	return nil
}

func totalBits(chunks []Chunk) int64 {
	var total int64
	for _, c := range chunks {
		total += c.Bits()
	}
	return total
}

// CheckFinish reports whether the tile's trace ran to completion and is not
// left mid-dependency (§8 invariant: every tile's trace fully drains).
func (t *Tile) CheckFinish() error {
	if !t.Finished() {
		return misc.NewInvariantError(t.id(), "", "",
			"tile stopped with %d of %d dependencies remaining",
			len(t.Behavior.Dependencies)-t.depIndex, len(t.Behavior.Dependencies))
	}
	if t.running {
		return misc.NewInvariantError(t.id(), "", "",
			"tile finished while still reporting running")
	}
	return nil
}

// ComputeSpans returns the recorded [start,end) compute intervals, for the
// run's timeline report.
func (t *Tile) ComputeSpans() []Interval {
	return append([]Interval(nil), t.computeSpans...)
}
