package noc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"noctrace/src/misc"
)

// Communication moves one commodity's chunks, one at a time, from a source
// tile's per-target output sub-buffer to a destination tile's per-source
// input sub-buffer over the wire network (§4.2). Its identity string
// follows the original's "{src_task},{src_tile}->{dst_task},{dst_tile}"
// convention for diagnostics and report keys; a communication only ever
// connects tiles belonging to the same task, so SourceTaskID and
// TargetTaskID always carry equal values, but both are kept to match that
// id format exactly.
type Communication struct {
	SourceTaskID int
	TargetTaskID int
	SourceTileID int
	TargetTileID int
	SourceNode   string
	TargetNode   string
	Strategy     PathStrategy
	Total        int

	wireNetwork *WireNetwork
	sourceOut   *OutputBuffer
	targetIn    *InputBuffer

	running       bool
	currentChunk  Chunk
	currentPath   []string
	start         float64
	end           float64
	doneCount     int
	transferSpans []Interval

	logger *logrus.Entry
}

// NewCommunication wires a communication between the output sub-buffer a
// source tile keeps for targetTileID and the input sub-buffer a destination
// tile keeps for sourceTileID.
func NewCommunication(
	sourceTaskID, sourceTileID, targetTaskID, targetTileID int,
	sourceNode, targetNode string,
	sourceOut *OutputBuffer,
	targetIn *InputBuffer,
	wireNetwork *WireNetwork,
	total int,
	strategy PathStrategy,
) *Communication {
	return &Communication{
		SourceTaskID: sourceTaskID,
		TargetTaskID: targetTaskID,
		SourceTileID: sourceTileID,
		TargetTileID: targetTileID,
		SourceNode:   sourceNode,
		TargetNode:   targetNode,
		Strategy:     strategy,
		Total:        total,
		wireNetwork:  wireNetwork,
		sourceOut:    sourceOut,
		targetIn:     targetIn,
		end:          math.Inf(1),
		logger:       misc.NewComponentLogger("communication"),
	}
}

// ID renders the communication's identity as
// "srcTask,srcTile->dstTask,dstTile" (§3).
func (c *Communication) ID() string {
	return fmt.Sprintf("%d,%d->%d,%d", c.SourceTaskID, c.SourceTileID, c.TargetTaskID, c.TargetTileID)
}

// CheckReady reports whether this communication may be dispatched: it is
// not already running, there is a chunk waiting in the source's output
// sub-buffer, and the destination's input sub-buffer has room for it.
func (c *Communication) CheckReady() bool {
	if c.running {
		return false
	}
	chunk, ok := c.sourceOut.NextTransferData()
	if !ok {
		return false
	}
	return c.targetIn.CheckRemainSize() >= chunk.Bits()
}

// SetTask binds the next chunk to a path computed by the wire network,
// reserves every wire along it, and schedules completion at now+duration
// where duration is the transfer time of the slowest wire on the path
// (§4.2).
func (c *Communication) SetTask(now float64) error {
	path, err := c.wireNetwork.FindDataPath(c.SourceNode, c.TargetNode, c.Strategy)
	if err != nil {
		return err
	}
	return c.SetTaskWithPath(now, path)
}

// SetTaskWithPath is SetTask with the path already computed by the caller,
// letting a scheduler that rejects over-long candidate paths (§4.6) avoid
// paying for FindDataPath twice.
func (c *Communication) SetTaskWithPath(now float64, path []string) error {
	if c.running {
		return misc.NewInvariantError("", c.ID(), "", "communication started while already running")
	}
	chunk, ok := c.sourceOut.NextTransferData()
	if !ok {
		return misc.NewInvariantError("", c.ID(), "", "set_task called with no data to transfer")
	}
	if err := c.wireNetwork.ReservePath(path, c.ID(), now); err != nil {
		return err
	}

	duration := 0.0
	for i := 0; i+1 < len(path); i++ {
		w := c.wireNetwork.WireBetween(path[i], path[i+1])
		if w == nil {
			continue
		}
		if t := w.TransferTime([]Chunk{chunk}); t > duration {
			duration = t
		}
	}

	c.sourceOut.DeleteDataList([]Chunk{chunk})
	c.targetIn.AddTransferDataList([]Chunk{chunk})

	c.currentChunk = chunk
	c.currentPath = path
	c.running = true
	c.start = now
	c.end = now + duration
	return nil
}

// Update advances the communication at time now: completion-only, the way
// §4.2 specifies. If running and now has reached end, the path is released,
// the chunk is committed into the destination's input, and the done count
// advances.
func (c *Communication) Update(now float64) error {
	if !c.running || now < c.end {
		return nil
	}
	if err := c.wireNetwork.ReleasePath(c.currentPath, c.ID(), now); err != nil {
		return err
	}
	c.targetIn.AddDataList([]Chunk{c.currentChunk})
	c.transferSpans = append(c.transferSpans, Interval{
		Start:  c.start,
		End:    c.end,
		CommID: c.ID(),
	})
	c.doneCount++
	c.running = false
	c.currentPath = nil
	c.end = math.Inf(1)
	return nil
}

// EndTime returns the communication's next scheduled completion, or +Inf if
// it is not currently running.
func (c *Communication) EndTime() float64 {
	return c.end
}

// DoneRate returns the fraction of the commodity's total chunk count that
// has completed, used by the dynamic-priority scheduling order (§4.6).
func (c *Communication) DoneRate() float64 {
	if c.Total == 0 {
		return 1
	}
	return float64(c.doneCount) / float64(c.Total)
}

// Finished reports whether every chunk of this commodity has been
// delivered.
func (c *Communication) Finished() bool {
	return c.doneCount >= c.Total
}

// CheckFinish reports an invariant violation if the communication is left
// running or short of its total at the end of the simulation (§8).
func (c *Communication) CheckFinish() error {
	if c.running {
		return misc.NewInvariantError("", c.ID(), "", "communication finished while still running")
	}
	if !c.Finished() {
		return misc.NewInvariantError("", c.ID(), "",
			"communication delivered %d of %d chunks", c.doneCount, c.Total)
	}
	return nil
}

// TransferSpans returns the recorded [start,end) transfer intervals, for
// the run's timeline report.
func (c *Communication) TransferSpans() []Interval {
	return append([]Interval(nil), c.transferSpans...)
}
