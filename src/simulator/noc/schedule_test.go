package noc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noctrace/src/misc"
)

func buildLineNetwork(t *testing.T) (*Topology, *WireNetwork) {
	t.Helper()
	topology, err := BuildTopology(&misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 1, TileArrayCol: 3})
	require.NoError(t, err)
	return topology, NewWireNetwork(topology, 1, false)
}

func TestPathLenThresholdTakesTheLargerBound(t *testing.T) {
	require.Equal(t, 3, pathLenThreshold(1)) // floor(1.8*1)=1, baseline+2=3
	require.Equal(t, 9, pathLenThreshold(5)) // floor(1.8*5)=9, baseline+2=7
}

func TestSchedulerDynamicOrderDispatchesLeastCompleteFirst(t *testing.T) {
	topology, wn := buildLineNetwork(t)
	s := NewScheduler(SchedulerConfig{Order: OrderDynamic, PathMode: PathModeUnbounded, Strategy: StrategyNaive}, wn, topology)

	aheadOut := NewOutputBuffer(1000)
	aheadIn := NewInputBuffer(1000)
	ahead := NewCommunication(0, 0, 0, 1, NodeKey(0, 0), NodeKey(0, 1), aheadOut, aheadIn, wn, 2, StrategyNaive)
	aheadOut.AddDataList([]Chunk{{X: 0, TileID: 0, Start: 0, End: 1, BitWidth: 1}})
	require.NoError(t, ahead.SetTask(0))
	require.NoError(t, ahead.Update(ahead.EndTime()))
	aheadOut.AddDataList([]Chunk{{X: 1, TileID: 0, Start: 0, End: 1, BitWidth: 1}})

	behindOut := NewOutputBuffer(1000)
	behindIn := NewInputBuffer(1000)
	behind := NewCommunication(0, 1, 0, 2, NodeKey(0, 1), NodeKey(0, 2), behindOut, behindIn, wn, 5, StrategyNaive)
	behindOut.AddDataList([]Chunk{{X: 0, TileID: 1, Start: 0, End: 1, BitWidth: 1}})

	ordered := s.order([]*Communication{ahead, behind})
	require.Equal(t, behind.ID(), ordered[0].ID(), "the 0/5-done comm must be ranked before the 1/2-done comm")
}

func TestSchedulerBoundedPathModeDispatchesPathWithinThreshold(t *testing.T) {
	topology, wn := buildLineNetwork(t)
	s := NewScheduler(SchedulerConfig{Order: OrderStatic, PathMode: PathModeBounded, Strategy: StrategyNaive}, wn, topology)

	srcOut := NewOutputBuffer(1000)
	dstIn := NewInputBuffer(1000)
	comm := NewCommunication(0, 0, 0, 2, NodeKey(0, 0), NodeKey(0, 2), srcOut, dstIn, wn, 1, StrategyNaive)
	srcOut.AddDataList([]Chunk{{X: 0, TileID: 0, Start: 0, End: 1, BitWidth: 1}})

	started, err := s.Schedule(0, []*Communication{comm})
	require.NoError(t, err)
	require.Contains(t, started, comm.ID(), "the baseline 2-hop path is within threshold and must dispatch")
}

func TestNewLPSchedulerPreSolvesAndInstallsPaths(t *testing.T) {
	topology, wn := buildLineNetwork(t)
	demands := []FlowDemand{{Src: NodeKey(0, 0), Dst: NodeKey(0, 2), Amount: 4}}

	lps, err := NewLPScheduler(wn, topology, demands, &misc.LPSolverConfig{Alpha: 1, Objective: "norm"})
	require.NoError(t, err)

	srcOut := NewOutputBuffer(1000)
	dstIn := NewInputBuffer(1000)
	comm := NewCommunication(0, 0, 0, 2, NodeKey(0, 0), NodeKey(0, 2), srcOut, dstIn, wn, 1, StrategyLinearProgram)
	srcOut.AddDataList([]Chunk{{X: 0, TileID: 0, Start: 0, End: 1, BitWidth: 1}})

	started, err := lps.Schedule(0, []*Communication{comm})
	require.NoError(t, err)
	require.Contains(t, started, comm.ID(), "the pre-solved LP path must be consumed on dispatch")
}
