package noc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noctrace/src/misc"
)

func newTestCommunication(t *testing.T, strategy PathStrategy) (*Communication, *WireNetwork, *OutputBuffer, *InputBuffer) {
	t.Helper()
	topology, err := BuildTopology(&misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 1, TileArrayCol: 2})
	require.NoError(t, err)
	wn := NewWireNetwork(topology, 1, false)

	srcOut := NewOutputBuffer(1000)
	dstIn := NewInputBuffer(1000)
	comm := NewCommunication(0, 0, 0, 1, NodeKey(0, 0), NodeKey(0, 1), srcOut, dstIn, wn, 1, strategy)
	return comm, wn, srcOut, dstIn
}

func TestCommunicationCheckReadyRequiresDataAndRoom(t *testing.T) {
	comm, _, srcOut, _ := newTestCommunication(t, StrategyNaive)
	require.False(t, comm.CheckReady())

	chunk := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}
	srcOut.AddDataList([]Chunk{chunk})
	require.True(t, comm.CheckReady())
}

func TestCommunicationSetTaskReservesPathAndMovesChunk(t *testing.T) {
	comm, wn, srcOut, dstIn := newTestCommunication(t, StrategyNaive)
	chunk := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}
	srcOut.AddDataList([]Chunk{chunk})

	require.NoError(t, comm.SetTask(0))
	require.True(t, wn.PathBusy([]string{NodeKey(0, 0), NodeKey(0, 1)}))
	_, ok := srcOut.NextTransferData()
	require.False(t, ok, "the chunk should have left the source buffer")

	require.Greater(t, comm.EndTime(), 0.0)

	require.NoError(t, comm.Update(comm.EndTime()))
	require.True(t, dstIn.CheckDataAlready([]Chunk{chunk}))
	require.False(t, wn.PathBusy([]string{NodeKey(0, 0), NodeKey(0, 1)}))
	require.Equal(t, 1.0, comm.DoneRate())
	require.True(t, comm.Finished())
	require.NoError(t, comm.CheckFinish())
}

func TestCommunicationSetTaskTwiceWhileRunningFails(t *testing.T) {
	comm, _, srcOut, _ := newTestCommunication(t, StrategyNaive)
	srcOut.AddDataList([]Chunk{{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}})
	require.NoError(t, comm.SetTask(0))
	require.Error(t, comm.SetTask(0))
}
