package noc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInputBufferCommitCycle(t *testing.T) {
	buf := NewInputBuffer(100)
	chunks := []Chunk{{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}}

	require.False(t, buf.CheckDataAlready(chunks))

	buf.AddTransferDataList(chunks)
	require.Equal(t, int64(100-27), buf.CheckRemainSize())
	require.False(t, buf.CheckDataAlready(chunks), "in-flight data is not yet committed")

	buf.AddDataList(chunks)
	require.True(t, buf.CheckDataAlready(chunks))
	require.Equal(t, int64(100-27), buf.CheckRemainSize(), "committing frees the in-flight reservation")

	buf.DeleteDataList(chunks)
	require.False(t, buf.CheckDataAlready(chunks))
	require.Equal(t, int64(100), buf.CheckRemainSize())
}

func TestInputBufferPipelineStartNeverBlocks(t *testing.T) {
	buf := NewInputBuffer(1)
	buf.SetStart()
	chunks := []Chunk{{X: 0, Y: 0, Start: 0, End: 100, BitWidth: 9, TileID: 0}}
	require.True(t, buf.CheckDataAlready(chunks))
	buf.AddTransferDataList(chunks)
	require.Greater(t, buf.CheckRemainSize(), int64(1))
}

func TestOutputBufferFIFOTransfer(t *testing.T) {
	buf := NewOutputBuffer(1000)
	first := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}
	second := Chunk{X: 0, Y: 1, Start: 0, End: 3, BitWidth: 9, TileID: 0}

	buf.AddDataList([]Chunk{first, second})
	next, ok := buf.NextTransferData()
	require.True(t, ok)
	require.Equal(t, first, next)

	buf.DeleteDataList([]Chunk{first})
	next, ok = buf.NextTransferData()
	require.True(t, ok)
	require.Equal(t, second, next)

	buf.DeleteDataList([]Chunk{second})
	_, ok = buf.NextTransferData()
	require.False(t, ok)
}

func TestOutputBufferPipelineEndIsUnbounded(t *testing.T) {
	buf := NewOutputBuffer(1)
	buf.SetEnd()
	chunk := Chunk{X: 0, Y: 0, Start: 0, End: 1000, BitWidth: 9, TileID: 0}
	buf.AddDataList([]Chunk{chunk})
	require.Greater(t, buf.CheckRemainSize(), int64(1))
}

func TestMultiInputBufferConjunctiveWait(t *testing.T) {
	buf := NewMultiInputBuffer([]int{1, 2}, 200)
	fromOne := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 1}
	fromTwo := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 2}

	require.False(t, buf.CheckDataAlready([]Chunk{fromOne, fromTwo}))

	buf.AddDataList([]Chunk{fromOne}, 1)
	require.False(t, buf.CheckDataAlready([]Chunk{fromOne, fromTwo}), "still missing source 2's chunk")

	buf.AddDataList([]Chunk{fromTwo}, 2)
	require.True(t, buf.CheckDataAlready([]Chunk{fromOne, fromTwo}))
}

func TestMultiOutputBufferMirrorsToEveryTarget(t *testing.T) {
	buf := NewMultiOutputBuffer([]int{10, 20}, 500)
	chunk := Chunk{X: 0, Y: 0, Start: 0, End: 3, BitWidth: 9, TileID: 0}
	buf.AddDataList([]Chunk{chunk})

	for _, target := range []int{10, 20} {
		next, ok := buf.ForTarget(target).NextTransferData()
		require.True(t, ok)
		require.Equal(t, chunk, next)
	}
}
