package noc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWireNormalizesEndpointOrder(t *testing.T) {
	w := NewWire("(1, 0)", "(0, 0)", 1, false)
	require.Equal(t, "(0, 0)", w.A)
	require.Equal(t, "(1, 0)", w.B)
}

func TestWireExclusiveSetStateRejectsDoubleBusy(t *testing.T) {
	w := NewWire("a", "b", 1, false)
	require.NoError(t, w.SetState(true, "comm-1", 0))
	err := w.SetState(true, "comm-2", 1)
	require.Error(t, err)
}

func TestWireReleaseOfUnheldCommFails(t *testing.T) {
	w := NewWire("a", "b", 1, false)
	err := w.SetState(false, "comm-1", 0)
	require.Error(t, err)
}

func TestWireTransparentAllowsConcurrentHolders(t *testing.T) {
	w := NewWire("a", "b", 1, true)
	require.NoError(t, w.SetState(true, "comm-1", 0))
	require.NoError(t, w.SetState(true, "comm-2", 0))
	require.Equal(t, 2, w.HolderCount())
}

func TestWireTransferTimeIsBitsOverBandwidth(t *testing.T) {
	w := NewWire("a", "b", 2, false)
	chunks := []Chunk{{Start: 0, End: 4, BitWidth: 2}} // 8 bits
	require.Equal(t, 4.0, w.TransferTime(chunks))
}

func TestWireOccupancyRecordsClosedIntervals(t *testing.T) {
	w := NewWire("a", "b", 1, false)
	require.NoError(t, w.SetState(true, "comm-1", 0))
	require.NoError(t, w.SetState(false, "comm-1", 5))

	occupancy := w.Occupancy()
	require.Len(t, occupancy, 1)
	require.Equal(t, 0.0, occupancy[0].Start)
	require.Equal(t, 5.0, occupancy[0].End)
	require.Equal(t, "comm-1", occupancy[0].CommID)
}
