package noc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noctrace/src/misc"
)

func TestBuildTopologyMeshHasNoWraparoundEdges(t *testing.T) {
	config := &misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 3, TileArrayCol: 3}
	topology, err := BuildTopology(config)
	require.NoError(t, err)
	require.Len(t, topology.Nodes(), 9)

	corner := NodeKey(0, 0)
	neighbors := topology.Neighbors(corner)
	require.Len(t, neighbors, 2, "a mesh corner has exactly two neighbors")
}

func TestBuildTopologyTorusWraps(t *testing.T) {
	config := &misc.Config{NocTopology: misc.TopologyTorus, TileArrayRow: 3, TileArrayCol: 3}
	topology, err := BuildTopology(config)
	require.NoError(t, err)

	corner := NodeKey(0, 0)
	neighbors := topology.Neighbors(corner)
	require.Len(t, neighbors, 4, "a torus corner still has four neighbors via wraparound")
	require.Contains(t, neighbors, NodeKey(0, 2))
	require.Contains(t, neighbors, NodeKey(2, 0))
}

func TestTileNodeRoundTrip(t *testing.T) {
	config := &misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 2, TileArrayCol: 2}
	topology, err := BuildTopology(config)
	require.NoError(t, err)

	node, ok := topology.NodeForTile(3)
	require.True(t, ok)
	require.Equal(t, NodeKey(1, 1), node)

	tileID, ok := topology.TileForNode(node)
	require.True(t, ok)
	require.Equal(t, 3, tileID)
}

func TestManhattanDistance(t *testing.T) {
	a := MeshCoordinate{Row: 0, Col: 0}
	b := MeshCoordinate{Row: 2, Col: 3}
	require.Equal(t, 5, ManhattanDistance(a, b))
}
