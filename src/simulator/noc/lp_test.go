package noc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noctrace/src/misc"
)

func TestLPFlowPlannerSolvesSingleDemandOnALine(t *testing.T) {
	topology, err := BuildTopology(&misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 1, TileArrayCol: 3})
	require.NoError(t, err)

	planner := NewLPFlowPlanner(topology)
	demands := []FlowDemand{{Src: NodeKey(0, 0), Dst: NodeKey(0, 2), Amount: 10}}

	plan, err := planner.Solve(demands, &misc.LPSolverConfig{Alpha: 1, Beta: 0, Objective: "norm"})
	require.NoError(t, err)

	paths := plan.Paths[[2]string{NodeKey(0, 0), NodeKey(0, 2)}]
	require.NotEmpty(t, paths)
	for _, p := range paths {
		require.Equal(t, NodeKey(0, 0), p[0])
		require.Equal(t, NodeKey(0, 2), p[len(p)-1])
	}
}

func TestLPFlowPlannerNoDemandsReturnsEmptyPlan(t *testing.T) {
	topology, err := BuildTopology(&misc.Config{NocTopology: misc.TopologyMesh, TileArrayRow: 1, TileArrayCol: 2})
	require.NoError(t, err)
	planner := NewLPFlowPlanner(topology)

	plan, err := planner.Solve(nil, nil)
	require.NoError(t, err)
	require.Empty(t, plan.Paths)
}
