package noc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"noctrace/src/misc"
)

// FlowDemand is one commodity of the multi-commodity flow problem: move
// Amount bits from Src to Dst (§4.5).
type FlowDemand struct {
	Src    string
	Dst    string
	Amount float64
}

// LPPlan is the arc-flow solution for a set of demands, decomposed into
// per-commodity paths ready for WireNetwork.SetPlannedPaths (§4.5).
type LPPlan struct {
	Paths map[[2]string][][]string
}

// LPFlowPlanner solves the multi-commodity min-cost flow relaxation that
// backs the cvxopt path generator (§4.5), built over a fixed arc list drawn
// from the topology's origin adjacency.
type LPFlowPlanner struct {
	topology *Topology
	arcs     [][2]string // directed arcs, both directions per undirected edge
	arcIndex map[[2]string]int
}

// NewLPFlowPlanner enumerates the directed arc set once from topology.
func NewLPFlowPlanner(topology *Topology) *LPFlowPlanner {
	p := &LPFlowPlanner{topology: topology, arcIndex: make(map[[2]string]int)}
	seen := make(map[[2]string]bool)
	for _, node := range topology.Nodes() {
		for _, neighbor := range topology.Neighbors(node) {
			for _, arc := range [][2]string{{node, neighbor}, {neighbor, node}} {
				if seen[arc] {
					continue
				}
				seen[arc] = true
				p.arcIndex[arc] = len(p.arcs)
				p.arcs = append(p.arcs, arc)
			}
		}
	}
	return p
}

// Solve builds and solves the standard-form LP
//
//	minimize   (α+β)·Σ x
//	subject to A·x = b,  x ≥ 0
//
// where x is the flattened per-commodity arc-flow vector and A is the
// arc-node incidence matrix repeated block-diagonally per commodity, solved
// with gonum's lp.Simplex (§4.5). Every arc of every commodity costs the
// same α+β. No edge-load congestion term is formed: no equivalent-edge
// matrix is built, cfg.Objective ("norm" or "max") is not consulted, and
// commodities sharing a physical wire are not penalized for it.
func (p *LPFlowPlanner) Solve(demands []FlowDemand, cfg *misc.LPSolverConfig) (*LPPlan, error) {
	if len(demands) == 0 {
		return &LPPlan{Paths: map[[2]string][][]string{}}, nil
	}
	numArcs := len(p.arcs)
	numCommodities := len(demands)
	numVars := numArcs * numCommodities

	// One node's flow-conservation constraint is always linearly dependent
	// on the rest (the balance equations for every node sum to zero), so
	// it is dropped per commodity to keep A full row rank, which
	// lp.Simplex requires.
	allNodes := p.topology.Nodes()
	nodes := allNodes
	if len(allNodes) > 1 {
		nodes = allNodes[:len(allNodes)-1]
	}

	// A: one row per (commodity, node) flow-conservation constraint.
	numRows := numCommodities * len(nodes)
	A := mat.NewDense(numRows, numVars, nil)
	b := make([]float64, numRows)

	for k, demand := range demands {
		for ni, node := range nodes {
			row := k*len(nodes) + ni
			for ai, arc := range p.arcs {
				col := k*numArcs + ai
				if arc[0] == node {
					A.Set(row, col, 1)
				} else if arc[1] == node {
					A.Set(row, col, -1)
				}
			}
			switch node {
			case demand.Src:
				b[row] = demand.Amount
			case demand.Dst:
				b[row] = -demand.Amount
			default:
				b[row] = 0
			}
		}
	}

	// c: the same cost α+β on every arc of every commodity, which keeps the
	// whole program linear for lp.Simplex.
	c := make([]float64, numVars)
	alpha, beta := 1.0, 0.0
	if cfg != nil {
		alpha, beta = cfg.Alpha, cfg.Beta
	}
	for i := range c {
		c[i] = alpha + beta
	}

	_, x, err := lp.Simplex(c, A, b, 0, nil)
	if err != nil {
		return nil, misc.NewLPInfeasibleError("multi-commodity flow LP infeasible: %v", err)
	}

	plan := &LPPlan{Paths: map[[2]string][][]string{}}
	for k, demand := range demands {
		flows := make(map[[2]string]float64, numArcs)
		for ai, arc := range p.arcs {
			flows[arc] = x[k*numArcs+ai]
		}
		paths, err := p.decompose(demand, flows)
		if err != nil {
			return nil, err
		}
		plan.Paths[[2]string{demand.Src, demand.Dst}] = paths
	}
	return plan, nil
}

// decompose peels off paths from a non-negative arc-flow solution greedily:
// repeatedly walk from src to dst following the largest-remaining outgoing
// edge, subtract the bottleneck flow found along that walk, and stop once
// less than ε = 0.01·demand.Amount remains undelivered (§4.5).
func (p *LPFlowPlanner) decompose(demand FlowDemand, flows map[[2]string]float64) ([][]string, error) {
	epsilon := 0.01 * demand.Amount
	var paths [][]string
	for guard := 0; guard < len(p.arcs)+1; guard++ {
		remaining := totalOutflow(flows, demand.Src, p.topology)
		if remaining < epsilon {
			break
		}
		walk, bottleneck, err := p.walkLargestFlow(demand.Src, demand.Dst, flows)
		if err != nil {
			if len(paths) == 0 {
				return nil, err
			}
			break
		}
		if bottleneck <= 0 {
			break
		}
		for i := 0; i+1 < len(walk); i++ {
			arc := [2]string{walk[i], walk[i+1]}
			flows[arc] -= bottleneck
		}
		paths = append(paths, walk)
	}
	if len(paths) == 0 {
		return nil, misc.NewLPInfeasibleError("no decomposable flow from %s to %s", demand.Src, demand.Dst)
	}
	return paths, nil
}

func totalOutflow(flows map[[2]string]float64, src string, topology *Topology) float64 {
	var total float64
	for arc, v := range flows {
		if arc[0] == src && v > 0 {
			total += v
		}
	}
	return total
}

func (p *LPFlowPlanner) walkLargestFlow(src, dst string, flows map[[2]string]float64) ([]string, float64, error) {
	node := src
	walk := []string{node}
	bottleneck := math.Inf(1)
	visited := map[string]bool{node: true}
	for node != dst {
		bestArc := [2]string{}
		bestFlow := 0.0
		found := false
		for _, neighbor := range p.topology.Neighbors(node) {
			if visited[neighbor] {
				continue
			}
			arc := [2]string{node, neighbor}
			if v := flows[arc]; v > bestFlow {
				bestFlow = v
				bestArc = arc
				found = true
			}
		}
		if !found {
			return nil, 0, misc.NewLPInfeasibleError("flow decomposition stalled before reaching %s", dst)
		}
		if bestFlow < bottleneck {
			bottleneck = bestFlow
		}
		node = bestArc[1]
		visited[node] = true
		walk = append(walk, node)
	}
	return walk, bottleneck, nil
}

// congestionNorm folds a set of per-edge loads into a single scalar via the
// L2 norm. Solve does not call it.
func congestionNorm(loads []float64) float64 {
	return floats.Norm(loads, 2)
}

// congestionMax folds per-edge loads via their maximum. Solve does not call
// it.
func congestionMax(loads []float64) float64 {
	if len(loads) == 0 {
		return 0
	}
	sorted := append([]float64(nil), loads...)
	sort.Float64s(sorted)
	return sorted[len(sorted)-1]
}
