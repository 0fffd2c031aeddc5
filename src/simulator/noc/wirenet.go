package noc

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"noctrace/src/misc"
)

// PathStrategy names one of the routing disciplines §4.4 describes.
type PathStrategy string

const (
	StrategyNaive           PathStrategy = "naive"
	StrategyWestFirst       PathStrategy = "west_first"
	StrategyNorthLast       PathStrategy = "north_last"
	StrategyNegativeFirst   PathStrategy = "negative_first"
	StrategyAdaptive        PathStrategy = "adaptive"
	StrategyGreedy          PathStrategy = "greedy"
	StrategyDijkstra        PathStrategy = "dijkstra"
	StrategyAStar           PathStrategy = "astar"
	StrategyLinearProgram   PathStrategy = "cvxopt"
	maxWindingRoundsNoMove               = 3
)

type pathCacheKey struct {
	src, dst string
	strategy PathStrategy
}

// WireNetwork owns every wire in the mesh/torus plus the routing disciplines
// that turn a (source, destination) pair into a path of node keys (§4.4). It
// keeps the topology's full connectivity ("origin adjacency") immutable and
// derives the occupancy-aware ("residual") view fresh on every query instead
// of maintaining a second mutable index in lockstep with wire state, which
// would otherwise be a standing invitation to drift.
type WireNetwork struct {
	topology *Topology
	wires    map[string]*Wire
	logger   *logrus.Entry

	pathCache    map[pathCacheKey][]string
	plannedPaths map[[2]string][][]string // cvxopt-planned paths, consumed FIFO per (src,dst)
}

// NewWireNetwork builds one Wire per edge of topology, all sharing
// bandwidth and transparent.
func NewWireNetwork(topology *Topology, bandwidth float64, transparent bool) *WireNetwork {
	wn := &WireNetwork{
		topology:     topology,
		wires:        make(map[string]*Wire),
		logger:       misc.NewComponentLogger("wire_network"),
		pathCache:    make(map[pathCacheKey][]string),
		plannedPaths: make(map[[2]string][][]string),
	}
	seen := make(map[string]bool)
	for _, node := range topology.Nodes() {
		for _, neighbor := range topology.Neighbors(node) {
			a, b := node, neighbor
			if a > b {
				a, b = b, a
			}
			key := a + "|" + b
			if seen[key] {
				continue
			}
			seen[key] = true
			w := NewWire(a, b, bandwidth, transparent)
			wn.wires[w.ID()] = w
		}
	}
	return wn
}

func wireID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s<->%s", a, b)
}

// WireBetween returns the wire joining two adjacent nodes, or nil if they
// are not adjacent in the topology.
func (wn *WireNetwork) WireBetween(a, b string) *Wire {
	return wn.wires[wireID(a, b)]
}

// Wires returns every wire, sorted by id, for deterministic report output.
func (wn *WireNetwork) Wires() []*Wire {
	out := make([]*Wire, 0, len(wn.wires))
	for _, w := range wn.wires {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// residualNeighbors returns node's neighbors whose connecting wire is not
// currently busy (or is transparent, which never blocks a new holder).
func (wn *WireNetwork) residualNeighbors(node string) []string {
	var out []string
	for _, neighbor := range wn.topology.Neighbors(node) {
		w := wn.WireBetween(node, neighbor)
		if w == nil {
			continue
		}
		if w.Transparent() || !w.IsBusy() {
			out = append(out, neighbor)
		}
	}
	return out
}

// FindDataPath computes a path of node keys from src to dst under the named
// strategy, caching static strategies and bypassing the cache for the
// occupancy-sensitive ones (§4.4).
func (wn *WireNetwork) FindDataPath(src, dst string, strategy PathStrategy) ([]string, error) {
	if src == dst {
		return []string{src}, nil
	}
	switch strategy {
	case StrategyNaive:
		return wn.cachedOrCompute(src, dst, strategy, wn.naivePath)
	case StrategyWestFirst, StrategyNorthLast, StrategyNegativeFirst:
		return wn.cachedOrCompute(src, dst, strategy, func(s, d string) ([]string, error) {
			return wn.turnModelPath(s, d, strategy)
		})
	case StrategyAdaptive:
		return wn.cachedOrCompute(src, dst, strategy, wn.adaptivePath)
	case StrategyGreedy:
		return wn.greedyPath(src, dst)
	case StrategyDijkstra:
		return wn.dijkstraPath(src, dst)
	case StrategyAStar:
		return wn.astarPath(src, dst)
	case StrategyLinearProgram:
		return wn.popPlannedPath(src, dst)
	default:
		return nil, misc.NewConfigError("path_generator strategy %q is not supported", strategy)
	}
}

func (wn *WireNetwork) cachedOrCompute(src, dst string, strategy PathStrategy, compute func(string, string) ([]string, error)) ([]string, error) {
	key := pathCacheKey{src: src, dst: dst, strategy: strategy}
	if cached, ok := wn.pathCache[key]; ok {
		return cached, nil
	}
	computed, err := compute(src, dst)
	if err != nil {
		return nil, err
	}
	wn.pathCache[key] = computed
	return computed, nil
}

// naivePath walks row-first then column-first (dimension-order / X-Y
// routing) over the immutable topology grid, ignoring occupancy.
func (wn *WireNetwork) naivePath(src, dst string) ([]string, error) {
	from, ok := wn.topology.Coordinate(src)
	if !ok {
		return nil, misc.NewInvariantError(src, "", "", "node %s is not part of the topology", src)
	}
	to, ok := wn.topology.Coordinate(dst)
	if !ok {
		return nil, misc.NewInvariantError(dst, "", "", "node %s is not part of the topology", dst)
	}
	var path []string
	row, col := from.Row, from.Col
	path = append(path, NodeKey(row, col))
	for col != to.Col {
		col = stepToward(col, to.Col, wn.topology.Cols, wn.topology.Kind == misc.TopologyTorus)
		path = append(path, NodeKey(row, col))
	}
	for row != to.Row {
		row = stepToward(row, to.Row, wn.topology.Rows, wn.topology.Kind == misc.TopologyTorus)
		path = append(path, NodeKey(row, col))
	}
	return path, nil
}

func stepToward(cur, target, size int, wraps bool) int {
	if cur == target {
		return cur
	}
	forward := (cur + 1) % size
	backward := (cur - 1 + size) % size
	if !wraps {
		if target > cur {
			return cur + 1
		}
		return cur - 1
	}
	forwardDist := axisWrapDistance(forward, target, size, true)
	backwardDist := axisWrapDistance(backward, target, size, true)
	if forwardDist <= backwardDist {
		return forward
	}
	return backward
}

// turnModelPath implements the three named turn-model disciplines (§4.4) as
// a single-turn dimension-order walk: the strategy and the sign of the
// required movement along each axis decide whether the column or the row
// coordinate is advanced first, and the other axis follows. Wire occupancy
// is not consulted, so every round advances one hop and the walk always
// reaches dst; the three-rounds-without-progress failure check below never
// fires for nodes on the grid. Results are cached like naive paths.
func (wn *WireNetwork) turnModelPath(src, dst string, strategy PathStrategy) ([]string, error) {
	from, ok := wn.topology.Coordinate(src)
	if !ok {
		return nil, misc.NewInvariantError(src, "", "", "node %s is not part of the topology", src)
	}
	to, ok := wn.topology.Coordinate(dst)
	if !ok {
		return nil, misc.NewInvariantError(dst, "", "", "node %s is not part of the topology", dst)
	}

	colFirst := true
	switch strategy {
	case StrategyWestFirst:
		colFirst = to.Col <= from.Col
	case StrategyNorthLast:
		colFirst = true
	case StrategyNegativeFirst:
		colFirst = to.Col <= from.Col || to.Row <= from.Row
	}

	row, col := from.Row, from.Col
	pathNodes := []string{NodeKey(row, col)}
	noProgressRounds := 0
	for row != to.Row || col != to.Col {
		moved := false
		if colFirst && col != to.Col {
			col = stepToward(col, to.Col, wn.topology.Cols, wn.topology.Kind == misc.TopologyTorus)
			moved = true
		} else if row != to.Row {
			row = stepToward(row, to.Row, wn.topology.Rows, wn.topology.Kind == misc.TopologyTorus)
			moved = true
		} else if col != to.Col {
			col = stepToward(col, to.Col, wn.topology.Cols, wn.topology.Kind == misc.TopologyTorus)
			moved = true
		}
		if moved {
			noProgressRounds = 0
			pathNodes = append(pathNodes, NodeKey(row, col))
		} else {
			noProgressRounds++
			if noProgressRounds >= maxWindingRoundsNoMove {
				return nil, misc.NewInvariantError(src, "", "",
					"turn-model routing from %s to %s made no progress for %d rounds", src, dst, maxWindingRoundsNoMove)
			}
		}
	}
	return pathNodes, nil
}

// adaptivePath returns a topology-minimum-hop path over the full (origin)
// adjacency via breadth-first search, ignoring current occupancy.
func (wn *WireNetwork) adaptivePath(src, dst string) ([]string, error) {
	visited := map[string]bool{src: true}
	prev := map[string]string{}
	queue := []string{src}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == dst {
			return reconstructPath(prev, src, dst), nil
		}
		for _, neighbor := range wn.topology.Neighbors(node) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			prev[neighbor] = node
			queue = append(queue, neighbor)
		}
	}
	return nil, misc.NewInvariantError(src, "", "", "no topological path from %s to %s", src, dst)
}

func reconstructPath(prev map[string]string, src, dst string) []string {
	var rev []string
	node := dst
	for node != src {
		rev = append(rev, node)
		node = prev[node]
	}
	rev = append(rev, src)
	out := make([]string, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// greedyPath walks to the residual neighbor minimizing wrap-aware Manhattan
// distance to dst at every step, with no cost accumulation and no
// backtracking; it fails if it reaches a node with no unvisited residual
// neighbor. The chosen neighbor need not be closer to dst than the current
// node.
func (wn *WireNetwork) greedyPath(src, dst string) ([]string, error) {
	to, ok := wn.topology.Coordinate(dst)
	if !ok {
		return nil, misc.NewInvariantError(dst, "", "", "node %s is not part of the topology", dst)
	}
	visited := map[string]bool{src: true}
	pathNodes := []string{src}
	node := src
	for node != dst {
		best := ""
		bestDist := -1
		for _, neighbor := range wn.residualNeighbors(node) {
			if visited[neighbor] {
				continue
			}
			coord, ok := wn.topology.Coordinate(neighbor)
			if !ok {
				continue
			}
			dist := wn.topology.WrapDistance(coord, to)
			if bestDist == -1 || dist < bestDist {
				bestDist = dist
				best = neighbor
			}
		}
		if best == "" {
			return nil, misc.NewInvariantError(src, "", "",
				"greedy routing from %s to %s has no free onward link at %s", src, dst, node)
		}
		visited[best] = true
		pathNodes = append(pathNodes, best)
		node = best
	}
	return pathNodes, nil
}

// astarPath runs A* over the residual graph using wrap-aware Manhattan
// distance as the admissible heuristic, with this package's PriorityQueue
// breaking equal-priority ties by insertion order.
func (wn *WireNetwork) astarPath(src, dst string) ([]string, error) {
	to, ok := wn.topology.Coordinate(dst)
	if !ok {
		return nil, misc.NewInvariantError(dst, "", "", "node %s is not part of the topology", dst)
	}
	heuristic := func(node string) float64 {
		coord, ok := wn.topology.Coordinate(node)
		if !ok {
			return 0
		}
		return float64(wn.topology.WrapDistance(coord, to))
	}

	gScore := map[string]float64{src: 0}
	prev := map[string]string{}
	closed := map[string]bool{}

	open := NewPriorityQueue()
	open.Push(src, heuristic(src))

	for open.Len() > 0 {
		node, _, _ := open.Pop()
		if node == dst {
			return reconstructPath(prev, src, dst), nil
		}
		if closed[node] {
			continue
		}
		closed[node] = true
		for _, neighbor := range wn.residualNeighbors(node) {
			tentative := gScore[node] + 1
			if existing, ok := gScore[neighbor]; ok && tentative >= existing {
				continue
			}
			gScore[neighbor] = tentative
			prev[neighbor] = node
			open.Push(neighbor, tentative+heuristic(neighbor))
		}
	}
	return nil, misc.NewInvariantError(src, "", "", "no residual path from %s to %s", src, dst)
}

// dijkstraPath runs gonum's Dijkstra over a fresh residual graph snapshot.
func (wn *WireNetwork) dijkstraPath(src, dst string) ([]string, error) {
	g, ids, err := wn.buildResidualGraph()
	if err != nil {
		return nil, err
	}
	srcID, ok := ids[src]
	if !ok {
		return nil, misc.NewInvariantError(src, "", "", "node %s is not part of the topology", src)
	}
	dstID, ok := ids[dst]
	if !ok {
		return nil, misc.NewInvariantError(dst, "", "", "node %s is not part of the topology", dst)
	}
	shortest := path.DijkstraFrom(g.Node(srcID), g)
	nodes, _ := shortest.To(dstID)
	if len(nodes) == 0 {
		return nil, misc.NewInvariantError(src, "", "", "no residual path from %s to %s", src, dst)
	}
	out := make([]string, len(nodes))
	inv := make(map[int64]string, len(ids))
	for k, v := range ids {
		inv[v] = k
	}
	for i, n := range nodes {
		out[i] = inv[n.ID()]
	}
	return out, nil
}

func (wn *WireNetwork) buildResidualGraph() (*simple.UndirectedGraph, map[string]int64, error) {
	g := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(wn.topology.Nodes()))
	var next int64
	for _, node := range wn.topology.Nodes() {
		ids[node] = next
		g.AddNode(simple.Node(next))
		next++
	}
	for _, node := range wn.topology.Nodes() {
		for _, neighbor := range wn.residualNeighbors(node) {
			a, b := ids[node], ids[neighbor]
			if !g.HasEdgeBetween(a, b) {
				g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
			}
		}
	}
	return g, ids, nil
}

// ReservePath marks every wire along path busy for commID, rolling back any
// partial reservation if one segment is already held (§4.2 set_task).
func (wn *WireNetwork) ReservePath(pathNodes []string, commID string, now float64) error {
	held := make([]*Wire, 0, len(pathNodes)-1)
	for i := 0; i+1 < len(pathNodes); i++ {
		w := wn.WireBetween(pathNodes[i], pathNodes[i+1])
		if w == nil {
			wn.rollback(held, commID, now)
			return misc.NewInvariantError("", commID, "", "no wire between %s and %s", pathNodes[i], pathNodes[i+1])
		}
		if err := w.SetState(true, commID, now); err != nil {
			wn.rollback(held, commID, now)
			return err
		}
		held = append(held, w)
	}
	return nil
}

func (wn *WireNetwork) rollback(held []*Wire, commID string, now float64) {
	for _, w := range held {
		_ = w.SetState(false, commID, now)
	}
}

// ReleasePath releases every wire along path held by commID (§4.2 update,
// on completion).
func (wn *WireNetwork) ReleasePath(pathNodes []string, commID string, now float64) error {
	for i := 0; i+1 < len(pathNodes); i++ {
		w := wn.WireBetween(pathNodes[i], pathNodes[i+1])
		if w == nil {
			continue
		}
		if err := w.SetState(false, commID, now); err != nil {
			return err
		}
	}
	return nil
}

// PathBusy reports whether any non-transparent wire along path is currently
// held (used by the scheduler to skip a ready communication before reserving
// its path).
func (wn *WireNetwork) PathBusy(pathNodes []string) bool {
	for i := 0; i+1 < len(pathNodes); i++ {
		w := wn.WireBetween(pathNodes[i], pathNodes[i+1])
		if w == nil {
			continue
		}
		if !w.Transparent() && w.IsBusy() {
			return true
		}
	}
	return false
}

// SetPlannedPaths installs the LP planner's decomposed paths for (src, dst),
// consumed FIFO by the cvxopt strategy as communications of that commodity
// are dispatched (§4.5, §4.6).
func (wn *WireNetwork) SetPlannedPaths(src, dst string, paths [][]string) {
	wn.plannedPaths[[2]string{src, dst}] = paths
}

func (wn *WireNetwork) popPlannedPath(src, dst string) ([]string, error) {
	key := [2]string{src, dst}
	queue := wn.plannedPaths[key]
	if len(queue) == 0 {
		return nil, misc.NewLPInfeasibleError("no planned path remaining for %s -> %s", src, dst)
	}
	next := queue[0]
	wn.plannedPaths[key] = queue[1:]
	return next, nil
}
