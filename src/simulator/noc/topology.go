package noc

import (
	"fmt"

	"noctrace/src/misc"
)

// MeshCoordinate is a (row, col) position on the tile grid, grounded on the
// teacher's chiplet MeshCoordinate but addressed by row/col rather than
// placement offset.
type MeshCoordinate struct {
	Row int
	Col int
}

// NodeKey renders a coordinate the way the wire network keys its adjacency
// and mapping dictionaries: "(row, col)".
func NodeKey(row, col int) string {
	return fmt.Sprintf("(%d, %d)", row, col)
}

// Key renders c via NodeKey.
func (c MeshCoordinate) Key() string {
	return NodeKey(c.Row, c.Col)
}

// ManhattanDistance returns |Δrow| + |Δcol| between two coordinates,
// ignoring any torus wraparound.
func ManhattanDistance(a, b MeshCoordinate) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Topology is the immutable grid shape and full connectivity of the mesh or
// torus described by a Config (§4.4). It is built once and never mutated;
// the wire network derives its "origin adjacency" directly from it.
type Topology struct {
	Kind misc.Topology
	Rows int
	Cols int

	nodes     []string
	adjacency map[string][]string
	coordOf   map[string]MeshCoordinate
	nodeOf    map[int]string
	tileOf    map[string]int
}

// BuildTopology constructs the grid described by config: rows * cols tiles
// laid out row-major, with mesh edges between horizontally/vertically
// adjacent tiles and, for a torus, additional wraparound edges closing each
// row and each column into a ring (§4.4).
func BuildTopology(config *misc.Config) (*Topology, error) {
	if config.TileArrayRow <= 0 || config.TileArrayCol <= 0 {
		return nil, misc.NewConfigError(
			"tile_array_row/tile_array_col must be positive, got (%d, %d)",
			config.TileArrayRow, config.TileArrayCol,
		)
	}
	t := &Topology{
		Kind:      config.NocTopology,
		Rows:      config.TileArrayRow,
		Cols:      config.TileArrayCol,
		adjacency: make(map[string][]string),
		coordOf:   make(map[string]MeshCoordinate),
		nodeOf:    make(map[int]string),
		tileOf:    make(map[string]int),
	}

	tileID := 0
	for row := 0; row < t.Rows; row++ {
		for col := 0; col < t.Cols; col++ {
			key := NodeKey(row, col)
			t.nodes = append(t.nodes, key)
			t.coordOf[key] = MeshCoordinate{Row: row, Col: col}
			t.nodeOf[tileID] = key
			t.tileOf[key] = tileID
			tileID++
		}
	}

	torus := config.NocTopology == misc.TopologyTorus
	for row := 0; row < t.Rows; row++ {
		for col := 0; col < t.Cols; col++ {
			from := NodeKey(row, col)
			if col+1 < t.Cols {
				t.addEdge(from, NodeKey(row, col+1))
			} else if torus && t.Cols > 1 {
				t.addEdge(from, NodeKey(row, 0))
			}
			if row+1 < t.Rows {
				t.addEdge(from, NodeKey(row+1, col))
			} else if torus && t.Rows > 1 {
				t.addEdge(from, NodeKey(0, col))
			}
		}
	}
	return t, nil
}

func (t *Topology) addEdge(a, b string) {
	t.adjacency[a] = append(t.adjacency[a], b)
	t.adjacency[b] = append(t.adjacency[b], a)
}

// Nodes returns every node key in row-major order.
func (t *Topology) Nodes() []string {
	return append([]string(nil), t.nodes...)
}

// Neighbors returns the full, unblocked connectivity of node (the "origin
// adjacency" every routing discipline may fall back to for a topological
// minimum-hop query).
func (t *Topology) Neighbors(node string) []string {
	return append([]string(nil), t.adjacency[node]...)
}

// Coordinate returns the (row, col) of a node key.
func (t *Topology) Coordinate(node string) (MeshCoordinate, bool) {
	c, ok := t.coordOf[node]
	return c, ok
}

// NodeForTile maps a tile id (row-major index into the grid) to its node
// key.
func (t *Topology) NodeForTile(tileID int) (string, bool) {
	node, ok := t.nodeOf[tileID]
	return node, ok
}

// TileForNode maps a node key back to its tile id.
func (t *Topology) TileForNode(node string) (int, bool) {
	id, ok := t.tileOf[node]
	return id, ok
}

// WrapDistance returns the Manhattan distance between two coordinates,
// accounting for torus wraparound on each axis that has it, used by the
// greedy routing heuristic (§4.4) so it stays admissible on a torus.
func (t *Topology) WrapDistance(a, b MeshCoordinate) int {
	rowDist := axisWrapDistance(a.Row, b.Row, t.Rows, t.Kind == misc.TopologyTorus)
	colDist := axisWrapDistance(a.Col, b.Col, t.Cols, t.Kind == misc.TopologyTorus)
	return rowDist + colDist
}

func axisWrapDistance(a, b, size int, wraps bool) int {
	d := abs(a - b)
	if !wraps || size == 0 {
		return d
	}
	if wrapped := size - d; wrapped < d {
		return wrapped
	}
	return d
}
