package noc

import "noctrace/src/misc"

// Mapping assigns every tile-behavior in the full, flattened, multi-task
// behavior list to a physical node on the topology (§4.6, §6). It operates
// on the whole list at once, not one tile id at a time, because tile_id is
// only unique within a task: two tasks loaded from different
// task_config_path_list entries may each declare their own tile 0, so
// placement must be keyed by the behavior's position in the flattened list
// rather than by tile id alone. It is an interface, not a concrete strategy
// set, because the spec treats mapping as a pluggable policy surface and
// only requires a default.
type Mapping interface {
	// Map returns one node key per entry of behaviors, in the same order,
	// each landing inside topology (§6: "one per tile-behavior in the
	// flattened task list").
	Map(behaviors []TileBehavior, topology *Topology) ([]string, error)
}

// NaiveMapping places behaviors onto nodes in row-major order by their
// position in the flattened list, the default ResolveMapping returns for an
// empty or "naive" mapping_strategy.
type NaiveMapping struct{}

// Map looks each behavior's list index up directly as a row-major index
// into the topology.
func (NaiveMapping) Map(behaviors []TileBehavior, topology *Topology) ([]string, error) {
	out := make([]string, len(behaviors))
	for i := range behaviors {
		node, ok := topology.NodeForTile(i)
		if !ok {
			return nil, misc.NewConfigError("flattened tile index %d has no row-major node in a %dx%d grid",
				i, topology.Rows, topology.Cols)
		}
		out[i] = node
	}
	return out, nil
}

// ResolveMapping returns the Mapping implementation named by
// mapping_strategy (§6).
func ResolveMapping(name string) (Mapping, error) {
	switch name {
	case "naive", "":
		return NaiveMapping{}, nil
	default:
		return nil, misc.NewConfigError("mapping_strategy %q is not supported", name)
	}
}
