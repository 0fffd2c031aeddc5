package noc

import (
	"fmt"

	"noctrace/src/misc"
)

// BuildResult bundles everything Run needs plus the pieces a report wants
// to inspect afterward.
type BuildResult struct {
	Topology    *Topology
	WireNetwork *WireNetwork
	Tiles       []*Tile
	Comms       []*Communication
	Array       *Array
}

// Build assembles one simulation run from a validated Config and the full,
// flattened, multi-task behavior list (every task_config_path_list entry's
// trace concatenated together, §4.1, §4.6, §6): it builds the topology and
// wire network, maps the whole flattened list to nodes in one pass,
// instantiates exactly one Tile per (task id, tile id) — each carrying the
// already image_count x trace_length-concatenated dependency list
// ExpandForImageCount builds, since one physical compute resource
// serializes every image's trace against its own buffers rather than
// running image_count independent Tile objects — wires up the
// Communications their dependency traces imply, scoped so a communication
// only ever connects tiles sharing a task id, and constructs the configured
// Scheduler (or, for a cvxopt path_generator, an LPScheduler that
// pre-solves the flow plan before any tick runs).
func Build(config *misc.Config, behaviors []TileBehavior) (*BuildResult, error) {
	topology, err := BuildTopology(config)
	if err != nil {
		return nil, err
	}
	mapping, err := ResolveMapping(config.MappingStrategy)
	if err != nil {
		return nil, err
	}
	strategy, err := resolveStrategy(config)
	if err != nil {
		return nil, err
	}

	wireNetwork := NewWireNetwork(topology, config.BandWidth, config.TransparentFlag)

	nodes, err := mapping.Map(behaviors, topology)
	if err != nil {
		return nil, err
	}
	nodeOf := make(map[[2]int]string, len(behaviors))
	for i, behavior := range behaviors {
		nodeOf[[2]int{behavior.TaskID, behavior.TileID}] = nodes[i]
	}

	expanded := ExpandForImageCount(behaviors, config.ImageNum)

	var tiles []*Tile
	tileIndex := make(map[[2]int]*Tile, len(expanded)) // (taskID, tileID) -> Tile
	for _, behavior := range expanded {
		tile := NewTile(behavior, config.InputBufferSize, config.OutputBufferSize)
		tiles = append(tiles, tile)
		tileIndex[[2]int{behavior.TaskID, behavior.TileID}] = tile
	}

	var comms []*Communication
	for _, behavior := range expanded {
		source := tileIndex[[2]int{behavior.TaskID, behavior.TileID}]
		total := totalOutputChunks(behavior)
		for _, targetTileID := range behavior.TargetTileIDs {
			if targetTileID == PipelineSentinel {
				continue
			}
			targetKey := [2]int{behavior.TaskID, targetTileID}
			target := tileIndex[targetKey]
			if target == nil {
				return nil, misc.NewTraceError(fmt.Sprintf("%d,%d", behavior.TaskID, behavior.TileID),
					"target tile %d has no behavior record in task %d", targetTileID, behavior.TaskID)
			}
			comm := NewCommunication(
				behavior.TaskID, behavior.TileID, behavior.TaskID, targetTileID,
				nodeOf[[2]int{behavior.TaskID, behavior.TileID}], nodeOf[targetKey],
				source.Output.ForTarget(targetTileID),
				target.Input.bySource(behavior.TileID),
				wireNetwork, total, strategy,
			)
			comms = append(comms, comm)
		}
	}

	var dispatch dispatcher
	if config.IsLP() {
		cfg, _ := misc.ParsePathGenerator(config.PathGenerator)
		demands := flowDemandsFromComms(comms)
		lpSched, err := NewLPScheduler(wireNetwork, topology, demands, cfg)
		if err != nil {
			return nil, err
		}
		dispatch = lpSched
	} else {
		order := OrderStatic
		if config.ScheduleStrategy == "dynamic" {
			order = OrderDynamic
		}
		pathMode := PathModeUnbounded
		if config.ScheduleStrategy == "static_path_bounded" || config.ScheduleStrategy == "dynamic_path_bounded" {
			pathMode = PathModeBounded
		}
		dispatch = NewScheduler(SchedulerConfig{Order: order, PathMode: pathMode, Strategy: strategy}, wireNetwork, topology)
	}

	array := NewArray(tiles, comms, wireNetwork, dispatch)
	return &BuildResult{
		Topology:    topology,
		WireNetwork: wireNetwork,
		Tiles:       tiles,
		Comms:       comms,
		Array:       array,
	}, nil
}

func totalOutputChunks(behavior TileBehavior) int {
	total := 0
	for _, dep := range behavior.Dependencies {
		total += len(dep.Output)
	}
	return total
}

func resolveStrategy(config *misc.Config) (PathStrategy, error) {
	if config.IsLP() {
		return StrategyLinearProgram, nil
	}
	switch config.PathGenerator {
	case "naive", "":
		return StrategyNaive, nil
	case "west_first":
		return StrategyWestFirst, nil
	case "north_last":
		return StrategyNorthLast, nil
	case "negative_first":
		return StrategyNegativeFirst, nil
	case "adaptive":
		return StrategyAdaptive, nil
	case "greedy":
		return StrategyGreedy, nil
	case "dijkstra":
		return StrategyDijkstra, nil
	case "astar":
		return StrategyAStar, nil
	default:
		return "", misc.NewConfigError("path_generator %q is not supported", config.PathGenerator)
	}
}

func flowDemandsFromComms(comms []*Communication) []FlowDemand {
	seen := make(map[[2]string]float64)
	for _, c := range comms {
		key := [2]string{c.SourceNode, c.TargetNode}
		seen[key] += float64(c.Total)
	}
	out := make([]FlowDemand, 0, len(seen))
	for k, amount := range seen {
		out = append(out, FlowDemand{Src: k[0], Dst: k[1], Amount: amount})
	}
	return out
}
