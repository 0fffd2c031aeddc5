package noc

import (
	"math"
	"sort"

	"noctrace/src/misc"
)

// PriorityOrder names how ready communications are ordered before dispatch
// (§4.6).
type PriorityOrder string

const (
	// OrderStatic dispatches in the communication list's original index
	// order every tick.
	OrderStatic PriorityOrder = "static"
	// OrderDynamic dispatches least-complete communications first, ranked
	// by DoneRate ascending.
	OrderDynamic PriorityOrder = "dynamic"
)

// PathMode names whether a scheduler accepts whatever path the wire
// network computes (dynamic, since occupancy-sensitive strategies
// recompute every call) or enforces a maximum path-length relative to the
// topological baseline (§4.6).
type PathMode string

const (
	PathModeUnbounded PathMode = "dynamic_path"
	PathModeBounded   PathMode = "static_path"
)

// SchedulerConfig selects one cell of the §4.6 priority-order x path-finder
// policy cross-product, plus the distinct LP-backed variant.
type SchedulerConfig struct {
	Order    PriorityOrder
	PathMode PathMode
	Strategy PathStrategy
}

// Scheduler dispatches ready communications every tick according to its
// configured policy (§4.6). The teacher's Scheduler interface
// (src/simulator/chiplet/scheduler.go) is generalized here from a FIFO task
// queue to a ready-set-driven dispatcher, since the domain's dispatch
// decision now depends on buffer/wire state rather than arrival order
// alone.
type Scheduler struct {
	cfg         SchedulerConfig
	wireNetwork *WireNetwork
	topology    *Topology
	baseline    map[[2]string]int
}

// NewScheduler builds a scheduler bound to wireNetwork/topology under cfg.
func NewScheduler(cfg SchedulerConfig, wireNetwork *WireNetwork, topology *Topology) *Scheduler {
	return &Scheduler{
		cfg:         cfg,
		wireNetwork: wireNetwork,
		topology:    topology,
		baseline:    make(map[[2]string]int),
	}
}

// maxPathLen returns the rejection threshold for a (src,dst) pair: the
// larger of 1.8x the topological baseline hop count (floored) and
// baseline+2 (§4.6).
func (s *Scheduler) maxPathLen(src, dst string) (int, error) {
	key := [2]string{src, dst}
	if b, ok := s.baseline[key]; ok {
		return pathLenThreshold(b), nil
	}
	baselinePath, err := s.wireNetwork.adaptivePath(src, dst)
	if err != nil {
		return 0, err
	}
	hops := len(baselinePath) - 1
	s.baseline[key] = hops
	return pathLenThreshold(hops), nil
}

func pathLenThreshold(baseline int) int {
	scaled := int(math.Floor(1.8 * float64(baseline)))
	if alt := baseline + 2; alt > scaled {
		return alt
	}
	return scaled
}

// Schedule orders comms by the configured priority, then dispatches every
// ready one whose candidate path (when PathModeBounded is set) does not
// exceed the topological rejection threshold and is not held by another
// communication, returning the ids started this tick (§4.6). A ready
// communication whose path is busy is skipped until a later tick.
func (s *Scheduler) Schedule(now float64, comms []*Communication) ([]string, error) {
	ordered := s.order(comms)
	var started []string
	for _, c := range ordered {
		if !c.CheckReady() {
			continue
		}
		if s.cfg.PathMode == PathModeBounded {
			path, err := s.wireNetwork.FindDataPath(c.SourceNode, c.TargetNode, s.cfg.Strategy)
			if err != nil {
				return started, err
			}
			threshold, err := s.maxPathLen(c.SourceNode, c.TargetNode)
			if err != nil {
				return started, err
			}
			if len(path)-1 > threshold || s.wireNetwork.PathBusy(path) {
				continue
			}
			if err := c.SetTaskWithPath(now, path); err != nil {
				return started, err
			}
			started = append(started, c.ID())
			continue
		}
		path, err := s.wireNetwork.FindDataPath(c.SourceNode, c.TargetNode, c.Strategy)
		if err != nil {
			return started, err
		}
		if s.wireNetwork.PathBusy(path) {
			continue
		}
		if err := c.SetTaskWithPath(now, path); err != nil {
			return started, err
		}
		started = append(started, c.ID())
	}
	return started, nil
}

func (s *Scheduler) order(comms []*Communication) []*Communication {
	ordered := append([]*Communication(nil), comms...)
	if s.cfg.Order == OrderDynamic {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].DoneRate() < ordered[j].DoneRate()
		})
	}
	return ordered
}

// LPScheduler is the distinct LP-backed scheduling variant: it solves the
// multi-commodity flow once up front for every commodity's total demand,
// installs the decomposed paths on the wire network, and then dispatches
// exactly like a static-order Scheduler with no path-length bound
// (PathModeUnbounded) against the cvxopt strategy (§4.5, §4.6).
type LPScheduler struct {
	*Scheduler
	planner *LPFlowPlanner
}

// NewLPScheduler builds an LP-backed scheduler and pre-solves demands.
func NewLPScheduler(wireNetwork *WireNetwork, topology *Topology, demands []FlowDemand, cfg *misc.LPSolverConfig) (*LPScheduler, error) {
	planner := NewLPFlowPlanner(topology)
	plan, err := planner.Solve(demands, cfg)
	if err != nil {
		return nil, err
	}
	for od, paths := range plan.Paths {
		wireNetwork.SetPlannedPaths(od[0], od[1], paths)
	}
	base := NewScheduler(SchedulerConfig{
		Order:    OrderStatic,
		PathMode: PathModeUnbounded,
		Strategy: StrategyLinearProgram,
	}, wireNetwork, topology)
	return &LPScheduler{Scheduler: base, planner: planner}, nil
}
