package misc

import "fmt"

// ErrKind classifies a simulator error into one of the taxonomy buckets the
// simulator distinguishes. The kind, not the message, is what callers should
// branch on.
type ErrKind int

const (
	// ErrKindConfig covers unsupported strategy/path-generator names, grid
	// dimensions <= 0, and buffer/bandwidth capacities <= 0. Raised at
	// construction time.
	ErrKindConfig ErrKind = iota
	// ErrKindTrace covers a behavior trace referencing a non-existent target
	// tile, drop sets that are not a structural subset of wait sets, and
	// non-positive latencies.
	ErrKindTrace
	// ErrKindInvariant covers deadlock detection, double-busy wires,
	// double-start communications, and check_finish failures.
	ErrKindInvariant
	// ErrKindLPInfeasible covers an unsolvable or non-decomposable
	// multi-commodity flow formulation.
	ErrKindLPInfeasible
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfig:
		return "config"
	case ErrKindTrace:
		return "trace"
	case ErrKindInvariant:
		return "invariant"
	case ErrKindLPInfeasible:
		return "lp_infeasible"
	default:
		return "unknown"
	}
}

// SimError is the concrete error type returned by every fatal condition in
// the simulator. It carries the offending id triple (tile, communication,
// wire) where relevant so a caller can render a diagnostic without string
// parsing.
type SimError struct {
	Kind    ErrKind
	Tile    string
	Comm    string
	Wire    string
	Message string
	cause   error
}

func (e *SimError) Error() string {
	ids := ""
	if e.Tile != "" {
		ids += fmt.Sprintf(" tile=%s", e.Tile)
	}
	if e.Comm != "" {
		ids += fmt.Sprintf(" comm=%s", e.Comm)
	}
	if e.Wire != "" {
		ids += fmt.Sprintf(" wire=%s", e.Wire)
	}
	return fmt.Sprintf("%s:%s%s", e.Kind, e.Message, ids)
}

func (e *SimError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *SimError with the same Kind, matching the
// errors.Is contract so callers can write
// errors.Is(err, misc.KindSentinel(misc.ErrKindTrace)) style checks via the
// helper kind sentinels below.
func (e *SimError) Is(target error) bool {
	other, ok := target.(*SimError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && other.Message == "" && other.Tile == "" &&
		other.Comm == "" && other.Wire == ""
}

// NewConfigError builds an ErrKindConfig SimError.
func NewConfigError(format string, args ...interface{}) *SimError {
	return &SimError{Kind: ErrKindConfig, Message: fmt.Sprintf(format, args...)}
}

// NewTraceError builds an ErrKindTrace SimError scoped to a tile.
func NewTraceError(tile string, format string, args ...interface{}) *SimError {
	return &SimError{Kind: ErrKindTrace, Tile: tile, Message: fmt.Sprintf(format, args...)}
}

// NewInvariantError builds an ErrKindInvariant SimError, optionally scoped to
// a tile, communication, and/or wire id.
func NewInvariantError(tile, comm, wire string, format string, args ...interface{}) *SimError {
	return &SimError{
		Kind:    ErrKindInvariant,
		Tile:    tile,
		Comm:    comm,
		Wire:    wire,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewLPInfeasibleError builds an ErrKindLPInfeasible SimError.
func NewLPInfeasibleError(format string, args ...interface{}) *SimError {
	return &SimError{Kind: ErrKindLPInfeasible, Message: fmt.Sprintf(format, args...)}
}

// KindSentinel returns a bare SimError of the given kind suitable as the
// target of errors.Is(err, misc.KindSentinel(misc.ErrKindConfig)).
func KindSentinel(kind ErrKind) *SimError {
	return &SimError{Kind: kind}
}
