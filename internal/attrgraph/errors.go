package attrgraph

import (
	"errors"
	"fmt"
)

// ErrWriteToRule is returned when a caller attempts to write to a node
// that is backed by a rule rather than an input. Rule nodes are computed,
// not assigned.
var ErrWriteToRule = errors.New("attrgraph: write to a rule node")

// invariantViolation marks a condition the core treats as a bug in the
// engine itself rather than a caller mistake: a mismatched evaluation-stack
// pop, an edge whose producer/consumer sides disagree, or recomputation
// entered for an input node. It is always raised via panic, never returned,
// so it cannot be silently swallowed by ordinary error handling.
type invariantViolation struct {
	msg string
}

func (e invariantViolation) Error() string {
	return "attrgraph: invariant violation: " + e.msg
}

func panicInvariant(format string, args ...any) {
	panic(invariantViolation{msg: fmt.Sprintf(format, args...)})
}
