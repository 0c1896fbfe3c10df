package components

import (
	"fmt"

	nkerr "nodekit/internal/errors"
)

// Stage names one step of component assembly.
type Stage int

const (
	StagePool Stage = iota + 1
	StageNetwork
	StagePayload
)

func (s Stage) String() string {
	switch s {
	case StagePool:
		return "pool"
	case StageNetwork:
		return "network"
	case StagePayload:
		return "payload"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ErrConsumed is returned when a finished builder is run a second time.
var ErrConsumed = nkerr.New("components: builder already consumed")

// AssemblyError reports the stage that failed and why.
type AssemblyError struct {
	Stage Stage
	Err   error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("build %s: %v", e.Stage, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var ae *AssemblyError
	if nkerr.As(err, &ae) {
		return ae.Stage, true
	}
	return 0, false
}
