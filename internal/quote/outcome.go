package quote

import (
	"fmt"

	"quoteScope/internal/model"
)

// State is the lifecycle of one quote request.
type State int

const (
	Idle State = iota
	Fetching
	Success
	Empty
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PathFailure records a candidate that could not be quoted.
type PathFailure struct {
	Path model.QuotePath
	Err  error
}

// Outcome is the result of a quote request. Quotation is set only on
// Success; Reason explains Empty and Failed.
type Outcome struct {
	State     State
	Quotation model.Quotation
	Reason    error
	Failures  []PathFailure
}

func emptyOutcome(reason error, failures []PathFailure) Outcome {
	return Outcome{State: Empty, Reason: reason, Failures: failures}
}

func failedOutcome(reason error) Outcome {
	return Outcome{State: Failed, Reason: reason}
}
