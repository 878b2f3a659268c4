package unnest

import (
	"time"
)

// State is the state of the traversal engine.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateScanning
	StateRecursing
	StateDraining
	// StateDone is the terminal state of a run that completed, with or without matches.
	StateDone
	// StateFatalError is the terminal state of a run whose root archive could not be opened.
	StateFatalError
	// StateCancelled is the terminal state of a run that was stopped by context cancellation.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateScanning:
		return "scanning"
	case StateRecursing:
		return "recursing"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateFatalError:
		return "fatal error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// FileMatch is a target file that was successfully written to the output directory.
type FileMatch struct {
	// Path is the path of the extracted file on disk.
	Path string
	// Name is the original name of the entry inside its container.
	Name string
	// Depth is the depth of the container the entry was found in; entries of the root archive have depth 0.
	Depth int
	// Chain is the list of containers leading to the entry, starting with the root archive.
	Chain []string
	// Seq is the sequential number embedded in the output file name.
	Seq int
	// Size is the number of bytes written.
	Size int64
}

// Result is the outcome of Extractor.Extract.
type Result struct {
	// RunID uniquely identifies the run in logs.
	RunID string
	// Success is true unless the root archive could not be opened or the run was cancelled.
	Success bool
	// Cancelled is true if the run was stopped by context cancellation.
	Cancelled bool
	// State is the terminal state: StateDone, StateFatalError, or StateCancelled.
	State State
	// Matches are the extracted files in the order their sequential numbers were assigned.
	Matches []FileMatch
	// Err is the fatal error (an *archive.ArchiveOpenError) or the *CancelledError, nil otherwise.
	Err error
	// Diagnostics are the non-fatal errors encountered during the walk, in order.
	Diagnostics []error
	// DepthReached is the maximum depth of any container that was opened.
	DepthReached int
	// EntriesExamined is the number of regular file entries seen across all containers.
	EntriesExamined int
	// BytesWritten is the number of bytes written to the output directory.
	BytesWritten int64
	// Duration is the wall-clock duration of the run.
	Duration time.Duration
}

// ErrorMessage returns the message of Err, or an empty string if there is none.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}
