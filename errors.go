package unnest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLimitExceeded is wrapped by errors caused by MaxEntrySize, MaxTotalSize, or MaxEntries.
	ErrLimitExceeded = errors.New("unnest: limit exceeded")

	// ErrRecursiveArchive is wrapped by errors caused by an archive that contains a copy of one of its ancestors.
	ErrRecursiveArchive = errors.New("unnest: archive contains a copy of itself")
)

// ConfigError is returned by NewConfig when an option is invalid.
type ConfigError struct {
	// Field is the name of the offending ConfigOptions field.
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %v", e.Field, e.Value, e.Err)
}

// EntryExtractionError is a non-fatal error reading a specific archive entry or writing it to disk.
type EntryExtractionError struct {
	// Name is the name of the entry inside its container.
	Name string
	// Chain is the list of containers leading to the entry, starting with the root archive.
	Chain []string
	Err   error
}

func (e *EntryExtractionError) Unwrap() error {
	return e.Err
}

func (e *EntryExtractionError) Error() string {
	return fmt.Sprintf(`extract "%s" from "%s" error: %v`, e.Name, strings.Join(e.Chain, " > "), e.Err)
}

// CancelledError is the Result.Err of a run that was stopped by context cancellation.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("extraction cancelled: %v", e.Err)
}
