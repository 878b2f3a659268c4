package archive

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no registered format recognises an archive.
var ErrUnsupportedFormat = errors.New("archive: unsupported format")

// ArchiveOpenError is returned when a container cannot be opened or its entries cannot be enumerated.
type ArchiveOpenError struct {
	// Format is the name of the format that was attempted, empty if none was detected.
	Format string
	// Name is the name of the container, either a path on disk or the entry name inside its parent.
	Name string
	Err  error
}

func (e *ArchiveOpenError) Unwrap() error {
	return e.Err
}

func (e *ArchiveOpenError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf(`open archive "%s" error: %v`, e.Name, e.Err)
	}

	return fmt.Sprintf(`open %s archive "%s" error: %v`, e.Format, e.Name, e.Err)
}
