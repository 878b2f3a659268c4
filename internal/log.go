package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/nguyengg/unnest/util"
)

// Prefix creates a consistent log prefix for the named archive.
func Prefix(name string) string {
	return fmt.Sprintf(`"%s" - `, util.TruncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

// NewLogger creates a logger with Prefix(name) that writes to os.Stderr, or discards everything if quiet is true.
func NewLogger(name string, quiet bool) *log.Logger {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}

	return log.New(w, Prefix(name), 0)
}
