package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// MkExclDir creates a new child directory that did not exist prior to this invocation.
//
// Stem is the desired name of the directory. The actual directory that is created might have numeric suffixes such as
// stem-1, stem-2, etc. The return value "name" is the actual path to the newly created directory.
//
// This method gives you a more predictable name over os.MkdirTemp at the cost of performance and concurrency.
func MkExclDir(parent, stem string, perm os.FileMode) (name string, err error) {
	if err = os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf(`create parent directory "%s" error: %w`, parent, err)
	}

	name = filepath.Join(parent, stem)
	for i := 0; ; {
		switch err = os.Mkdir(name, perm); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = filepath.Join(parent, stem+"-"+strconv.Itoa(i))
		default:
			return "", fmt.Errorf("create directory error: %w", err)
		}
	}
}
