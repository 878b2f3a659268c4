// Package archive identifies archive containers and exposes their entries through a uniform iterator.
//
// Supported out of the box are ZIP, tar, and tarballs compressed with gzip, xz, or zstd, plus 7z. Anything else that
// github.com/mholt/archives can identify is handled by the Generic fallback. Additional formats can be added to a
// Registry without changing its callers.
package archive

import (
	"context"
	"io"
	"iter"
	"os"
)

// Archiver reads archives such as tar, zip, and 7z files.
//
// All archiver implementations are not thread-safe by default.
type Archiver interface {
	// Open produces an iterator returning the files from the archive opened by the given io.ReadSeeker.
	//
	// The src io.ReadSeeker must be positioned at the start of the archive. Some formats (ZIP and 7z) additionally
	// require src to implement io.ReaderAt. The returned iterator must be ranged over exactly once; any decoder
	// created by Open is released when iteration stops, whether that's because the archive is exhausted, an error is
	// yielded, or the caller breaks early.
	Open(ctx context.Context, src io.ReadSeeker) (iter.Seq2[File, error], error)
}

// Writer can create archives. Not all formats can be written.
type Writer interface {
	// Create returns methods to write files to the archive being created by writing to the given io.Writer.
	//
	// If a root directory is given, it will become the root directory for all files added to the archive.
	//
	// The add function creates a new file in the archive with the given metadata and return the io.WriteCloser to
	// write the actual contents of the file. Calling add again implicitly closes out the previous file; not all
	// archive libraries support io.Close on writing individual files but add still returns io.WriteCloser just in
	// case.
	//
	// The close function should be called once all files have been added. After close is called, subsequent calls
	// to add and close will have undefined (and most likely wrong) behaviour.
	Create(dst io.Writer, root string) (add AddFunction, close CloseFunction, err error)
}

// AddFunction creates a new file in the archive.
type AddFunction func(path string, fi os.FileInfo) (io.WriteCloser, error)

// CloseFunction closes the writer.
type CloseFunction func() error

// File represents a file in an archive.
//
// The interface intentionally matches that of zip.File for simplicity.
type File interface {
	// Name returns the full name of the file in the archive.
	Name() string
	// FileInfo returns description about the file.
	FileInfo() os.FileInfo
	// Mode returns the file's mode.
	Mode() os.FileMode
	// Open opens the file for reading.
	//
	// For streaming formats such as tar, the returned io.ReadCloser is only valid until the iterator advances.
	Open() (io.ReadCloser, error)
}
