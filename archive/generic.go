package archive

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/mholt/archives"
)

// Generic adapts any github.com/mholt/archives extraction format (rar, tar.bz2, tar.lz4, etc.) to Archiver.
type Generic struct {
	archives.Extraction
}

var _ Archiver = Generic{}

func (g Generic) Open(ctx context.Context, src io.ReadSeeker) (iter.Seq2[File, error], error) {
	if g.Extraction == nil {
		return nil, ErrUnsupportedFormat
	}

	return func(yield func(File, error) bool) {
		stopped := false

		err := g.Extract(ctx, src, func(ctx context.Context, info archives.FileInfo) error {
			if !yield(&genericFile{info}, nil) {
				stopped = true
				return errStopIteration
			}

			return nil
		})

		if err != nil && !stopped {
			yield(nil, fmt.Errorf("extract error: %w", err))
		}
	}, nil
}

var errStopIteration = fmt.Errorf("stop iteration")

type genericFile struct {
	info archives.FileInfo
}

var _ File = &genericFile{}

func (f *genericFile) Name() string {
	return f.info.NameInArchive
}

func (f *genericFile) FileInfo() os.FileInfo {
	return f.info.FileInfo
}

func (f *genericFile) Mode() os.FileMode {
	return f.info.Mode()
}

func (f *genericFile) Open() (io.ReadCloser, error) {
	return f.info.Open()
}
