package archive

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/bodgit/sevenzip"
)

// SevenZip implements Archiver for 7z files.
//
// 7z archives can only be read.
type SevenZip struct {
}

var _ Archiver = SevenZip{}

func (s SevenZip) Open(_ context.Context, src io.ReadSeeker) (iter.Seq2[File, error], error) {
	ra, ok := src.(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("7z archives must be opened with an io.ReaderAt")
	}

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end error: %w", err)
	}

	zr, err := sevenzip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open 7z reader error: %w", err)
	}

	return func(yield func(File, error) bool) {
		for _, zf := range zr.File {
			if !yield(&sevenZipFile{
				FileHeader: zf.FileHeader,
				open:       zf.Open,
			}, nil) {
				return
			}
		}
	}, nil
}

type sevenZipFile struct {
	sevenzip.FileHeader
	open func() (io.ReadCloser, error)
}

var _ File = &sevenZipFile{}

func (f *sevenZipFile) Name() string {
	return f.FileHeader.Name
}

func (f *sevenZipFile) Open() (io.ReadCloser, error) {
	return f.open()
}
