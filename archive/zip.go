package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nguyengg/unnest/util"
)

// Zip implements Archiver and Writer for ZIP files.
type Zip struct {
}

var _ Archiver = Zip{}
var _ Writer = Zip{}

func (z Zip) Open(_ context.Context, src io.ReadSeeker) (iter.Seq2[File, error], error) {
	ra, ok := src.(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("zip archives must be opened with an io.ReaderAt")
	}

	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end error: %w", err)
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open zip reader error: %w", err)
	}

	return func(yield func(File, error) bool) {
		for _, zf := range zr.File {
			if !yield(&zipFile{
				FileHeader: &zf.FileHeader,
				open:       zf.Open,
			}, nil) {
				return
			}
		}
	}, nil
}

func (z Zip) Create(dst io.Writer, root string) (add AddFunction, closer CloseFunction, err error) {
	root = filepath.ToSlash(root)

	w := zip.NewWriter(dst)
	w.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	add = func(name string, fi os.FileInfo) (io.WriteCloser, error) {
		name = filepath.ToSlash(name)
		if fi.IsDir() || strings.HasSuffix(name, "/") {
			name = path.Join(root, name) + "/"
		} else {
			name = path.Join(root, name)
		}

		fh := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: fi.ModTime(),
		}
		fh.SetMode(fi.Mode())

		fw, err := w.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf(`create zip header for "%s" error: %w`, name, err)
		}

		return &util.WriteNoopCloser{Writer: fw}, nil
	}

	closer = w.Close

	return
}

type zipFile struct {
	*zip.FileHeader
	open func() (io.ReadCloser, error)
}

var _ File = &zipFile{}

func (f *zipFile) Name() string {
	return f.FileHeader.Name
}

func (f *zipFile) Open() (io.ReadCloser, error) {
	return f.open()
}
