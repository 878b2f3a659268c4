package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nguyengg/unnest/codec"
	"github.com/nguyengg/unnest/util"
)

// Tar implements Archiver and Writer for tar archives.
type Tar struct {
	// Codec if given will be used to encode/decode contents with Open or Create.
	codec.Codec
}

var _ Archiver = Tar{}
var _ Writer = Tar{}

func (t Tar) Open(_ context.Context, src io.ReadSeeker) (iter.Seq2[File, error], error) {
	var (
		dec io.ReadCloser = io.NopCloser(src)
		err error
	)

	if t.Codec != nil {
		if dec, err = t.Codec.NewDecoder(src); err != nil {
			return nil, err
		}
	}

	return func(yield func(File, error) bool) {
		defer dec.Close()

		tr := tar.NewReader(dec)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read next tar entry error: %w", err))
				return
			}

			if !yield(&tarFile{Reader: tr, Header: hdr}, nil) {
				return
			}
		}
	}, nil
}

func (t Tar) Create(dst io.Writer, root string) (add AddFunction, closer CloseFunction, err error) {
	root = filepath.ToSlash(root)

	var enc io.WriteCloser = &util.WriteNoopCloser{Writer: dst}
	if t.Codec != nil {
		if enc, err = t.Codec.NewEncoder(dst); err != nil {
			return
		}
	}

	w := tar.NewWriter(enc)

	add = func(name string, fi os.FileInfo) (io.WriteCloser, error) {
		name = filepath.ToSlash(name)
		isDir := fi.IsDir() || strings.HasSuffix(name, "/")

		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return nil, fmt.Errorf(`create tar header for "%s" error: %w`, name, err)
		}

		if isDir {
			hdr.Name = path.Join(root, name) + "/"
		} else {
			hdr.Name = path.Join(root, name)
		}

		if err = w.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf(`write tar header for "%s" error: %w`, name, err)
		}

		return &util.WriteNoopCloser{Writer: w}, nil
	}

	closer = util.ChainCloser(w.Close, enc.Close)

	return
}

type tarFile struct {
	*tar.Reader
	*tar.Header
}

var _ File = &tarFile{}

func (f *tarFile) Name() string {
	return f.Header.Name
}

func (f *tarFile) Mode() os.FileMode {
	return f.Header.FileInfo().Mode()
}

func (f *tarFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(f.Reader), nil
}
