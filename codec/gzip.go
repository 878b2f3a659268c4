package codec

import (
	"compress/gzip"
	"fmt"
	"io"
)

// Gzip implements Codec for gzip compression algorithm.
type Gzip struct {
}

var _ Codec = Gzip{}

func (c Gzip) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader error: %w", err)
	}

	// concatenated gzip members are not tarballs we can make sense of.
	r.Multistream(false)
	return r, nil
}

func (c Gzip) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	w, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer error: %w", err)
	}

	return w, nil
}

func (c Gzip) Ext() string {
	return ".gz"
}

func (c Gzip) ContentType() string {
	return "application/gzip"
}
