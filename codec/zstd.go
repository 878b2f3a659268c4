package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Zstd implements Codec for zstd compression algorithm.
type Zstd struct{}

var _ Codec = Zstd{}

func (c Zstd) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader error: %w", err)
	}

	return &zstdDecoder{dec}, nil
}

type zstdDecoder struct {
	*zstd.Decoder
}

// Close adapts zstd.Decoder.Close which doesn't return error.
func (d *zstdDecoder) Close() error {
	d.Decoder.Close()
	return nil
}

func (c Zstd) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	w, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd writer error: %w", err)
	}

	return w, nil
}

func (c Zstd) Ext() string {
	return ".zst"
}

func (c Zstd) ContentType() string {
	return "application/zstd"
}
