// Package codec provides the stream compression layers that sit underneath tarballs.
package codec

import (
	"io"
)

// Codec has methods to create compressor/encoder and decompressor/decoder.
type Codec interface {
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	//
	// Caller must close the returned io.ReadCloser; doing so does not close src.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder to compress contents to the given io.Writer.
	//
	// Caller must close the returned io.WriteCloser to flush; doing so does not close dst.
	NewEncoder(dst io.Writer) (io.WriteCloser, error)
	// Ext returns the extension of files compressed with this codec, such as ".gz".
	Ext() string
	// ContentType returns the content type of files compressed with this codec.
	ContentType() string
}

// FromName returns a Codec from the given algorithm name.
func FromName(name string) (Codec, bool) {
	switch name {
	case "gzip", "gz":
		return Gzip{}, true
	case "xz":
		return Xz{}, true
	case "zstd", "zst":
		return Zstd{}, true
	default:
		return nil, false
	}
}
