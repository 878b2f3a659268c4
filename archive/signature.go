package archive

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/nguyengg/unnest/codec"
)

const tarBlockSize = 512

func hasPrefix(magic []byte) func([]byte) bool {
	return func(head []byte) bool {
		return bytes.HasPrefix(head, magic)
	}
}

// isZip matches local file header, empty archive, and spanned archive signatures.
func isZip(head []byte) bool {
	if len(head) < 4 || head[0] != 'P' || head[1] != 'K' {
		return false
	}

	switch {
	case head[2] == 0x03 && head[3] == 0x04,
		head[2] == 0x05 && head[3] == 0x06,
		head[2] == 0x07 && head[3] == 0x08:
		return true
	default:
		return false
	}
}

// isTar matches POSIX/GNU tar headers by their "ustar" magic, or pre-POSIX headers by their checksum.
func isTar(head []byte) bool {
	if len(head) < tarBlockSize {
		return false
	}

	if bytes.Equal(head[257:262], []byte("ustar")) {
		return true
	}

	return validTarChecksum(head[:tarBlockSize])
}

func validTarChecksum(block []byte) bool {
	field := strings.TrimRight(strings.TrimSpace(string(block[148:156])), "\x00")
	if field == "" {
		return false
	}

	expected, err := strconv.ParseInt(strings.TrimSpace(field), 8, 64)
	if err != nil {
		return false
	}

	var sum int64
	for i, b := range block {
		if 148 <= i && i < 156 {
			b = ' '
		}
		sum += int64(b)
	}

	// an all-zero block sums to 256 because of the checksum field; that's end-of-archive, not a header.
	return sum == expected && sum != 8*' '
}

// compressedTar matches streams that start with the codec's magic and decompress into a tar header.
//
// Since head is truncated, the decoder will usually fail with an unexpected EOF; whatever was decoded up to that
// point is enough to look for a tar header.
func compressedTar(c codec.Codec, magic []byte) func([]byte) bool {
	return func(head []byte) bool {
		if !bytes.HasPrefix(head, magic) {
			return false
		}

		dec, err := c.NewDecoder(bytes.NewReader(head))
		if err != nil {
			return false
		}
		defer dec.Close()

		block := make([]byte, tarBlockSize)
		n, _ := io.ReadFull(dec, block)
		return isTar(block[:n])
	}
}
