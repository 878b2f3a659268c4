package util

import (
	"path"
	"strings"
)

// BaseName returns the last element of an in-archive entry name.
//
// Archive entry names always use forward slashes, but ZIP files created on Windows sometimes use backslashes, so both
// are treated as separators here regardless of the host OS. Trailing separators are ignored so "dir/" returns "dir".
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimRight(name, "/")
	if name == "" {
		return ""
	}

	return path.Base(name)
}

// SplitExt splits a base name into stem and extension at the last dot.
//
// Unlike StemAndExt, only the final extension is considered, so "foo.tar.gz" returns "foo.tar" and ".gz". A name with
// no dot, or whose only dot is the leading one (".bashrc"), returns an empty extension.
func SplitExt(base string) (stem, ext string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}

	return base[:i], base[i:]
}

// StemAndExt is a variant of SplitExt that allows extended extension to be detected while also returning the stem.
//
// For example, `SplitExt("file.tar.gz")` would return ".gz", but `StemAndExt("file.tar.gz")` would return ".tar.gz"
// for the extension, "file" for the stem. Only extensions of 6 characters or less are collected, so the extension
// of "report.2024.txt" is ".txt" while that of "test.mhtml.s3" is ".mhtml.s3".
func StemAndExt(base string) (stem, ext string) {
	n := len(base) - 1
	for i, j := n, max(0, n-6); i >= j; i-- {
		switch base[i] {
		case '\\', '/':
			stem = base[i+1:]
			return
		case '.':
			if i == 0 {
				stem = base
				return
			}

			ext = base[i:] + ext
			base = base[:i]
			n = len(base)
			i, j = n, max(0, n-6)
			continue
		}
	}

	stem = base
	return
}
