package unnest

import (
	"strconv"

	"github.com/nguyengg/unnest/util"
)

// OutputName returns the file name that the n-th match with the given base name is written as.
//
// The format is `{prefix}{stem}_sn{n}{ext}` where ext is the last extension of base, so "foo.txt" becomes
// "foo_sn1.txt" and "data.tar.gz" becomes "data.tar_sn1.gz".
func OutputName(prefix, base string, n int) string {
	stem, ext := util.SplitExt(base)
	return prefix + stem + "_sn" + strconv.Itoa(n) + ext
}
