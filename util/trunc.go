package util

// TruncateRightWithSuffix keeps the first len number of runes of text and only append the suffix if truncation happens.
func TruncateRightWithSuffix(text string, len int, suffix string) string {
	if len <= 0 {
		return suffix
	}

	rs := make([]rune, 0, len)
	for i, r := range []rune(text) {
		if i >= len {
			for _, r := range suffix {
				rs = append(rs, r)
			}

			break
		}

		rs = append(rs, r)
	}

	return string(rs)
}
