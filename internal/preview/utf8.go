package preview

import "unicode/utf8"

// completeLength returns the length of the longest prefix of data that
// does not end inside a multi-byte UTF-8 sequence. Invalid bytes count
// as complete so corrupted input is never held back.
func completeLength(data []byte) int {
	n := len(data)
	// a sequence is at most utf8.UTFMax bytes, so look back no further
	for i := n - 1; i >= 0 && i >= n-utf8.UTFMax; i-- {
		if !utf8.RuneStart(data[i]) {
			continue
		}
		if utf8.FullRune(data[i:]) {
			return n
		}
		return i
	}
	return n
}

// clip decodes data as text and keeps at most maxChars characters. It
// reports whether anything was cut. A trailing partial sequence, as
// left by a server that truncated the body, is dropped.
func clip(data []byte, maxChars int) (string, bool) {
	data = data[:completeLength(data)]
	if maxChars <= 0 {
		return string(data), false
	}
	count := 0
	for i := range string(data) {
		if count == maxChars {
			return string(data[:i]), true
		}
		count++
	}
	return string(data), false
}
