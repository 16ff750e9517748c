package content

import (
	"strings"
	"unicode/utf8"
)

// DecodeText returns data as a string when it is valid UTF-8.
// The second result is false for any other encoding; callers treat such
// content as unsearchable rather than guessing at a charset.
func DecodeText(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// RuneOffset converts a byte offset within line to a character offset.
func RuneOffset(line string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	return utf8.RuneCountInString(line[:byteOffset])
}

// SplitLines breaks content at \n and \r\n. Terminators are dropped and a
// trailing terminator does not yield an empty final line. A lone \r is kept.
func SplitLines(content string) []string {
	var lines []string
	for content != "" {
		line, rest, found := strings.Cut(content, "\n")
		if !found {
			lines = append(lines, line)
			break
		}
		lines = append(lines, strings.TrimSuffix(line, "\r"))
		content = rest
	}
	return lines
}
