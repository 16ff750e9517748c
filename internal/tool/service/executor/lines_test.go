package executor

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func collectLines(t *testing.T, r io.Reader, maxLen int) ([]string, error) {
	t.Helper()
	var lines []string
	err := ReadLines(r, maxLen, func(line string) {
		lines = append(lines, line)
	})
	return lines, err
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   []string
	}{
		{"LF lines", "a\nb\nc\n", 0, []string{"a", "b", "c"}},
		{"CRLF lines", "a\r\nb\r\n", 0, []string{"a", "b"}},
		{"no trailing newline", "a\nb", 0, []string{"a", "b"}},
		{"empty lines kept", "a\n\n\nb\n", 0, []string{"a", "", "", "b"}},
		{"empty input", "", 0, nil},
		{"truncated", "abcdefgh\nxy\n", 4, []string{"abcd" + TruncationMarker, "xy"}},
		{"exact length", "abcd\n", 4, []string{"abcd"}},
		{"exact length CRLF", "abcd\r\n", 4, []string{"abcd"}},
		{"one over", "abcde\n", 4, []string{"abcd" + TruncationMarker}},
		{"truncated without newline", "abcdefgh", 4, []string{"abcd" + TruncationMarker}},
		{"cut on character boundary", "aé€\n", 4, []string{"aé" + TruncationMarker}},
		{"invalid UTF-8 replaced", "ok\xff\n", 0, []string{"ok\uFFFD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := collectLines(t, strings.NewReader(tt.input), tt.maxLen)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestReadLines_LongLineLargerThanReaderBuffer(t *testing.T) {
	long := strings.Repeat("x", 10000)
	lines, err := collectLines(t, strings.NewReader(long+"\nnext\n"), 0)
	assert.NoError(t, err)
	assert.Equal(t, []string{long, "next"}, lines)

	lines, err = collectLines(t, strings.NewReader(long+"\nnext\n"), 100)
	assert.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("x", 100) + TruncationMarker, "next"}, lines)
}

func TestReadLines_SmallReads(t *testing.T) {
	lines, err := collectLines(t, iotest.OneByteReader(strings.NewReader("ab\r\ncd\n")), 0)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ab", "cd"}, lines)
}

func TestReadLines_ReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(boom))

	lines, err := collectLines(t, r, 0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"partial"}, lines)
}
