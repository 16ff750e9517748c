package executor

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to output lines cut at the length limit.
const TruncationMarker = "...[truncated]"

// ReadLines reads r until EOF and calls emit once per line, in order, as soon
// as each line is complete. Line terminators (\n or \r\n) are stripped and a
// final line without a terminator is still emitted. Lines longer than maxLen
// bytes are cut on a character boundary and suffixed with TruncationMarker;
// the excess is discarded without being buffered. maxLen <= 0 disables the
// limit. Invalid UTF-8 is replaced with U+FFFD.
//
// The returned error is nil at EOF.
func ReadLines(r io.Reader, maxLen int, emit func(line string)) error {
	br := bufio.NewReader(r)
	lr := &lineBuffer{maxLen: maxLen}

	for {
		chunk, err := br.ReadSlice('\n')
		if n := len(chunk); n > 0 && chunk[n-1] == '\n' {
			lr.write(chunk[:n-1])
			emit(lr.take())
		} else {
			lr.write(chunk)
		}

		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !lr.empty() {
				emit(lr.take())
			}
			return nil
		default:
			if !lr.empty() {
				emit(lr.take())
			}
			return err
		}
	}
}

// lineBuffer accumulates one line, holding at most maxLen+1 bytes so that a
// trailing \r can be told apart from real overflow.
type lineBuffer struct {
	maxLen   int
	buf      bytes.Buffer
	overflow bool
}

func (b *lineBuffer) write(p []byte) {
	if b.maxLen > 0 {
		room := b.maxLen + 1 - b.buf.Len()
		if len(p) > room {
			p = p[:room]
			b.overflow = true
		}
	}
	b.buf.Write(p)
}

func (b *lineBuffer) empty() bool {
	return b.buf.Len() == 0 && !b.overflow
}

func (b *lineBuffer) take() string {
	line := b.buf.Bytes()
	if !b.overflow {
		line = bytes.TrimSuffix(line, []byte{'\r'})
	}

	truncated := b.overflow || (b.maxLen > 0 && len(line) > b.maxLen)
	if truncated {
		cut := min(b.maxLen, len(line))
		for cut > 0 && cut < len(line) && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}

	text := strings.ToValidUTF8(string(line), "\uFFFD")
	if truncated {
		text += TruncationMarker
	}

	b.buf.Reset()
	b.overflow = false
	return text
}
