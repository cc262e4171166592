package session

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// FrameReader reassembles newline-terminated lines from arbitrary byte
// chunks. Bytes after the last newline stay buffered until the next
// feed, so chunking never changes the produced line sequence. Lines
// that are not valid UTF-8 are dropped and counted rather than handed
// to the parser. The buffer is unbounded; a device that streams
// forever without a newline will grow it without limit.
type FrameReader struct {
	buf     []byte
	invalid int
}

// NewFrameReader creates an empty reader.
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed appends a chunk and returns every complete, trimmed, non-empty
// line it finished, plus the number of lines dropped for invalid
// encoding in this call.
func (r *FrameReader) Feed(chunk []byte) (lines []string, dropped int) {
	r.buf = append(r.buf, chunk...)

	for {
		i := bytes.IndexByte(r.buf, '\n')
		if i < 0 {
			return lines, dropped
		}
		raw := r.buf[:i]
		r.buf = r.buf[i+1:]

		if !utf8.Valid(raw) {
			r.invalid++
			dropped++
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line != "" {
			lines = append(lines, line)
		}
	}
}

// InvalidLines reports how many lines were dropped for invalid UTF-8
// since the reader was created.
func (r *FrameReader) InvalidLines() int {
	return r.invalid
}

// Pending reports how many bytes are buffered awaiting a newline.
func (r *FrameReader) Pending() int {
	return len(r.buf)
}
