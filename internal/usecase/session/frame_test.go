package session

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func TestFrameReaderBasicLines(t *testing.T) {
	r := NewFrameReader()

	lines, dropped := r.Feed([]byte("CTRL+C\nD250\n"))
	if dropped != 0 {
		t.Fatalf("dropped = %d", dropped)
	}
	if !reflect.DeepEqual(lines, []string{"CTRL+C", "D250"}) {
		t.Fatalf("lines = %v", lines)
	}
}

func TestFrameReaderPartialLineStaysBuffered(t *testing.T) {
	r := NewFrameReader()

	lines, _ := r.Feed([]byte("CTRL"))
	if len(lines) != 0 {
		t.Fatalf("premature lines: %v", lines)
	}
	if r.Pending() != 4 {
		t.Fatalf("pending = %d", r.Pending())
	}

	lines, _ = r.Feed([]byte("+C\nWIN"))
	if !reflect.DeepEqual(lines, []string{"CTRL+C"}) {
		t.Fatalf("lines = %v", lines)
	}
	if r.Pending() != 3 {
		t.Fatalf("pending = %d", r.Pending())
	}
}

func TestFrameReaderTrimsAndSkipsEmpty(t *testing.T) {
	r := NewFrameReader()

	lines, _ := r.Feed([]byte("  CTRL+C  \r\n\n   \nD100\n"))
	if !reflect.DeepEqual(lines, []string{"CTRL+C", "D100"}) {
		t.Fatalf("lines = %v", lines)
	}
}

func TestFrameReaderDropsInvalidUTF8(t *testing.T) {
	r := NewFrameReader()

	lines, dropped := r.Feed([]byte("ok\n\xff\xfe\xfd\nalso ok\n"))
	if dropped != 1 || r.InvalidLines() != 1 {
		t.Fatalf("dropped = %d, total = %d", dropped, r.InvalidLines())
	}
	if !reflect.DeepEqual(lines, []string{"ok", "also ok"}) {
		t.Fatalf("lines = %v", lines)
	}
}

// Chunk invariance: any split of a byte stream yields the same line
// sequence as feeding it whole.
func TestFrameReaderChunkInvariance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := rapid.SliceOfN(rapid.Byte(), 0, 512).Draw(t, "stream")

		whole := NewFrameReader()
		wantLines, wantDropped := whole.Feed(stream)

		chunked := NewFrameReader()
		var gotLines []string
		gotDropped := 0
		for i := 0; i < len(stream); {
			n := rapid.IntRange(1, len(stream)-i).Draw(t, "chunk")
			lines, dropped := chunked.Feed(stream[i : i+n])
			gotLines = append(gotLines, lines...)
			gotDropped += dropped
			i += n
		}

		if !reflect.DeepEqual(gotLines, wantLines) {
			t.Fatalf("chunked lines %v != whole %v", gotLines, wantLines)
		}
		if gotDropped != wantDropped {
			t.Fatalf("chunked dropped %d != whole %d", gotDropped, wantDropped)
		}
		if chunked.Pending() != whole.Pending() {
			t.Fatalf("pending mismatch: %d != %d", chunked.Pending(), whole.Pending())
		}
	})
}
