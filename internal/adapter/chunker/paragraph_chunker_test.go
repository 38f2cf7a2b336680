package chunker

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"runnerrag/internal/domain"
)

func TestSplitEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\r\n\r\n\n"} {
		chunks, err := Split(text, 1200, 200)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	text := "\r\n  Easy run, 8 km.\r\n\r\nHR stayed under 150.\r\n  "

	chunks, err := Split(text, 1200, 200)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Easy run, 8 km.\nHR stayed under 150." {
		t.Errorf("unexpected chunk text %q", chunks[0])
	}
}

func TestSplitInvalidConfig(t *testing.T) {
	tests := []struct {
		maxChars int
		overlap  int
	}{
		{100, 100},
		{100, 150},
		{0, 0},
		{100, -1},
	}

	for _, tt := range tests {
		_, err := Split("some text", tt.maxChars, tt.overlap)
		if !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Errorf("Split(max=%d, overlap=%d): expected ErrInvalidChunkConfig, got %v", tt.maxChars, tt.overlap, err)
		}
	}

	if _, err := NewParagraphChunker(10, 10); !errors.Is(err, domain.ErrInvalidChunkConfig) {
		t.Errorf("NewParagraphChunker: expected ErrInvalidChunkConfig, got %v", err)
	}
}

func TestSplitPacksParagraphs(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 40)
	text := a + "\n\n" + b + "\n \n" + c

	chunks, err := Split(text, 90, 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != a+"\n"+b {
		t.Errorf("first chunk should pack a and b, got %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("b", 10)+"\n"+c {
		t.Errorf("second chunk should carry b tail, got %q", chunks[1])
	}
}

func TestSplitNonFittingParagraphStandsAlone(t *testing.T) {
	tests := []struct {
		name     string
		sizes    []int
		maxChars int
		overlap  int
		want     []int // pre-overlap chunk lengths
	}{
		{"later paragraph does not merge", []int{600, 700, 300}, 1200, 200, []int{600, 700, 300}},
		{"fitting paragraphs still pack", []int{300, 300, 700}, 1200, 200, []int{601, 700}},
		{"exactly max stays whole", []int{100, 1200, 50}, 1200, 200, []int{100, 1200, 50}},
		{"oversized is windowed", []int{100, 1500, 50}, 1200, 200, []int{100, 1000, 500, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := make([]string, len(tt.sizes))
			for i, n := range tt.sizes {
				parts[i] = strings.Repeat(string(rune('a'+i)), n)
			}
			text := strings.Join(parts, "\n\n")

			base := pack(paragraphs(text), tt.maxChars, tt.maxChars-tt.overlap)
			got := make([]int, len(base))
			for i, b := range base {
				got[i] = utf8.RuneCountInString(b)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("chunk lengths = %v, want %v", got, tt.want)
			}

			chunks, err := Split(text, tt.maxChars, tt.overlap)
			if err != nil {
				t.Fatal(err)
			}
			if len(chunks) != len(tt.want) {
				t.Errorf("Split() returned %d chunks, want %d", len(chunks), len(tt.want))
			}
		})
	}
}

func TestSplitOversizedParagraph(t *testing.T) {
	first := strings.Repeat("x", 50)
	second := make([]byte, 2000)
	for i := range second {
		second[i] = byte('a' + i%26)
	}
	text := first + "\n\n" + string(second)

	chunks, err := Split(text, 1200, 200)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != first {
		t.Errorf("first chunk should be the short paragraph")
	}

	// the previous chunk is shorter than the overlap, so all of it is the prefix
	if want := first + "\n" + string(second[:1000]); chunks[1] != want {
		t.Errorf("second chunk mismatch: got prefix %q", chunks[1][:60])
	}
	if want := string(second[800:1000]) + "\n" + string(second[1000:]); chunks[2] != want {
		t.Errorf("third chunk should start with 200 chars of the previous window")
	}
}

func TestSplitOverlapPrefixProperty(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString(strings.Repeat(string(rune('a'+i%26)), 30+i*17))
		sb.WriteString("\n\n")
	}

	const maxChars, overlap = 300, 60
	chunks, err := Split(sb.String(), maxChars, overlap)
	if err != nil {
		t.Fatal(err)
	}
	base := pack(paragraphs(sb.String()), maxChars, maxChars-overlap)
	if len(chunks) != len(base) {
		t.Fatalf("overlap must not change chunk count: %d vs %d", len(chunks), len(base))
	}

	for i := 1; i < len(chunks); i++ {
		prefix := tail(base[i-1], overlap)
		if !strings.HasPrefix(chunks[i], prefix+"\n") {
			t.Errorf("chunk %d does not start with the tail of chunk %d", i, i-1)
		}
		if chunks[i] != prefix+"\n"+base[i] {
			t.Errorf("chunk %d body changed by overlap injection", i)
		}
	}
}

func TestSplitPreservesContentOrder(t *testing.T) {
	text := "Week 1: base building.\n\n" +
		strings.Repeat("Long tempo notes. ", 120) + "\n\n" +
		"Week 2: hills.\n\nWeek 3: taper."

	const maxChars, overlap = 500, 80
	chunks, err := Split(text, maxChars, overlap)
	if err != nil {
		t.Fatal(err)
	}

	var rebuilt strings.Builder
	var prev string
	for i, ch := range chunks {
		body := ch
		if i > 0 {
			body = strings.TrimPrefix(ch, tail(prev, overlap)+"\n")
		}
		rebuilt.WriteString(body)
		prev = body
	}

	squash := func(s string) string { return strings.Join(strings.Fields(s), "") }
	if squash(rebuilt.String()) != squash(text) {
		t.Error("stripping overlap prefixes did not reconstruct the original text")
	}
}

func TestSplitWindowsFitBudget(t *testing.T) {
	text := strings.Repeat("z", 5000)

	chunks, err := Split(text, 1200, 200)
	if err != nil {
		t.Fatal(err)
	}

	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch); n > 1200+1 {
			t.Errorf("chunk %d has %d chars, over budget", i, n)
		}
	}
	if len(chunks) != 5 {
		t.Errorf("expected 5 windows of 1000, got %d", len(chunks))
	}
}

func TestSplitCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 25)

	chunks, err := Split(text, 10, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks of 8 runes, got %d", len(chunks))
	}
}

func TestParagraphChunkerTagsChunks(t *testing.T) {
	c, err := NewParagraphChunker(60, 10)
	if err != nil {
		t.Fatal(err)
	}

	doc := domain.Document{
		Name: "training.md",
		Text: strings.Repeat("interval ", 20),
	}

	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if ch.Source != "training.md" {
			t.Errorf("chunk %d: expected source training.md, got %s", i, ch.Source)
		}
		if ch.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, ch.Index)
		}
	}
}
