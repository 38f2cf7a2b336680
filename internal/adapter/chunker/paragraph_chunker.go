package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"runnerrag/internal/domain"
)

var (
	lineEndings     = regexp.MustCompile(`\r\n?`)
	blankLineSplits = regexp.MustCompile(`\n\s*\n`)
)

// ParagraphChunker packs paragraphs into chunks of at most maxChars characters
// and prefixes every chunk after the first with the tail of its predecessor.
type ParagraphChunker struct {
	maxChars int
	overlap  int
}

func NewParagraphChunker(maxChars, overlap int) (*ParagraphChunker, error) {
	if err := validate(maxChars, overlap); err != nil {
		return nil, err
	}
	return &ParagraphChunker{
		maxChars: maxChars,
		overlap:  overlap,
	}, nil
}

func (c *ParagraphChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	texts, err := Split(doc.Text, c.maxChars, c.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Text:   text,
			Source: doc.Name,
			Index:  i,
		})
	}
	return chunks, nil
}

// Split chunks text. Lengths are counted in runes.
func Split(text string, maxChars, overlap int) ([]string, error) {
	if err := validate(maxChars, overlap); err != nil {
		return nil, err
	}

	base := pack(paragraphs(text), maxChars, maxChars-overlap)
	if len(base) == 0 {
		return nil, nil
	}
	return withOverlap(base, overlap), nil
}

func validate(maxChars, overlap int) error {
	if maxChars <= 0 || overlap < 0 || maxChars-overlap <= 0 {
		return fmt.Errorf("%w: max_chars=%d overlap=%d", domain.ErrInvalidChunkConfig, maxChars, overlap)
	}
	return nil
}

func paragraphs(text string) []string {
	text = strings.TrimSpace(lineEndings.ReplaceAllString(text, "\n"))
	if text == "" {
		return nil
	}

	var parts []string
	for _, p := range blankLineSplits.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// pack returns the pre-overlap chunks. A paragraph that does not fit the
// buffer becomes its own chunk (or windows, when longer than maxChars) and the
// next paragraph starts an empty buffer.
func pack(parts []string, maxChars, window int) []string {
	var chunks []string
	var buf []rune

	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, string(buf))
			buf = nil
		}
	}

	for _, part := range parts {
		p := []rune(part)

		if len(buf)+1+len(p) <= maxChars {
			if len(buf) > 0 {
				buf = append(buf, '\n')
			}
			buf = append(buf, p...)
			continue
		}

		flush()

		if len(p) > maxChars {
			for start := 0; start < len(p); start += window {
				end := start + window
				if end > len(p) {
					end = len(p)
				}
				chunks = append(chunks, string(p[start:end]))
			}
			continue
		}

		chunks = append(chunks, part)
	}
	flush()

	return chunks
}

func withOverlap(base []string, overlap int) []string {
	out := make([]string, len(base))
	out[0] = base[0]
	for i := 1; i < len(base); i++ {
		if overlap == 0 {
			out[i] = base[i]
			continue
		}
		out[i] = tail(base[i-1], overlap) + "\n" + base[i]
	}
	return out
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
