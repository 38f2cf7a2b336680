package usecase

import (
	"strings"

	"runnerrag/internal/domain"
)

// NoContext is the knowledge text used when retrieval found nothing.
const NoContext = "(no context found)"

// FormatKnowledge joins match texts with blank lines for prompt assembly.
func FormatKnowledge(matches []domain.Match) string {
	if len(matches) == 0 {
		return NoContext
	}
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n\n")
}

// Snippets converts matches to the citation form used for JSON output.
func Snippets(matches []domain.Match) []domain.Snippet {
	out := make([]domain.Snippet, len(matches))
	for i, m := range matches {
		out[i] = domain.Snippet{
			Source: m.Metadata.Source,
			Chunk:  m.Metadata.Chunk,
			Score:  m.Score,
			Text:   m.Text,
		}
	}
	return out
}
