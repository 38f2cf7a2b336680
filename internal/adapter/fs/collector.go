package fs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"runnerrag/internal/domain"
	"runnerrag/internal/port"
)

// Collector reads the direct children of a knowledge directory.
type Collector struct {
	textPatterns []string
	richPatterns []string
	reader       port.DocumentReader
}

// NewCollector creates a collector. A nil reader skips rich documents.
func NewCollector(textPatterns, richPatterns []string, reader port.DocumentReader) *Collector {
	return &Collector{
		textPatterns: lower(textPatterns),
		richPatterns: lower(richPatterns),
		reader:       reader,
	}
}

// Collect returns one document per supported file, ordered by file name.
func (c *Collector) Collect(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("knowledge directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to read knowledge directory: %w", err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		// Stat follows symlinks.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		switch {
		case c.IsText(name):
			text, err := ReadText(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}
			docs = append(docs, domain.Document{Name: name, Text: text})

		case c.IsRich(name):
			text := c.readRich(path)
			if strings.TrimSpace(text) == "" {
				continue
			}
			docs = append(docs, domain.Document{Name: name, Text: text})

		default:
			slog.Debug("skipping unsupported file", "file", name)
		}
	}

	return docs, nil
}

// IsText reports whether name matches a plain text pattern.
func (c *Collector) IsText(name string) bool {
	return matchAny(c.textPatterns, name)
}

// IsRich reports whether name matches a rich document pattern.
func (c *Collector) IsRich(name string) bool {
	return matchAny(c.richPatterns, name)
}

// Supported reports whether name would be collected.
func (c *Collector) Supported(name string) bool {
	return c.IsText(name) || c.IsRich(name)
}

func (c *Collector) readRich(path string) string {
	if c.reader == nil {
		slog.Debug("no document reader configured", "file", filepath.Base(path))
		return ""
	}
	text, err := c.reader.ReadText(path)
	if err != nil {
		slog.Debug("document extraction failed, treating as empty", "file", filepath.Base(path), "error", err)
		return ""
	}
	return text
}

func matchAny(patterns []string, name string) bool {
	name = strings.ToLower(name)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func lower(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}

// ReadText reads a file as UTF-8. Invalid byte sequences become U+FFFD and a
// leading byte order mark is dropped.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
