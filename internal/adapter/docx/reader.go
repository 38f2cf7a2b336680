// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoDocumentPart = errors.New("word/document.xml not found")

// Reader implements port.DocumentReader for .docx files.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadText returns the document's paragraphs joined by newlines.
func (r *Reader) ReadText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document part: %w", err)
		}

		return parseDocumentXML(content)
	}

	return "", errNoDocumentPart
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document part: %w", err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range para.Runs {
			for range r.Tabs {
				sb.WriteString("\t")
			}
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
		lines = append(lines, sb.String())
	}

	return strings.Join(lines, "\n"), nil
}
