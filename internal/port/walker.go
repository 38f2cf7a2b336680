package port

import "runnerrag/internal/domain"

// Collector reads the knowledge directory into documents.
type Collector interface {
	Collect(dir string) ([]domain.Document, error)
}

// DocumentReader extracts plain text from a rich-document file.
type DocumentReader interface {
	ReadText(path string) (string, error)
}
