package domain

// Document is a knowledge-base file read into memory.
type Document struct {
	Name string
	Text string
}

// Chunk is a bounded slice of a document's text.
type Chunk struct {
	Text   string
	Source string
	Index  int
}

// Metadata is the attribution stored alongside every indexed chunk.
type Metadata struct {
	Source string `json:"source"`
	Chunk  int    `json:"chunk"`
}

// IndexedVector is one persisted collection entry.
type IndexedVector struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

// Match is a retrieval hit, most similar first.
type Match struct {
	Text     string
	Metadata Metadata
	Score    float64
}

type Snippet struct {
	Source string  `json:"source"`
	Chunk  int     `json:"chunk"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}
