package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Collection string
	Vector     []float32
	K          int
}

// TextQuery is the input for substring text search. A document matches when
// any term occurs, case-insensitively, in any of the fields.
type TextQuery struct {
	Collection string
	Terms      []string
	Fields     []string
	Limit      int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	ID string
	// Score is the raw distance for KNN hits and zero for text hits.
	Score    float64
	Document []byte
}
