// Package query models one weighted retrieval query.
package query

import "fmt"

// Type is the retrieval strategy of a query.
type Type string

// Query types.
const (
	Semantic Type = "semantic"
	Keyword  Type = "keyword"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return t == Semantic || t == Keyword
}

// Query parameter limits.
const (
	MaxTextLength = 4096
	DefaultLimit  = 100
	MaxLimit      = 1000
	DefaultWeight = 1.0
)

// Query is a validated retrieval query. The type is not validated here: an
// unknown type is reported and skipped by the executor rather than failing the
// whole request.
type Query struct {
	queryType Type
	text      string
	weight    float64
	limit     int
}

// New validates and normalizes query parameters. A non-positive limit falls
// back to DefaultLimit.
func New(t Type, text string, weight float64, limit int) (Query, error) {
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d chars)", MaxTextLength)
	}
	if weight < 0 {
		return Query{}, fmt.Errorf("query weight must be >= 0, got %g", weight)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{queryType: t, text: text, weight: weight, limit: limit}, nil
}

// Type returns the retrieval strategy.
func (q *Query) Type() Type { return q.queryType }

// Text returns the query text.
func (q *Query) Text() string { return q.text }

// Weight returns the multiplier applied to every hit score.
func (q *Query) Weight() float64 { return q.weight }

// Limit returns the maximum number of hits.
func (q *Query) Limit() int { return q.limit }
