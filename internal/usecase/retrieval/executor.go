package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/candidate"
	"github.com/TheVirusNVGM/modcurator/internal/domain/search/query"
)

// DefaultKeywordFetchMultiplier widens the keyword row fetch so BM25 has more to rank.
const DefaultKeywordFetchMultiplier = 3

// minKeywordLength is the shortest token kept by keyword tokenization (exclusive).
const minKeywordLength = 2

var errUnsupportedQueryType = errors.New("unsupported query type")

// executor runs a single query against the catalog.
type executor struct {
	catalog         Catalog
	embed           Embedder
	bm25            BM25
	fetchMultiplier int
}

// execute returns the weighted hits of q. Every hit is tagged with the query type.
func (e *executor) execute(ctx context.Context, q *query.Query) ([]candidate.Candidate, error) {
	var (
		hits []candidate.Candidate
		err  error
	)
	switch q.Type() {
	case query.Semantic:
		hits, err = e.semantic(ctx, q)
	case query.Keyword:
		hits, err = e.keyword(ctx, q)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedQueryType, q.Type())
	}
	if err != nil {
		return nil, err
	}

	for i := range hits {
		hits[i].SearchScore *= q.Weight()
		hits[i].SearchTypes = []query.Type{q.Type()}
	}
	return hits, nil
}

// semantic embeds the text and converts KNN distances into 1/(1+d).
func (e *executor) semantic(ctx context.Context, q *query.Query) ([]candidate.Candidate, error) {
	emb, err := e.embed.Embed(ctx, q.Text())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	nn, err := e.catalog.SearchByVector(ctx, emb.Embedding, q.Limit())
	if err != nil {
		return nil, fmt.Errorf("search by vector: %w", err)
	}

	hits := make([]candidate.Candidate, 0, len(nn))
	for i := range nn {
		hits = append(hits, candidate.Candidate{
			Mod:         nn[i].Mod,
			SearchScore: DistanceScore(nn[i].Distance),
		})
	}
	return hits, nil
}

// keyword fetches rows matching any token, ranks them with BM25 and keeps the top limit.
func (e *executor) keyword(ctx context.Context, q *query.Query) ([]candidate.Candidate, error) {
	terms := Keywords(q.Text())
	if len(terms) == 0 {
		return nil, nil
	}

	mult := e.fetchMultiplier
	if mult <= 0 {
		mult = DefaultKeywordFetchMultiplier
	}
	rows, err := e.catalog.SearchByText(ctx, terms, q.Limit()*mult)
	if err != nil {
		return nil, fmt.Errorf("search by text: %w", err)
	}

	scores := e.bm25.Score(rows, terms)
	hits := make([]candidate.Candidate, len(rows))
	for i := range rows {
		hits[i] = candidate.Candidate{Mod: rows[i], SearchScore: scores[i]}
		if exactMatch(&rows[i], terms) {
			hits[i].SearchScore *= ExactMatchBoost
			hits[i].ExactMatch = true
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].SearchScore > hits[j].SearchScore
	})
	if len(hits) > q.Limit() {
		hits = hits[:q.Limit()]
	}
	return hits, nil
}

// Keywords splits text on whitespace, lower-cases it, and drops tokens of
// two characters or fewer.
func Keywords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minKeywordLength {
			out = append(out, f)
		}
	}
	return out
}

// DistanceScore maps a non-negative distance into (0, 1], decreasing in d.
func DistanceScore(d float64) float64 {
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}

// modKey is the fusion grouping key.
func modKey(m *mod.Mod) mod.ID { return m.ID }
