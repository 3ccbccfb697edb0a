package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

// SearchKNN scans every embedded document of the collection and returns the k
// nearest by cosine distance (1 - cosine similarity). Rows whose embedding
// dimension differs from the query vector are skipped.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body, embedding FROM documents WHERE collection = ? AND embedding IS NOT NULL`,
		q.Collection)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer rows.Close()

	var entries []db.SearchEntry
	for rows.Next() {
		var (
			id, body string
			blob     []byte
		)
		if err := rows.Scan(&id, &body, &blob); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		vec, err := db.DecodeVector(blob)
		if err != nil || len(vec) != len(q.Vector) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			ID:       id,
			Score:    cosineDistance(q.Vector, vec),
			Document: []byte(body),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score < entries[j].Score })
	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchText matches documents where any term is a case-insensitive substring
// of any listed JSON field.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	where, args, err := buildTextPredicate(q.Fields, q.Terms)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, body FROM documents WHERE collection = ? AND (` + where + `) ORDER BY id LIMIT ?`
	all := make([]any, 0, len(args)+2)
	all = append(all, q.Collection)
	all = append(all, args...)
	all = append(all, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, all...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer rows.Close()

	var entries []db.SearchEntry
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		entries = append(entries, db.SearchEntry{ID: id, Document: []byte(body)})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func buildTextPredicate(fields, terms []string) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("at least one field is required")
	}
	for _, f := range fields {
		if !db.IsValidIdentifier(f) || strings.Contains(f, ":") {
			return "", nil, fmt.Errorf("invalid field name %q", f)
		}
	}

	var (
		clauses []string
		args    []any
	)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		pattern := "%" + likeEscaper.Replace(t) + "%"
		for _, f := range fields {
			clauses = append(clauses, `lower(json_extract(body, '$.`+f+`')) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
	}
	if len(clauses) == 0 {
		return "", nil, fmt.Errorf("at least one term is required")
	}
	return strings.Join(clauses, " OR "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
