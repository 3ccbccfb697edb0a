package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

const (
	vectorScoreField = "__vector_score"
	documentField    = "$"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Entry scores are raw distances as reported by __vector_score.
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

	queryStr := fmt.Sprintf("*=>[KNN %d @vector $BLOB]", q.K)
	args := []string{
		s.IndexName(q.Collection), queryStr,
		"RETURN", "2", documentField, vectorScoreField,
		"SORTBY", vectorScoreField,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", string(db.EncodeVector(q.Vector)),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseResult(q.Collection, raw)
}

// SearchText runs an OR of infix wildcard matches of every term over every
// field: @name|summary:(*t1*|*t2*).
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	queryStr, err := buildTextQuery(q.Fields, q.Terms)
	if err != nil {
		return nil, err
	}

	args := []string{
		s.IndexName(q.Collection), queryStr,
		"RETURN", "1", documentField,
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return s.parseResult(q.Collection, raw)
}

func buildTextQuery(fields, terms []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("at least one field is required")
	}
	for _, f := range fields {
		if !db.IsValidIdentifier(f) {
			return "", fmt.Errorf("invalid field name %q", f)
		}
	}

	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		patterns = append(patterns, "*"+escapeQuery(t)+"*")
	}
	if len(patterns) == 0 {
		return "", fmt.Errorf("at least one term is required")
	}

	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), strings.Join(patterns, "|")), nil
}

// --- Result parsing ---

func (s *Store) parseResult(collection string, raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		m := parseFieldPairs(fields)

		entry := db.SearchEntry{
			ID:       s.idFromKey(collection, key),
			Document: []byte(m[documentField]),
		}
		if scoreStr, ok := m[vectorScoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				entry.Score = d
			}
		}

		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

// querySpecials are the query syntax characters escaped inside a term.
const querySpecials = `\'"@{}()|-~*[]!%^$<>=;+:., `

var queryEscaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(querySpecials))
	for _, r := range querySpecials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}
