package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

// MGet fetches documents with one SELECT ... IN query. Entries are aligned with
// ids; missing documents stay nil.
func (s *Store) MGet(ctx context.Context, collection string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT id, body FROM documents WHERE collection = ? AND id IN (` + placeholders(len(ids)) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}
	defer rows.Close()

	found := make(map[string][]byte, len(ids))
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
		}
		found[id] = []byte(body)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}

	out := make([][]byte, len(ids))
	for i, id := range ids {
		out[i] = found[id]
	}
	return out, nil
}

// PutMulti upserts documents in one transaction.
func (s *Store) PutMulti(ctx context.Context, collection string, items []db.DocumentItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (collection, id, body, embedding) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, embedding = excluded.embedding`)
	if err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	defer stmt.Close()

	for i := range items {
		var blob []byte
		if len(items[i].Embedding) > 0 {
			blob = db.EncodeVector(items[i].Embedding)
		}
		if _, err := stmt.ExecContext(ctx, collection, items[i].ID, string(items[i].Body), blob); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("document %s: %w", items[i].ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
