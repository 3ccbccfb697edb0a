package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/TheVirusNVGM/modcurator/internal/db"
)

// MGet fetches documents with a single JSON.MGET. Entries are aligned with ids;
// missing keys stay nil. Documents come back in JSONPath array form ("[{...}]").
func (s *Store) MGet(ctx context.Context, collection string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.DocumentKey(collection, id)
	}

	cmd := s.b().Arbitrary("JSON.MGET").Keys(keys...).Args("$").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}

	out := make([][]byte, len(ids))
	for i := 0; i < len(raw) && i < len(ids); i++ {
		if raw[i].IsNil() {
			continue
		}
		str, err := raw[i].ToString()
		if err != nil || str == "" {
			continue
		}
		out[i] = []byte(str)
	}
	return out, nil
}

// PutMulti stores documents with pipelined JSON.SET. A non-empty embedding is
// written to $.embedding, the path indexed as the vector field.
func (s *Store) PutMulti(ctx context.Context, collection string, items []db.DocumentItem) error {
	if len(items) == 0 {
		return nil
	}
	cmds := make(rueidis.Commands, 0, len(items)*2)
	for i := range items {
		key := s.DocumentKey(collection, items[i].ID)
		cmds = append(cmds, s.b().Arbitrary("JSON.SET").Keys(key).Args("$", string(items[i].Body)).Build())
		if len(items[i].Embedding) > 0 {
			vec, err := json.Marshal(items[i].Embedding)
			if err != nil {
				return fmt.Errorf("marshal embedding %s: %w", items[i].ID, err)
			}
			cmds = append(cmds, s.b().Arbitrary("JSON.SET").Keys(key).Args("$.embedding", string(vec)).Build())
		}
	}

	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: err}
		}
	}
	return nil
}
