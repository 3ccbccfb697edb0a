package catalog

import (
	"context"

	"github.com/TheVirusNVGM/modcurator/internal/db"
	"github.com/TheVirusNVGM/modcurator/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	mgetFn        func(ctx context.Context, collection string, ids []string) ([][]byte, error)
	putMultiFn    func(ctx context.Context, collection string, items []db.DocumentItem) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchTextFn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) MGet(ctx context.Context, collection string, ids []string) ([][]byte, error) {
	if m.mgetFn != nil {
		return m.mgetFn(ctx, collection, ids)
	}
	return make([][]byte, len(ids)), nil
}

func (m *mockStore) PutMulti(ctx context.Context, collection string, items []db.DocumentItem) error {
	if m.putMultiFn != nil {
		return m.putMultiFn(ctx, collection, items)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func testConfig() Config {
	return Config{
		Collection: "mods",
		KeyPrefix:  domain.KeyPrefix,
		Vector:     domain.VectorConfig{Dimensions: 3, DistanceMetric: "cosine"},
		HNSW:       HNSWConfig{M: 16, EFConstruct: 200},
	}
}
