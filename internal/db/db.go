package db

import (
	"context"
	"time"
)

// Store is what a catalog backend implements: Redis or SQLite.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces below
type Store interface {
	Pinger
	KVStore
	DocumentStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DocumentItem is one JSON document with its optional embedding, for bulk load.
type DocumentItem struct {
	ID        string
	Body      []byte
	Embedding []float32
}

// DocumentStore provides JSON document operations scoped to a collection.
type DocumentStore interface {
	// MGet fetches documents in one round-trip. The result is aligned with ids;
	// a missing document yields a nil entry.
	MGet(ctx context.Context, collection string, ids []string) ([][]byte, error)
	PutMulti(ctx context.Context, collection string, items []DocumentItem) error
}

// IndexManager provides search index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over a collection.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
