// Package catalog is the read side of the mod catalog: it maps stored JSON
// documents into domain mods and validates them at the boundary.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TheVirusNVGM/modcurator/internal/db"
	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
)

// textFields are the document fields keyword search matches against.
var textFields = []string{"name", "summary", "description"}

// store is the consumer interface for catalog operations (ISP).
type store interface {
	MGet(ctx context.Context, collection string, ids []string) ([][]byte, error)
	PutMulti(ctx context.Context, collection string, items []db.DocumentItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config selects the collection and describes its vector index.
type Config struct {
	Collection string
	KeyPrefix  string
	Vector     domain.VectorConfig
	HNSW       HNSWConfig
	// RequestTimeout bounds each read; zero leaves the caller's deadline alone.
	RequestTimeout time.Duration
}

// Repo implements the mod catalog on top of a db store.
type Repo struct {
	store  store
	cfg    Config
	logger *zap.Logger
}

// New creates a catalog repository. A nil logger discards output.
func New(s store, cfg Config, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, cfg: cfg, logger: logger}
}

// GetByIDs fetches mods in one batched call. Ids without a stored or valid
// document are absent from the result; invalid documents are logged.
func (r *Repo) GetByIDs(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error) {
	out := make(map[mod.ID]mod.Mod, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	docs, err := r.store.MGet(ctx, r.cfg.Collection, keys)
	if err != nil {
		return nil, unavailable("get mods", err)
	}

	for i, raw := range docs {
		if raw == nil || i >= len(ids) {
			continue
		}
		m, err := decodeMod(raw)
		if err != nil {
			r.logger.Warn("Skipping invalid catalog document",
				zap.String("mod_id", string(ids[i])),
				zap.String("collection", r.cfg.Collection),
				zap.Error(err),
			)
			continue
		}
		out[ids[i]] = m
	}
	return out, nil
}

// SearchByVector returns the k nearest mods with raw distances.
func (r *Repo) SearchByVector(ctx context.Context, vector []float32, k int) ([]mod.Hit, error) {
	if err := domain.CheckDimensions(len(vector), r.cfg.Vector.Dimensions); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Collection: r.cfg.Collection,
		Vector:     vector,
		K:          k,
	})
	if err != nil {
		return nil, unavailable("search by vector", err)
	}

	hits := make([]mod.Hit, 0, len(sr.Entries))
	for i := range sr.Entries {
		m, err := decodeMod(sr.Entries[i].Document)
		if err != nil {
			continue
		}
		hits = append(hits, mod.Hit{Mod: m, Distance: sr.Entries[i].Score})
	}
	return hits, nil
}

// SearchByText returns up to limit mods whose name, summary or description
// contains any of terms.
func (r *Repo) SearchByText(ctx context.Context, terms []string, limit int) ([]mod.Mod, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		Collection: r.cfg.Collection,
		Terms:      terms,
		Fields:     textFields,
		Limit:      limit,
	})
	if err != nil {
		return nil, unavailable("search by text", err)
	}

	mods := make([]mod.Mod, 0, len(sr.Entries))
	for i := range sr.Entries {
		m, err := decodeMod(sr.Entries[i].Document)
		if err != nil {
			continue
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// EnsureIndex creates the catalog search index when it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := r.indexDefinition()
	if err != nil {
		return err
	}
	exists, err := r.store.IndexExists(ctx, def.Name)
	if err != nil {
		return unavailable("check index", err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return unavailable("create index", err)
	}
	return nil
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Imported int
	Rejected map[string]error
}

// Import validates and stores documents. Invalid documents are rejected
// individually; a storage failure aborts the import.
func (r *Repo) Import(ctx context.Context, docs []Document) (ImportResult, error) {
	res := ImportResult{Rejected: make(map[string]error)}
	items := make([]db.DocumentItem, 0, len(docs))
	for i := range docs {
		m, err := toMod(&docs[i])
		if err != nil {
			res.Rejected[fmt.Sprintf("#%d", i)] = err
			continue
		}
		if n := len(docs[i].Embedding); n > 0 {
			if err := domain.CheckDimensions(n, r.cfg.Vector.Dimensions); err != nil {
				res.Rejected[string(m.ID)] = err
				continue
			}
		}

		doc := docs[i]
		doc.SourceID = string(m.ID)
		doc.Embedding = nil
		body, err := json.Marshal(&doc)
		if err != nil {
			res.Rejected[string(m.ID)] = err
			continue
		}
		items = append(items, db.DocumentItem{ID: string(m.ID), Body: body, Embedding: docs[i].Embedding})
	}

	if err := r.store.PutMulti(ctx, r.cfg.Collection, items); err != nil {
		return res, unavailable("import", err)
	}
	res.Imported = len(items)
	return res, nil
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.RequestTimeout)
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	prefix := r.cfg.KeyPrefix + r.cfg.Collection
	b := db.NewIndex(prefix+":idx").
		Prefix(prefix+":").
		Text("$.name", "name").
		Text("$.summary", "summary").
		Text("$.description", "description").
		Numeric("$.downloads", "downloads")
	if r.cfg.Vector.Dimensions > 0 {
		b = b.Vector("$.embedding", "vector", db.HNSW{
			Dim:         r.cfg.Vector.Dimensions,
			Distance:    distanceMetric(r.cfg.Vector.DistanceMetric),
			M:           r.cfg.HNSW.M,
			EFConstruct: r.cfg.HNSW.EFConstruct,
		})
	}
	return b.Build()
}

func distanceMetric(s string) db.DistanceMetric {
	switch s {
	case "l2", "L2":
		return db.DistanceL2
	case "ip", "IP":
		return db.DistanceIP
	default:
		return db.DistanceCosine
	}
}

func decodeMod(raw []byte) (mod.Mod, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return mod.Mod{}, err
	}
	return toMod(&doc)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCatalogUnavailable, op, err)
}
