package modcurator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheVirusNVGM/modcurator/internal/db"
	dbRedis "github.com/TheVirusNVGM/modcurator/internal/db/redis"
	dbSQLite "github.com/TheVirusNVGM/modcurator/internal/db/sqlite"
	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/category"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	catalogrepo "github.com/TheVirusNVGM/modcurator/internal/repository/catalog"
	embeddinguc "github.com/TheVirusNVGM/modcurator/internal/usecase/embedding"
	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
	resolveruc "github.com/TheVirusNVGM/modcurator/internal/usecase/resolver"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "modcurator:"
	defaultCollection       = "mods"
	maxSelectedMods         = 1000
)

// Internal interfaces, swapped for mocks in tests.
type retrievalUseCase interface {
	Retrieve(ctx context.Context, req retrievaluc.Request) (retrievaluc.Outcome, error)
}

type resolverUseCase interface {
	Resolve(ctx context.Context, selected []mod.Mod, p platform.Platform) (resolution.Result, error)
}

type catalogRepo interface {
	GetByIDs(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error)
	EnsureIndex(ctx context.Context) error
	Import(ctx context.Context, docs []catalogrepo.Document) (catalogrepo.ImportResult, error)
}

// Client is the modcurator SDK entry point.
type Client struct {
	store        db.Store
	catalog      catalogRepo
	retrievalSvc retrievalUseCase
	resolverSvc  resolverUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a Client and connects to the catalog.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:        defaultKeyPrefix,
		collection:       defaultCollection,
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("modcurator: catalog required (use WithRedis or WithSQLite)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("modcurator: catalog not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("modcurator: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("modcurator: create redis store: %w", err)
		}
		return s, nil
	case driverSQLite:
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.sqlitePath})
		if err != nil {
			return nil, fmt.Errorf("modcurator: create sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("modcurator: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	vec := domain.DefaultVectorConfig()
	vec.Dimensions = cfg.vectorDimensions

	catalog := catalogrepo.New(store, catalogrepo.Config{
		Collection: cfg.collection,
		KeyPrefix:  cfg.keyPrefix,
		Vector:     vec,
	}, nil)

	// Embedder: noop when not set (keyword retrieval still works, semantic
	// queries are reported as failed).
	var domEmb domain.Embedder = &noopEmbedder{}
	var checker healthuc.EmbeddingChecker
	if cfg.embedder != nil {
		memo, err := embeddinguc.NewMemoEmbedder(&embedderAdapter{inner: cfg.embedder}, 0, nil)
		if err != nil {
			return nil, fmt.Errorf("modcurator: %w", err)
		}
		domEmb = memo
		if cfg.queryInstruction != "" {
			domEmb = domain.NewInstructionEmbedder(memo, cfg.queryInstruction)
		}
		checker = memo
	}

	synonyms := category.NewSynonyms(cfg.synonyms)

	return &Client{
		store:        store,
		catalog:      catalog,
		retrievalSvc: retrievaluc.New(catalog, domEmb, synonyms, retrievaluc.DefaultOptions(), nil),
		resolverSvc:  resolveruc.New(catalog, resolveruc.DefaultOptions(), nil),
		healthSvc:    healthuc.New(store, checker, 0, nil),
		obs:          obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks catalog connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, 0, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Retrieve runs the queries of req and returns ranked candidates. Individual
// query failures are reported in RetrieveResult.Queries; only an invalid
// request is an error.
func (c *Client) Retrieve(ctx context.Context, req RetrieveRequest) (_ RetrieveResult, err error) {
	start := time.Now()
	n := 0
	defer func() { c.obs.observe("retrieve", start, n, err) }()

	internal, err := toInternalRequest(&req)
	if err != nil {
		return RetrieveResult{}, err
	}
	outcome, err := c.retrievalSvc.Retrieve(ctx, internal)
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("retrieve: %w", err)
	}
	n = len(outcome.Candidates)
	return fromOutcome(&outcome), nil
}

// Resolve expands the dependencies of selected and removes conflicts for p.
func (c *Client) Resolve(ctx context.Context, selected []Mod, p Platform) (_ ResolveResult, err error) {
	start := time.Now()
	n := 0
	defer func() { c.obs.observe("resolve", start, n, err) }()

	if len(selected) > maxSelectedMods {
		return ResolveResult{}, invalid("too many mods (max %d)", maxSelectedMods)
	}
	mods := make([]mod.Mod, 0, len(selected))
	for i := range selected {
		if selected[i].ID == "" {
			return ResolveResult{}, invalid("mods[%d]: id is required", i)
		}
		mods = append(mods, toInternalMod(&selected[i]))
	}

	res, err := c.resolve(ctx, mods, p, nil)
	n = len(res.FinalMods)
	return res, err
}

// ResolveIDs looks the selected mods up in the catalog and resolves them.
// Unknown ids become leading warnings.
func (c *Client) ResolveIDs(ctx context.Context, ids []string, p Platform) (_ ResolveResult, err error) {
	start := time.Now()
	n := 0
	defer func() { c.obs.observe("resolve_ids", start, n, err) }()

	if len(ids) > maxSelectedMods {
		return ResolveResult{}, invalid("too many mods (max %d)", maxSelectedMods)
	}
	keys := make([]mod.ID, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, mod.ID(id))
		}
	}
	found, err := c.catalog.GetByIDs(ctx, keys)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("lookup selected mods: %w", err)
	}

	mods := make([]mod.Mod, 0, len(keys))
	var unknown []string
	for _, id := range keys {
		m, ok := found[id]
		if !ok {
			unknown = append(unknown, string(id))
			continue
		}
		mods = append(mods, m)
	}

	res, err := c.resolve(ctx, mods, p, unknown)
	n = len(res.FinalMods)
	return res, err
}

func (c *Client) resolve(ctx context.Context, mods []mod.Mod, p Platform, unknown []string) (ResolveResult, error) {
	target, err := toInternalPlatform(p)
	if err != nil {
		return ResolveResult{}, err
	}
	res, err := c.resolverSvc.Resolve(ctx, mods, target)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("resolve: %w", err)
	}
	return fromResult(&res, unknown), nil
}

// Mods fetches catalog mods by id. Unknown ids are absent from the result.
func (c *Client) Mods(ctx context.Context, ids []string) (_ map[string]Mod, err error) {
	start := time.Now()
	n := 0
	defer func() { c.obs.observe("mods", start, n, err) }()

	keys := make([]mod.ID, len(ids))
	for i, id := range ids {
		keys[i] = mod.ID(id)
	}
	found, err := c.catalog.GetByIDs(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get mods: %w", err)
	}
	out := make(map[string]Mod, len(found))
	for id, m := range found {
		out[string(id)] = fromMod(&m)
	}
	n = len(out)
	return out, nil
}

// Import stores mods in the catalog, creating the search index first when
// needed. Invalid mods are rejected individually.
func (c *Client) Import(ctx context.Context, mods []Mod) (_ ImportResult, err error) {
	start := time.Now()
	n := 0
	defer func() { c.obs.observe("import", start, n, err) }()

	docs := make([]catalogrepo.Document, 0, len(mods))
	rejected := make(map[string]error)
	for i := range mods {
		doc, err := toDocument(&mods[i])
		if err != nil {
			rejected[mods[i].ID] = err
			continue
		}
		docs = append(docs, doc)
	}

	if err = c.catalog.EnsureIndex(ctx); err != nil {
		return ImportResult{}, fmt.Errorf("ensure index: %w", err)
	}
	res, err := c.catalog.Import(ctx, docs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	for id, rerr := range res.Rejected {
		rejected[id] = rerr
	}
	n = res.Imported
	return ImportResult{Imported: res.Imported, Rejected: rejected}, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// HealthCheck embeds a short probe text.
func (a *embedderAdapter) HealthCheck(ctx context.Context) error {
	_, err := a.Embed(ctx, "health")
	return err
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"%w: embedder not configured (use WithEmbedder for semantic queries)", domain.ErrEmbeddingProviderError,
	)
}
