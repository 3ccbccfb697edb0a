package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/TheVirusNVGM/modcurator/internal/config"
	"github.com/TheVirusNVGM/modcurator/internal/db"
	dbRedis "github.com/TheVirusNVGM/modcurator/internal/db/redis"
	dbSQLite "github.com/TheVirusNVGM/modcurator/internal/db/sqlite"
	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/category"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	logpkg "github.com/TheVirusNVGM/modcurator/internal/logger"
	"github.com/TheVirusNVGM/modcurator/internal/metrics"
	catalogrepo "github.com/TheVirusNVGM/modcurator/internal/repository/catalog"
	"github.com/TheVirusNVGM/modcurator/internal/repository/embcache"
	chiTransport "github.com/TheVirusNVGM/modcurator/internal/transport/chi"
	openaiEmb "github.com/TheVirusNVGM/modcurator/internal/transport/openai"
	embeddinguc "github.com/TheVirusNVGM/modcurator/internal/usecase/embedding"
	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
	resolveruc "github.com/TheVirusNVGM/modcurator/internal/usecase/resolver"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store
	catalog   *catalogrepo.Repo
	embedder  domain.Embedder
	retrieval *retrievaluc.Service
	resolver  *resolveruc.Service
	health    *healthuc.Service
}

// newApp connects the catalog store and builds the engine services.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("create catalog store: %w", err)
	}
	if err := store.WaitForReady(ctx, cfg.Catalog.ReadinessTimeoutDuration()); err != nil {
		store.Close()
		return nil, fmt.Errorf("catalog not ready: %w", err)
	}
	logger.Info("Connected to catalog",
		zap.String("driver", cfg.Catalog.Driver),
		zap.String("collection", cfg.Catalog.Collection),
	)

	// Explicit registration (no init()); repeated calls are no-ops.
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()
	metrics.RegisterHTTPMetrics()

	catalog := catalogrepo.New(store, catalogrepo.Config{
		Collection: cfg.Catalog.Collection,
		KeyPrefix:  cfg.Catalog.KeyPrefix,
		Vector: domain.VectorConfig{
			Model:          cfg.Embedding.Model,
			Dimensions:     cfg.Embedding.Dimensions,
			DistanceMetric: cfg.Catalog.DistanceMetric,
		},
		HNSW: catalogrepo.HNSWConfig{
			M:           cfg.Catalog.HNSWM,
			EFConstruct: cfg.Catalog.HNSWEFConstruct,
		},
		RequestTimeout: cfg.Catalog.RequestTimeoutDuration(),
	}, logger)

	embedder, err := buildEmbedder(cfg.Embedding, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	synonyms := category.NewSynonyms(cfg.Categories.Synonyms)
	retrieval := retrievaluc.New(catalog, embedder, synonyms, retrievalOptions(cfg.Retrieval), logger)
	resolver := resolveruc.New(catalog, resolveruc.Options{
		MaxDepth:       cfg.Resolver.MaxDepth,
		FabricBridgeID: mod.ID(cfg.Resolver.FabricBridgeID),
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		catalog:   catalog,
		embedder:  embedder,
		retrieval: retrieval,
		resolver:  resolver,
		health:    healthuc.New(store, newEmbeddingHealthChecker(embedder), 0, logger),
	}, nil
}

// Close releases the catalog store.
func (a *app) Close() {
	a.store.Close()
}

// handler builds the HTTP API.
func (a *app) handler() http.Handler {
	server := chiTransport.NewServer(a.retrieval, a.resolver, a.catalog, a.health, a.logger)
	return server.Router(a.cfg.Auth.APIKeys)
}

// openStore creates the catalog store for the configured driver.
// A failed constructor yields a nil interface, never a typed nil pointer.
func openStore(cfg config.CatalogConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Instrumented -> Store cache -> Memo -> Instruction.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) (domain.Embedder, error) {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Dimensions:     cfg.Dimensions,
		SendDimensions: cfg.SendDimensions,
		Provider:       cfg.Provider,
		Logger:         logger,
	})

	// Instrumented: counts provider calls only, cache hits never reach it.
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, cfg.Provider, cfg.Model, logger)

	// Shared cache in the catalog store
	embedder = embcache.New(embedder, store, embcache.Config{
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		TTL:        cfg.CacheTTL(),
	}, metrics.EmbeddingCacheTotal, logger)

	// In-process memo
	memo, err := embeddinguc.NewMemoEmbedder(embedder, cfg.MemoSize, metrics.EmbeddingCacheTotal)
	if err != nil {
		return nil, fmt.Errorf("create embedding memo: %w", err)
	}
	embedder = memo

	// Instruction prefix (outermost, so cache keys include it)
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder, nil
}

// retrievalOptions maps the retrieval config section onto engine options.
func retrievalOptions(cfg config.RetrievalConfig) retrievaluc.Options {
	return retrievaluc.Options{
		K1:                     cfg.BM25K1,
		B:                      cfg.BM25B,
		DescriptionLimit:       cfg.DescriptionLimit,
		KeywordFetchMultiplier: cfg.KeywordFetchMultiplier,
		Parallelism:            cfg.ParallelQueries,
		DefaultTargetCount:     cfg.DefaultTargetCount,
		DefaultMaxPerCategory:  cfg.DefaultMaxPerCategory,
		DiversityExempt:        cfg.DiversityExempt,
		OutdatedThreshold:      cfg.OutdatedThreshold,
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// newLogger builds the process logger for env.
func newLogger(cfg config.Config, env string) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}
