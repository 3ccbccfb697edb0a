package modcurator

import (
	"context"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	catalogrepo "github.com/TheVirusNVGM/modcurator/internal/repository/catalog"
	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

// --- retrievalUseCase mock ---

type mockRetrievalUC struct {
	retrieveFn func(ctx context.Context, req retrievaluc.Request) (retrievaluc.Outcome, error)
}

func (m *mockRetrievalUC) Retrieve(ctx context.Context, req retrievaluc.Request) (retrievaluc.Outcome, error) {
	return m.retrieveFn(ctx, req)
}

// --- resolverUseCase mock ---

type mockResolverUC struct {
	resolveFn func(ctx context.Context, selected []mod.Mod, p platform.Platform) (resolution.Result, error)
}

func (m *mockResolverUC) Resolve(
	ctx context.Context, selected []mod.Mod, p platform.Platform,
) (resolution.Result, error) {
	return m.resolveFn(ctx, selected, p)
}

// --- catalogRepo mock ---

type mockCatalog struct {
	getFn         func(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error)
	ensureIndexFn func(ctx context.Context) error
	importFn      func(ctx context.Context, docs []catalogrepo.Document) (catalogrepo.ImportResult, error)
}

func (m *mockCatalog) GetByIDs(ctx context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error) {
	return m.getFn(ctx, ids)
}

func (m *mockCatalog) EnsureIndex(ctx context.Context) error {
	if m.ensureIndexFn == nil {
		return nil
	}
	return m.ensureIndexFn(ctx)
}

func (m *mockCatalog) Import(
	ctx context.Context, docs []catalogrepo.Document,
) (catalogrepo.ImportResult, error) {
	return m.importFn(ctx, docs)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(
	catalog catalogRepo,
	retrievalSvc retrievalUseCase,
	resolverSvc resolverUseCase,
) *Client {
	return &Client{
		catalog:      catalog,
		retrievalSvc: retrievalSvc,
		resolverSvc:  resolverSvc,
	}
}

var fabric121 = Platform{MCVersion: "1.21.1", Loader: "fabric"}
