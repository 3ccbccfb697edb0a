package chi

import (
	"context"
	"errors"

	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	healthuc "github.com/TheVirusNVGM/modcurator/internal/usecase/health"
	retrievaluc "github.com/TheVirusNVGM/modcurator/internal/usecase/retrieval"
)

// --- Mocks ---

type mockRetrieval struct {
	outcome retrievaluc.Outcome
	err     error
	panics  bool

	called  bool
	lastReq retrievaluc.Request
}

func (m *mockRetrieval) Retrieve(_ context.Context, req retrievaluc.Request) (retrievaluc.Outcome, error) {
	if m.panics {
		panic("boom")
	}
	m.called = true
	m.lastReq = req
	return m.outcome, m.err
}

type mockResolver struct {
	result resolution.Result
	err    error

	called       bool
	lastSelected []mod.Mod
	lastPlatform platform.Platform
}

func (m *mockResolver) Resolve(_ context.Context, selected []mod.Mod, p platform.Platform) (resolution.Result, error) {
	m.called = true
	m.lastSelected = selected
	m.lastPlatform = p
	return m.result, m.err
}

type mockLookup struct {
	mods map[mod.ID]mod.Mod
	err  error

	lastIDs []mod.ID
}

func (m *mockLookup) GetByIDs(_ context.Context, ids []mod.ID) (map[mod.ID]mod.Mod, error) {
	m.lastIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[mod.ID]mod.Mod)
	for _, id := range ids {
		if md, ok := m.mods[id]; ok {
			out[id] = md
		}
	}
	return out, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	return m.report
}

var errBoom = errors.New("redis: connection reset by peer 10.0.0.7:6379")

// --- Helpers ---

type fixture struct {
	retrieval *mockRetrieval
	resolver  *mockResolver
	lookup    *mockLookup
	health    *mockHealth
	server    *Server
}

func newFixture() *fixture {
	f := &fixture{
		retrieval: &mockRetrieval{},
		resolver:  &mockResolver{},
		lookup:    &mockLookup{mods: map[mod.ID]mod.Mod{}},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"catalog": healthuc.CheckOK},
		}},
	}
	f.server = NewServer(f.retrieval, f.resolver, f.lookup, f.health, nil)
	return f
}
