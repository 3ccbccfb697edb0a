// Package resolver expands a selected mod subset into a complete,
// conflict-free mod set by pulling in required dependencies.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
	"github.com/TheVirusNVGM/modcurator/internal/domain/mod"
	"github.com/TheVirusNVGM/modcurator/internal/domain/platform"
	"github.com/TheVirusNVGM/modcurator/internal/domain/resolution"
	"github.com/TheVirusNVGM/modcurator/internal/metrics"
)

// Resolver defaults.
const (
	DefaultMaxDepth = 3
	// DefaultFabricBridgeID is the Modrinth project id of Fabric API.
	DefaultFabricBridgeID mod.ID = "P7dR8mSH"
)

// Options tunes dependency expansion.
type Options struct {
	// MaxDepth bounds how far dependencies are followed. Mods at MaxDepth
	// are added but not expanded.
	MaxDepth int
	// FabricBridgeID is the dependency that marks a mod as needing a fabric runtime.
	FabricBridgeID mod.ID
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth, FabricBridgeID: DefaultFabricBridgeID}
}

// Service resolves dependencies and conflicts for a selected mod set.
type Service struct {
	catalog Catalog
	opts    Options
	logger  *zap.Logger
}

// New creates a resolver. Unset options fall back to defaults.
func New(catalog Catalog, opts Options, logger *zap.Logger) *Service {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.FabricBridgeID == "" {
		opts.FabricBridgeID = DefaultFabricBridgeID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, opts: opts, logger: logger}
}

// Resolve runs the resolution state machine over selected. Data-quality gaps
// become warnings; only an invalid platform or an unavailable catalog is an error.
func (s *Service) Resolve(ctx context.Context, selected []mod.Mod, p platform.Platform) (resolution.Result, error) {
	if p.MCVersion == "" {
		return resolution.Result{}, fmt.Errorf("%w: mc version is required", domain.ErrInvalidRequest)
	}
	if !p.Loader.IsValid() {
		return resolution.Result{}, fmt.Errorf("%w: unsupported loader %q", domain.ErrInvalidRequest, p.Loader)
	}

	r := &run{
		catalog:  s.catalog,
		platform: p,
		opts:     s.opts,
		logger:   s.logger,
		graph:    newGraph(len(selected)),
		selected: make(map[mod.ID]struct{}, len(selected)),
		rejected: make(map[mod.ID]struct{}),
	}

	res, err := r.execute(ctx, selected)
	if err != nil {
		metrics.ResolverRunsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Dependency resolution failed", zap.Error(err))
		return resolution.Result{}, err
	}
	metrics.ResolverRunsTotal.WithLabelValues("ok").Inc()
	metrics.ResolverDependenciesAdded.Add(float64(len(res.AddedDependencies)))

	s.logger.Info("Dependency resolution completed",
		zap.Int("selected", len(selected)),
		zap.Int("final", len(res.FinalMods)),
		zap.Int("dependencies_added", len(res.AddedDependencies)),
		zap.Int("removed_for_conflict", len(res.RemovedForConflict)),
		zap.Int("filtered", len(res.Filtered)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// run holds the state of one resolution.
type run struct {
	catalog  Catalog
	platform platform.Platform
	opts     Options
	logger   *zap.Logger

	graph *graph
	// selected holds every id the caller selected, including dropped ones.
	selected map[mod.ID]struct{}
	// rejected holds dependency ids already turned down, so they are not refetched.
	rejected map[mod.ID]struct{}

	res resolution.Result
}

func (r *run) execute(ctx context.Context, selected []mod.Mod) (resolution.Result, error) {
	survivors := r.filterSelected(selected)
	for _, m := range r.resolveSelectionConflicts(survivors) {
		r.graph.add(m, 0, "")
	}
	if err := r.expand(ctx); err != nil {
		return resolution.Result{}, err
	}
	r.settle()
	return r.collect(), nil
}

// filterSelected drops duplicates and selected mods that cannot run on the platform.
func (r *run) filterSelected(selected []mod.Mod) []mod.Mod {
	out := make([]mod.Mod, 0, len(selected))
	for i := range selected {
		m := selected[i]
		if _, dup := r.selected[m.ID]; dup {
			r.warn("Duplicate selection of %s ignored", m.DisplayName())
			continue
		}
		r.selected[m.ID] = struct{}{}

		if reason, ok := r.gate(&m); !ok {
			r.res.Filtered = append(r.res.Filtered, resolution.Removal{Mod: m, Reason: reason})
			r.warn("Filtered %s: %s", m.DisplayName(), reason)
			continue
		}
		out = append(out, m)
	}
	return out
}

// gate applies the loader check and the fabric bridge rule.
func (r *run) gate(m *mod.Mod) (string, bool) {
	if match := r.platform.CheckLoader(m); !match.OK {
		return match.Reason, false
	}
	if r.needsBridge(m) {
		return fmt.Sprintf("Requires %s, which cannot run on %s without fabric compatibility", r.opts.FabricBridgeID, r.platform.Loader), false
	}
	return "", true
}

func (r *run) needsBridge(m *mod.Mod) bool {
	if r.platform.FabricCompat || r.platform.Loader == mod.Fabric {
		return false
	}
	e, ok := m.Dependencies[r.opts.FabricBridgeID]
	return ok && e.IsRequired()
}

// resolveSelectionConflicts keeps, for every incompatible pair, the mod with
// strictly more downloads. Ties keep the mod seen first.
func (r *run) resolveSelectionConflicts(mods []mod.Mod) []mod.Mod {
	kept := make([]mod.Mod, 0, len(mods))
	for i := range mods {
		m := mods[i]

		var rivals []int
		beatsAll := true
		for k := range kept {
			if _, ok := mod.FindConflict(&m, &kept[k], r.platform.Loader); ok {
				rivals = append(rivals, k)
				if m.Downloads <= kept[k].Downloads {
					beatsAll = false
				}
			}
		}
		if len(rivals) == 0 {
			kept = append(kept, m)
			continue
		}

		if !beatsAll {
			winner := &kept[rivals[0]]
			for _, k := range rivals {
				if kept[k].Downloads >= m.Downloads {
					winner = &kept[k]
					break
				}
			}
			c, _ := mod.FindConflict(&m, winner, r.platform.Loader)
			r.removeForConflict(m, "selection", "Incompatible with %s: %s (kept the more popular mod)", winner.DisplayName(), c.Reason)
			continue
		}

		for j := len(rivals) - 1; j >= 0; j-- {
			loser := kept[rivals[j]]
			c, _ := mod.FindConflict(&m, &loser, r.platform.Loader)
			r.removeForConflict(loser, "selection", "Incompatible with %s: %s (kept the more popular mod)", m.DisplayName(), c.Reason)
			kept = slices.Delete(kept, rivals[j], rivals[j]+1)
		}
		kept = append(kept, m)
	}
	return kept
}

// pendingDep is a dependency id waiting to be fetched, with the mod that requires it.
type pendingDep struct {
	id     mod.ID
	parent mod.ID
}

// expand follows required dependencies breadth-first, one catalog batch per level.
func (r *run) expand(ctx context.Context) error {
	var frontier []int
	for i := range r.graph.nodes {
		frontier = append(frontier, i)
	}

	for depth := 0; depth < r.opts.MaxDepth && len(frontier) > 0; depth++ {
		pending := r.collectPending(frontier)
		if len(pending) == 0 {
			break
		}

		ids := make([]mod.ID, len(pending))
		for i, p := range pending {
			ids[i] = p.id
		}
		fetched, err := r.catalog.GetByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("fetch dependencies (depth %d): %w", depth+1, catalogErr(err))
		}

		frontier = frontier[:0]
		for _, p := range pending {
			if i, ok := r.admitDependency(p, fetched, depth+1); ok {
				frontier = append(frontier, i)
			}
		}
	}
	return nil
}

// collectPending lists the distinct required dependencies of frontier nodes
// that still need fetching. The first requirer in arena order is the parent.
func (r *run) collectPending(frontier []int) []pendingDep {
	seen := make(map[mod.ID]struct{})
	var out []pendingDep
	for _, i := range frontier {
		n := &r.graph.nodes[i]
		if n.removed {
			continue
		}
		for _, id := range n.mod.RequiredDependencies() {
			if _, ok := seen[id]; ok {
				continue
			}
			if _, ok := r.selected[id]; ok {
				continue
			}
			if _, ok := r.rejected[id]; ok {
				continue
			}
			if r.graph.has(id) {
				continue
			}
			edge := n.mod.Dependencies[id]
			if !edge.AdmitsVersion(r.platform.MCVersion) {
				r.logger.Debug("Dependency not required for target version",
					zap.String("mod_id", string(id)),
					zap.String("required_by", string(n.mod.ID)),
					zap.Strings("versions", edge.Versions),
				)
				continue
			}
			seen[id] = struct{}{}
			out = append(out, pendingDep{id: id, parent: n.mod.ID})
		}
	}
	return out
}

// admitDependency gates a fetched dependency and adds it to the graph.
func (r *run) admitDependency(p pendingDep, fetched map[mod.ID]mod.Mod, depth int) (int, bool) {
	parentName := r.displayName(p.parent)
	m, ok := fetched[p.id]
	if !ok {
		r.rejected[p.id] = struct{}{}
		r.warn("Dependency %s of %s not found in catalog", p.id, parentName)
		return 0, false
	}
	m.ID = p.id

	if reason, ok := r.gate(&m); !ok {
		r.rejected[p.id] = struct{}{}
		r.warn("Skipped dependency %s of %s: %s", m.DisplayName(), parentName, reason)
		return 0, false
	}

	if other, c, ok := r.conflictOnAdmit(&m, depth, p.parent); ok {
		r.rejected[p.id] = struct{}{}
		r.warn("Skipped dependency %s of %s: incompatible with %s: %s", m.DisplayName(), parentName, other.DisplayName(), c.Reason)
		return 0, false
	}

	return r.graph.add(m, depth, p.parent), true
}

// conflictOnAdmit checks m against the live set. Direct dependencies of
// selected mods are checked only against their parent and the dependencies
// admitted so far; settle later removes other selected mods they conflict with.
func (r *run) conflictOnAdmit(m *mod.Mod, depth int, parent mod.ID) (*mod.Mod, mod.Conflict, bool) {
	for i := range r.graph.nodes {
		n := &r.graph.nodes[i]
		if n.removed {
			continue
		}
		if depth == 1 && !n.isDependency() && n.mod.ID != parent {
			continue
		}
		if c, ok := mod.FindConflict(m, &n.mod, r.platform.Loader); ok {
			return &n.mod, c, true
		}
	}
	return nil, mod.Conflict{}, false
}

// settle removes selected mods that conflict with a dependency some
// surviving mod requires, then drops dependencies nothing live requires.
// A dependency only counts while a requirer survives, so the eviction set is
// iterated to a fixpoint over sets, independent of input order. When it
// alternates between two sets the larger one is kept; it leaves no selected
// mod in conflict with a live dependency.
func (r *run) settle() {
	var prev, lo, hi map[int]bool
	cur := map[int]bool{}
	for {
		next := r.evictions(r.reachable(cur))
		if sameSet(next, cur) || sameSet(next, prev) {
			lo, hi = cur, next
			if len(next) < len(cur) {
				lo, hi = next, cur
			}
			break
		}
		prev, cur = cur, next
	}

	live := r.reachable(hi)
	blame := r.reachable(lo)
	for ci := range r.graph.nodes {
		if hi[ci] {
			r.evict(ci, live, blame)
		}
	}
	for i := range r.graph.nodes {
		n := &r.graph.nodes[i]
		if n.removed || !n.isDependency() {
			continue
		}
		if !live[i] {
			n.removed = true
			r.warn("Removed dependency %s: no remaining mod requires it", n.mod.DisplayName())
			continue
		}
		if k, ok := r.graph.index[n.requiredBy]; !ok || !live[k] {
			if req := r.graph.requirers(n.mod.ID, live); len(req) > 0 {
				n.requiredBy = r.graph.nodes[req[0]].mod.ID
			}
		}
	}
}

// reachable marks selected mods outside evicted and every dependency they
// require, directly or through other dependencies.
func (r *run) reachable(evicted map[int]bool) []bool {
	nodes := r.graph.nodes
	live := make([]bool, len(nodes))
	var queue []int
	for i := range nodes {
		if !nodes[i].removed && !nodes[i].isDependency() && !evicted[i] {
			live[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, id := range nodes[i].mod.RequiredDependencies() {
			j, ok := r.graph.index[id]
			if !ok || live[j] || nodes[j].removed || !nodes[j].isDependency() {
				continue
			}
			live[j] = true
			queue = append(queue, j)
		}
	}
	return live
}

// evictions lists selected mods incompatible with a live dependency.
func (r *run) evictions(live []bool) map[int]bool {
	out := map[int]bool{}
	for di := range r.graph.nodes {
		if !live[di] || !r.graph.nodes[di].isDependency() {
			continue
		}
		for ci := range r.graph.nodes {
			c := &r.graph.nodes[ci]
			if c.removed || c.isDependency() {
				continue
			}
			if _, ok := mod.FindConflict(&c.mod, &r.graph.nodes[di].mod, r.platform.Loader); ok {
				out[ci] = true
			}
		}
	}
	return out
}

// evict removes selected node ci, blaming the first dependency it conflicts
// with, preferring one that stays in the final set.
func (r *run) evict(ci int, live, fallback []bool) {
	c := &r.graph.nodes[ci]
	c.removed = true
	for _, set := range [][]bool{live, fallback} {
		for di := range r.graph.nodes {
			d := &r.graph.nodes[di]
			if !set[di] || !d.isDependency() {
				continue
			}
			conflict, ok := mod.FindConflict(&c.mod, &d.mod, r.platform.Loader)
			if !ok {
				continue
			}
			requiredBy := d.requiredBy
			if req := r.graph.requirers(d.mod.ID, set); len(req) > 0 {
				requiredBy = r.graph.nodes[req[0]].mod.ID
			}
			r.removeForConflict(c.mod, "dependency",
				"Incompatible with %s (required by %s): %s",
				d.mod.DisplayName(), r.displayName(requiredBy), conflict.Reason)
			return
		}
	}
}

func sameSet(a, b map[int]bool) bool {
	if b == nil || len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func (r *run) collect() resolution.Result {
	res := r.res
	res.FinalMods = make([]resolution.Entry, 0, len(r.graph.nodes))
	for i := range r.graph.nodes {
		n := &r.graph.nodes[i]
		if n.removed {
			continue
		}
		e := resolution.Entry{
			Mod:               n.mod,
			AddedAsDependency: n.isDependency(),
			DependencyOf:      n.requiredBy,
			Depth:             n.depth,
		}
		res.FinalMods = append(res.FinalMods, e)
		if e.AddedAsDependency {
			res.AddedDependencies = append(res.AddedDependencies, e)
		}
	}
	return res
}

func (r *run) removeForConflict(m mod.Mod, phase, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	r.res.RemovedForConflict = append(r.res.RemovedForConflict, resolution.Removal{Mod: m, Reason: reason})
	r.warn("Removed %s: %s", m.DisplayName(), reason)
	metrics.ResolverConflictsRemoved.WithLabelValues(phase).Inc()
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.res.Warnings = append(r.res.Warnings, msg)
	r.logger.Debug("Resolution warning", zap.String("reason", msg))
}

func (r *run) displayName(id mod.ID) string {
	if i, ok := r.graph.index[id]; ok {
		return r.graph.nodes[i].mod.DisplayName()
	}
	return string(id)
}

// catalogErr makes sure a fetch failure matches domain.ErrCatalogUnavailable.
func catalogErr(err error) error {
	if errors.Is(err, domain.ErrCatalogUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
}
