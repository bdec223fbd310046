package engine

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/internal/dedup"
	"github.com/pkgqa/pkgqa/pkgerr"
)

// Pipeline is one executable Source plus the fully wrapped Stage tree
// rooted at it, ready to be driven by RunPipeline.
type Pipeline struct {
	Source Source
	Root   Stage
	Sinks  []Sink
}

// Planner builds the minimal set of Pipelines that together cover
// every requested Sink, per spec §4.1: reachability analysis, source
// pruning, cheapest-source dedup, a single-pipeline search and a
// multi-pipeline fallback.
//
// Scope and feed-type granularity coincide throughout this package: a
// Repo item carries repository-wide context, a Version item only its
// own recipe, so a Source's declared Scope() is checked directly
// against a Transform's or Sink's MinScope() with no separate
// scope-from-feed-type computation.
type Planner struct {
	Sources    []Source
	Transforms []Transform
	Dedup      dedup.Store
	Debug      bool
	Log        *logrus.Logger
}

// shortestTree is the shortest-path tree from a single feed-type root,
// computed over the transform graph restricted to edges whose
// MinScope the given source scope satisfies. Dijkstra over five nodes
// is exhaustive in practice, which is the sense in which the plan
// search is "branch and bound": the search space is small enough that
// bounding by running cost prunes it completely.
type shortestTree struct {
	dist map[feed.Type]int
	via  map[feed.Type]Transform  // transform used to reach this type
	from map[feed.Type]feed.Type  // predecessor type
}

func buildShortestTree(start feed.Type, transforms []Transform, scope feed.Scope) *shortestTree {
	t := &shortestTree{
		dist: map[feed.Type]int{start: 0},
		via:  map[feed.Type]Transform{},
		from: map[feed.Type]feed.Type{},
	}
	visited := map[feed.Type]bool{}

	for {
		var u feed.Type
		best, found := 0, false
		for ft, d := range t.dist {
			if visited[ft] {
				continue
			}
			if !found || d < best {
				found, best, u = true, d, ft
			}
		}
		if !found {
			break
		}
		visited[u] = true

		for _, tr := range transforms {
			if tr.SourceFeed() != u || tr.MinScope() > scope {
				continue
			}
			v := tr.DestFeed()
			nd := t.dist[u] + tr.Cost()
			if cur, ok := t.dist[v]; !ok || nd < cur {
				t.dist[v] = nd
				t.via[v] = tr
				t.from[v] = u
			}
		}
	}
	return t
}

func (t *shortestTree) reaches(target feed.Type) bool {
	_, ok := t.dist[target]
	return ok
}

// planNode is one node of the merged plan tree: the sinks that attach
// directly at this feed-type, plus the child nodes reached by further
// transforms.
type planNode struct {
	feedType feed.Type
	via      Transform // nil at the tree's root
	sinks    []Sink
	children []*planNode
}

func (n *planNode) toStage(rt *runtime) Stage {
	sort.Slice(n.sinks, func(i, j int) bool {
		if n.sinks[i].Priority() != n.sinks[j].Priority() {
			return n.sinks[i].Priority() < n.sinks[j].Priority()
		}
		return n.sinks[i].Name() < n.sinks[j].Name()
	})
	sort.Slice(n.children, func(i, j int) bool {
		if n.children[i].feedType != n.children[j].feedType {
			return n.children[i].feedType < n.children[j].feedType
		}
		return n.children[i].via.Name() < n.children[j].via.Name()
	})

	children := make([]Stage, 0, len(n.sinks)+len(n.children))
	for _, sk := range n.sinks {
		children = append(children, wrapSink(sk))
	}
	for _, c := range n.children {
		children = append(children, wrapTransform(c.via, c.toStage(rt)))
	}
	return newCheckRunner(rt, children...)
}

// Plan builds Pipelines satisfying every sink in sinks. It returns a
// ConfigurationError if some sink is unreachable from any source.
func (p *Planner) Plan(sinks []Sink) ([]*Pipeline, error) {
	if len(sinks) == 0 {
		return nil, nil
	}

	// Step 1: drop sources that cannot reach any sink's feed-type at
	// all, regardless of scope.
	reachableAtAll := func(src Source) bool {
		tree := buildShortestTree(src.FeedType(), p.Transforms, feed.MaxScope)
		for _, sk := range sinks {
			if tree.reaches(sk.FeedType()) {
				return true
			}
		}
		return false
	}
	usable := make([]Source, 0, len(p.Sources))
	for _, src := range p.Sources {
		if reachableAtAll(src) {
			usable = append(usable, src)
		}
	}
	if len(usable) == 0 {
		return nil, &pkgerr.ConfigurationError{Message: "no source can reach any requested check"}
	}

	// Step 2: cheapest source per (scope, feed-type). Two sources
	// producing the identical (scope, feed-type) pair are
	// interchangeable to every downstream consumer, so only the
	// cheaper is worth keeping.
	cheapest := map[feed.Scope]map[feed.Type]Source{}
	for _, src := range usable {
		byType, ok := cheapest[src.Scope()]
		if !ok {
			byType = map[feed.Type]Source{}
			cheapest[src.Scope()] = byType
		}
		if cur, ok := byType[src.FeedType()]; !ok || src.Cost() < cur.Cost() {
			byType[src.FeedType()] = src
		}
	}
	usable = usable[:0]
	for _, byType := range cheapest {
		for _, src := range byType {
			usable = append(usable, src)
		}
	}
	sort.Slice(usable, func(i, j int) bool {
		if usable[i].Cost() != usable[j].Cost() {
			return usable[i].Cost() < usable[j].Cost()
		}
		return usable[i].Name() < usable[j].Name()
	})

	// Step 3: confirm every sink is reachable, with adequate scope,
	// from at least one surviving source, up front, so failures are
	// reported as one ConfigurationError rather than a partial plan.
	bestSourceFor := map[string]Source{}
	unreached := []string{}
	for _, sk := range sinks {
		var chosen Source
		for _, src := range usable {
			if src.Scope() < sk.MinScope() {
				continue
			}
			tree := buildShortestTree(src.FeedType(), p.Transforms, src.Scope())
			if !tree.reaches(sk.FeedType()) {
				continue
			}
			if chosen == nil || src.Cost() < chosen.Cost() {
				chosen = src
			}
		}
		if chosen == nil {
			unreached = append(unreached, sk.Name())
			continue
		}
		bestSourceFor[sk.Name()] = chosen
	}
	if len(unreached) > 0 {
		sort.Strings(unreached)
		return nil, &pkgerr.ConfigurationError{Message: "unreachable checks: " + strings.Join(unreached, ", ")}
	}

	rt := newRuntime(p.Dedup, p.Debug, p.Log)

	// Step 4: try the single-pipeline case first — one source feeding
	// every sink is both the cheapest plan (one repository walk) and
	// the common case.
	if pl := p.bestSinglePipeline(usable, sinks, rt); pl != nil {
		return []*Pipeline{pl}, nil
	}

	// Step 5: multi-pipeline fallback. No one source reaches every
	// sink, so assign each sink to its own cheapest eligible source
	// (already computed in bestSourceFor) and group sinks that share a
	// source into one pipeline. This is exact, not heuristic, for the
	// per-sink assignment; what it does not attempt is searching for a
	// shared source that is individually more expensive per sink but
	// cheaper in aggregate by avoiding a second repository walk — an
	// open question noted in DESIGN.md.
	bySource := map[string][]Sink{}
	order := []string{}
	srcByName := map[string]Source{}
	for _, sk := range sinks {
		src := bestSourceFor[sk.Name()]
		if _, ok := bySource[src.Name()]; !ok {
			order = append(order, src.Name())
		}
		bySource[src.Name()] = append(bySource[src.Name()], sk)
		srcByName[src.Name()] = src
	}
	sort.Strings(order)

	pipelines := make([]*Pipeline, 0, len(order))
	for _, name := range order {
		src := srcByName[name]
		tree := buildShortestTree(src.FeedType(), p.Transforms, src.Scope())
		pipelines = append(pipelines, buildPipeline(src, tree, bySource[name], rt))
	}
	return pipelines, nil
}

// bestSinglePipeline searches usable (cheapest-first) for the
// cheapest source that alone reaches every sink at adequate scope.
func (p *Planner) bestSinglePipeline(usable []Source, sinks []Sink, rt *runtime) *Pipeline {
	var best *Pipeline
	var bestCost int

	for _, src := range usable {
		tree := buildShortestTree(src.FeedType(), p.Transforms, src.Scope())
		all := true
		cost := src.Cost()
		for _, sk := range sinks {
			if src.Scope() < sk.MinScope() || !tree.reaches(sk.FeedType()) {
				all = false
				break
			}
			cost += tree.dist[sk.FeedType()]
		}
		if !all {
			continue
		}
		if best == nil || cost < bestCost {
			best = buildPipeline(src, tree, sinks, rt)
			bestCost = cost
		}
	}
	return best
}

// buildPipeline merges each sink's shortest path from src's tree into
// one shared plan tree (the paths share prefixes automatically because
// tree is itself a shortest-path tree) and converts it to an
// executable Stage.
func buildPipeline(src Source, tree *shortestTree, sinks []Sink, rt *runtime) *Pipeline {
	nodes := map[feed.Type]*planNode{}
	var ensure func(t feed.Type) *planNode
	ensure = func(t feed.Type) *planNode {
		if n, ok := nodes[t]; ok {
			return n
		}
		n := &planNode{feedType: t}
		nodes[t] = n
		if parentType, ok := tree.from[t]; ok {
			n.via = tree.via[t]
			parent := ensure(parentType)
			parent.children = append(parent.children, n)
		}
		return n
	}

	root := ensure(src.FeedType())
	for _, sk := range sinks {
		n := ensure(sk.FeedType())
		n.sinks = append(n.sinks, sk)
	}

	return &Pipeline{Source: src, Root: root.toStage(rt), Sinks: sinks}
}
