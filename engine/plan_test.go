package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

// fakeSource/fakeTransform/fakeSink give the planner a tiny, fully
// controllable graph: repo -> cat -> pkg, matching the shape of the
// real repository package's chain without touching a filesystem.

type fakeSource struct {
	name  string
	ft    feed.Type
	scope feed.Scope
	cost  int
}

func (s *fakeSource) Name() string        { return s.name }
func (s *fakeSource) FeedType() feed.Type { return s.ft }
func (s *fakeSource) Scope() feed.Scope   { return s.scope }
func (s *fakeSource) Cost() int           { return s.cost }
func (s *fakeSource) Produce() (Iterator, error) {
	return &fakeIterator{items: []Item{{Feed: s.ft, Payload: "seed"}}}, nil
}

type fakeIterator struct {
	items []Item
	pos   int
}

func (it *fakeIterator) Next() (Item, bool, error) {
	if it.pos >= len(it.items) {
		return Item{}, false, nil
	}
	item := it.items[it.pos]
	it.pos++
	return item, true, nil
}

type fakeTransform struct {
	name         string
	from, to     feed.Type
	minScope     feed.Scope
	cost         int
	expand       int // items emitted per input
}

func (t *fakeTransform) Name() string          { return t.name }
func (t *fakeTransform) SourceFeed() feed.Type  { return t.from }
func (t *fakeTransform) DestFeed() feed.Type    { return t.to }
func (t *fakeTransform) MinScope() feed.Scope   { return t.minScope }
func (t *fakeTransform) Cost() int              { return t.cost }

func (t *fakeTransform) Wrap(child Stage) Stage {
	return &fakeTransformStage{t: t, child: child}
}

type fakeTransformStage struct {
	t     *fakeTransform
	child Stage
}

func (s *fakeTransformStage) Start(r Reporter) error  { return s.child.Start(r) }
func (s *fakeTransformStage) Finish(r Reporter) error { return s.child.Finish(r) }
func (s *fakeTransformStage) Feed(item Item, r Reporter) error {
	n := s.t.expand
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := s.child.Feed(Item{Feed: s.t.to, Payload: item.Payload}, r); err != nil {
			return err
		}
	}
	return nil
}

type fakeSink struct {
	name     string
	ft       feed.Type
	minScope feed.Scope
	fed      int
	known    []string
}

func (s *fakeSink) Name() string             { return s.name }
func (s *fakeSink) FeedType() feed.Type       { return s.ft }
func (s *fakeSink) MinScope() feed.Scope      { return s.minScope }
func (s *fakeSink) Priority() int             { return 0 }
func (s *fakeSink) RequiredAddons() []string  { return nil }
func (s *fakeSink) KnownResults() []string    { return s.known }
func (s *fakeSink) Start(r Reporter) error    { return nil }
func (s *fakeSink) Finish(r Reporter) error   { return nil }
func (s *fakeSink) Feed(item Item, r Reporter) error {
	s.fed++
	return nil
}

func TestPlanSingleSourceReachesEverySink(t *testing.T) {
	src := &fakeSource{name: "repo", ft: feed.Repo, scope: feed.RepositoryScope, cost: 10}
	repoToCat := &fakeTransform{name: "r2c", from: feed.Repo, to: feed.Category, minScope: feed.RepositoryScope, cost: 1}
	catToPkg := &fakeTransform{name: "c2p", from: feed.Category, to: feed.Package, minScope: feed.CategoryScope, cost: 1}

	sinkA := &fakeSink{name: "a", ft: feed.Category, minScope: feed.CategoryScope}
	sinkB := &fakeSink{name: "b", ft: feed.Package, minScope: feed.PackageScope}

	p := &Planner{
		Sources:    []Source{src},
		Transforms: []Transform{repoToCat, catToPkg},
	}

	pipelines, err := p.Plan([]Sink{sinkA, sinkB})
	require.NoError(t, err)
	require.Len(t, pipelines, 1)

	rep := &captureReporter{}
	err = RunPipeline(pipelines[0], rep, "repo")
	require.NoError(t, err)

	assert.Equal(t, 1, sinkA.fed)
	assert.Equal(t, 1, sinkB.fed)
}

func TestPlanReturnsConfigurationErrorWhenUnreachable(t *testing.T) {
	src := &fakeSource{name: "repo", ft: feed.Repo, scope: feed.RepositoryScope, cost: 10}
	sinkA := &fakeSink{name: "a", ft: feed.Version, minScope: feed.VersionScope}

	p := &Planner{Sources: []Source{src}}
	_, err := p.Plan([]Sink{sinkA})
	assert.Error(t, err)
}

func TestPlanPrefersCheaperOfTwoEquivalentSources(t *testing.T) {
	cheap := &fakeSource{name: "cheap", ft: feed.Category, scope: feed.CategoryScope, cost: 1}
	expensive := &fakeSource{name: "expensive", ft: feed.Category, scope: feed.CategoryScope, cost: 100}
	sinkA := &fakeSink{name: "a", ft: feed.Category, minScope: feed.CategoryScope}

	p := &Planner{Sources: []Source{cheap, expensive}}
	pipelines, err := p.Plan([]Sink{sinkA})
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	assert.Equal(t, "cheap", pipelines[0].Source.Name())
}

func TestPlanFallsBackToMultiplePipelines(t *testing.T) {
	catSrc := &fakeSource{name: "cat-src", ft: feed.Category, scope: feed.CategoryScope, cost: 1}
	verSrc := &fakeSource{name: "ver-src", ft: feed.Version, scope: feed.VersionScope, cost: 1}

	sinkCat := &fakeSink{name: "cat-check", ft: feed.Category, minScope: feed.CategoryScope}
	sinkVer := &fakeSink{name: "ver-check", ft: feed.Version, minScope: feed.VersionScope}

	p := &Planner{Sources: []Source{catSrc, verSrc}}
	pipelines, err := p.Plan([]Sink{sinkCat, sinkVer})
	require.NoError(t, err)
	assert.Len(t, pipelines, 2)
}

type captureReporter struct {
	results []*result.Result
}

func (c *captureReporter) ProcessReport(r *result.Result) error {
	c.results = append(c.results, r)
	return nil
}
