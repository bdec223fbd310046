package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/internal/dedup"
	"github.com/pkgqa/pkgqa/internal/obstelemetry"
	"github.com/pkgqa/pkgqa/pkgerr"
	"github.com/pkgqa/pkgqa/reporter"
	"github.com/pkgqa/pkgqa/result"
)

// runtime is the state every CheckRunner node in a single plan shares:
// the MetadataError dedup set, whether non-metadata errors are fatal,
// and the logger they report through. It is built once per run and
// threaded through every node the planner builds (spec §4.2).
type runtime struct {
	dedup dedup.Store
	debug bool
	log   *logrus.Logger
}

// newRuntime builds the shared state for one check run. debug controls
// whether a non-MetadataError returned by a child Stage aborts the run
// (debug) or is logged and the child is skipped for the rest of the
// item (normal operation), matching spec §7's "errors surfaced, never
// silently discarded".
func newRuntime(store dedup.Store, debug bool, log *logrus.Logger) *runtime {
	if store == nil {
		store = dedup.NewMemoryStore()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &runtime{dedup: store, debug: debug, log: log}
}

// CheckRunner fans an Item out to every child Stage at one node of the
// plan tree: bare sinks and transform-wrapped sub-runners alike. A
// child's failure is isolated from its siblings unless it is an
// InvariantViolation, which is always fatal and repropagated.
type CheckRunner struct {
	rt       *runtime
	children []Stage
}

func newCheckRunner(rt *runtime, children ...Stage) *CheckRunner {
	return &CheckRunner{rt: rt, children: children}
}

func (c *CheckRunner) Start(r Reporter) error {
	for _, ch := range c.children {
		c.startChild(ch, r)
	}
	return nil
}

// startChild runs one child's Start, classifying whatever comes back
// exactly as feedChild does: an InvariantViolation panic always
// repropagates, a MetadataError becomes a deduplicated result, and any
// other error is isolated so sibling children still start (spec §4.2).
func (c *CheckRunner) startChild(ch Stage, r Reporter) {
	defer func() {
		if rec := recover(); rec != nil {
			if iv, ok := rec.(*pkgerr.InvariantViolation); ok {
				panic(iv)
			}
			c.handleError(fmt.Errorf("check stage panic: %v", rec), r)
		}
	}()

	err := ch.Start(r)
	if err == nil {
		return
	}
	c.handleError(err, r)
}

func (c *CheckRunner) Finish(r Reporter) error {
	var first error
	for _, ch := range c.children {
		if err := ch.Finish(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *CheckRunner) Feed(item Item, r Reporter) error {
	for _, ch := range c.children {
		c.feedChild(ch, item, r)
	}
	return nil
}

// feedChild runs one child's Feed, classifying whatever comes back.
// InvariantViolation panics are never swallowed: they indicate the
// plan itself is broken and the whole run must stop.
func (c *CheckRunner) feedChild(ch Stage, item Item, r Reporter) {
	defer func() {
		if rec := recover(); rec != nil {
			if iv, ok := rec.(*pkgerr.InvariantViolation); ok {
				panic(iv)
			}
			c.handleError(fmt.Errorf("check stage panic: %v", rec), r)
		}
	}()

	err := ch.Feed(item, r)
	if err == nil {
		return
	}
	c.handleError(err, r)
}

func (c *CheckRunner) handleError(err error, r Reporter) {
	if me, ok := err.(*pkgerr.MetadataError); ok {
		if c.rt.dedup.Seen(me.PackageIdentity(), me.Identity()) {
			return
		}
		res, buildErr := result.New("metadata-error", result.Error, feed.Version, result.Coordinate{
			Category: me.Category,
			Package:  me.Package,
			Version:  me.Version,
		}, me.Error(), "", map[string]any{"attr": me.Attr})
		if buildErr != nil {
			pkgerr.Raise("runner: could not build metadata-error result: %v", buildErr)
		}
		if repErr := r.ProcessReport(res); repErr != nil {
			c.rt.log.WithError(repErr).Warn("reporter rejected metadata-error result")
		}
		return
	}

	c.rt.log.WithError(err).Warn("check stage error")
	if c.rt.debug {
		pkgerr.Raise("stage error in debug mode: %v", err)
	}
}

// instrumentedSink wraps a Sink with an obstelemetry span and enforces
// that it only ever reports result kinds it has declared up front
// (spec §4.2's "known_results" invariant).
type instrumentedSink struct {
	sink  Sink
	hooks *obstelemetry.Hooks
	known map[string]bool
}

func wrapSink(s Sink) Stage {
	known := make(map[string]bool, len(s.KnownResults()))
	for _, k := range s.KnownResults() {
		known[k] = true
	}
	return &instrumentedSink{sink: s, hooks: obstelemetry.New(s.Name(), "sink"), known: known}
}

func (w *instrumentedSink) Start(r Reporter) error {
	return w.sink.Start(&validatingReporter{Reporter: r, known: w.known, sinkName: w.sink.Name()})
}

func (w *instrumentedSink) Finish(r Reporter) error {
	return w.sink.Finish(&validatingReporter{Reporter: r, known: w.known, sinkName: w.sink.Name()})
}

func (w *instrumentedSink) Feed(item Item, r Reporter) error {
	vr := &validatingReporter{Reporter: r, known: w.known, sinkName: w.sink.Name()}
	return w.hooks.Observe(context.Background(), func(ctx context.Context) error {
		return w.sink.Feed(item, vr)
	})
}

// validatingReporter rejects, fatally, any result kind its sink did
// not declare in KnownResults.
type validatingReporter struct {
	Reporter
	known    map[string]bool
	sinkName string
}

func (v *validatingReporter) ProcessReport(res *result.Result) error {
	if !v.known[res.Kind] {
		pkgerr.Raise("sink %s emitted undeclared result kind %q", v.sinkName, res.Kind)
	}
	return v.Reporter.ProcessReport(res)
}

// instrumentedTransform wraps a Transform's child Stage with an
// obstelemetry span per fed item.
type instrumentedTransform struct {
	inner Stage
	hooks *obstelemetry.Hooks
}

func wrapTransform(t Transform, child Stage) Stage {
	return &instrumentedTransform{inner: t.Wrap(child), hooks: obstelemetry.New(t.Name(), "transform")}
}

func (w *instrumentedTransform) Start(r Reporter) error  { return w.inner.Start(r) }
func (w *instrumentedTransform) Finish(r Reporter) error { return w.inner.Finish(r) }

func (w *instrumentedTransform) Feed(item Item, r Reporter) error {
	return w.hooks.Observe(context.Background(), func(ctx context.Context) error {
		return w.inner.Feed(item, r)
	})
}

// FullReporter is satisfied by a Reporter that also brackets a whole
// run with the check roster and selection criterion (spec §4.5's
// start_check/end_check). RunPipeline type-asserts for it so a bare
// engine.Reporter double can still drive a pipeline without it.
type FullReporter interface {
	StartCheck(checks []reporter.CheckInfo, criterion string) error
	EndCheck() error
}

// RunPipeline drives every item a Pipeline's Source produces through
// its Stage tree, calling Start before the first item and Finish after
// the last regardless of mid-run errors, per spec §4.2 ("Finish is
// always called, run-level errors are never swallowed"). criterion is
// the selection expression (repository plus any atoms) the run was
// scoped to; when r implements FullReporter, the run is bracketed with
// StartCheck/EndCheck naming every Sink in the pipeline (spec §4.5/§6).
func RunPipeline(p *Pipeline, r Reporter, criterion string) error {
	it, err := p.Source.Produce()
	if err != nil {
		return err
	}

	fr, hasFullReporter := r.(FullReporter)
	if hasFullReporter {
		if err := fr.StartCheck(checkInfos(p.Sinks), criterion); err != nil {
			return err
		}
	}

	if err := p.Root.Start(r); err != nil {
		return err
	}

	var runErr error
	for {
		item, ok, err := it.Next()
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			break
		}
		if err := p.Root.Feed(item, r); err != nil {
			runErr = err
			break
		}
	}

	if err := p.Root.Finish(r); err != nil && runErr == nil {
		runErr = err
	}

	if hasFullReporter {
		if err := fr.EndCheck(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// checkInfos builds the StreamHeader-ready roster of a pipeline's
// sinks: every Sink's name and the result kinds it may emit.
func checkInfos(sinks []Sink) []reporter.CheckInfo {
	infos := make([]reporter.CheckInfo, len(sinks))
	for i, s := range sinks {
		infos[i] = reporter.CheckInfo{Name: s.Name(), KnownResults: s.KnownResults()}
	}
	return infos
}
