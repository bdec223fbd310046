// Package reporter implements the output side of a check run: the
// Reporter contract (start/per-check bracketing/process/finish),
// keyword filtering, verbosity stamping, and the concrete output
// formats spec §4.5 names.
package reporter

import (
	"sync"

	"github.com/pkgqa/pkgqa/result"
)

// CheckInfo describes one check participating in a run: enough for a
// reporter to build a PickleStream-style header (spec §4.5/§6) naming
// the checks in play and the result kinds they may emit.
type CheckInfo struct {
	Name         string
	KnownResults []string
}

// Reporter is the full lifecycle contract a configured output
// destination implements. ProcessReport alone is what a Stage sees
// (engine.Reporter); the richer methods bracket a whole run.
//
// StartCheck is called once per run with the full check roster and
// the selection criterion (the repository/atom expression the run was
// scoped to) before any result is processed; EndCheck closes that
// bracket. Most reporters ignore the roster — only the pickle-stream
// sinks frame their output with it (spec §4.5's start_check/end_check,
// §6's StreamHeader).
type Reporter interface {
	Start() error
	StartCheck(checks []CheckInfo, criterion string) error
	ProcessReport(r *result.Result) error
	EndCheck() error
	Finish() error
}

// Sink is what a concrete format writes a single filtered, stamped
// Result to. Formats differ only in how they render/ship a Result;
// the keyword filter and verbosity stamping are shared.
type Sink interface {
	Write(r *result.Result) error
	Close() error
}

// HeaderSink is implemented by Sinks that frame their output with a
// StreamHeader before any result — the pickle-stream sinks. Filtered
// forwards StartCheck to it when the wrapped Sink satisfies it.
type HeaderSink interface {
	WriteHeader(h StreamHeader) error
}

// Filtered wraps a Sink with a keyword allow-list (empty means "all
// kinds allowed") and stamps Verbosity on every Result before it
// reaches the Sink (spec §4.5).
type Filtered struct {
	sink      Sink
	verbosity int
	keywords  map[string]bool

	mu sync.Mutex
}

// New builds a Filtered reporter. keywords, if non-empty, restricts
// ProcessReport to only the named result kinds.
func New(sink Sink, verbosity int, keywords []string) *Filtered {
	var kw map[string]bool
	if len(keywords) > 0 {
		kw = make(map[string]bool, len(keywords))
		for _, k := range keywords {
			kw[k] = true
		}
	}
	return &Filtered{sink: sink, verbosity: verbosity, keywords: kw}
}

func (f *Filtered) Start() error { return nil }

// StartCheck forwards the run's check roster and criterion to the
// wrapped Sink's StreamHeader when it is a HeaderSink; every other
// Sink ignores it.
func (f *Filtered) StartCheck(checks []CheckInfo, criterion string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hs, ok := f.sink.(HeaderSink); ok {
		return hs.WriteHeader(NewStreamHeader(checks, criterion))
	}
	return nil
}

func (f *Filtered) EndCheck() error { return nil }

func (f *Filtered) ProcessReport(r *result.Result) error {
	if f.keywords != nil && !f.keywords[r.Kind] {
		return nil
	}
	r.Verbosity = f.verbosity
	return f.sink.Write(r)
}

func (f *Filtered) Finish() error { return f.sink.Close() }

// Multiplex fans every call out to several Reporters, returning the
// first error encountered but still calling every destination (so one
// broken reporter never silently suppresses the others).
type Multiplex struct {
	Reporters []Reporter
}

func (m Multiplex) Start() error { return m.each(func(r Reporter) error { return r.Start() }) }

func (m Multiplex) StartCheck(checks []CheckInfo, criterion string) error {
	return m.each(func(r Reporter) error { return r.StartCheck(checks, criterion) })
}

func (m Multiplex) ProcessReport(res *result.Result) error {
	return m.each(func(r Reporter) error { return r.ProcessReport(res) })
}

func (m Multiplex) EndCheck() error {
	return m.each(func(r Reporter) error { return r.EndCheck() })
}

func (m Multiplex) Finish() error { return m.each(func(r Reporter) error { return r.Finish() }) }

func (m Multiplex) each(fn func(Reporter) error) error {
	var first error
	for _, r := range m.Reporters {
		if err := fn(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Null discards every result; used for dry runs and benchmarking.
type Null struct{}

func (Null) Start() error                         { return nil }
func (Null) StartCheck([]CheckInfo, string) error { return nil }
func (Null) ProcessReport(*result.Result) error   { return nil }
func (Null) EndCheck() error                      { return nil }
func (Null) Finish() error                        { return nil }
