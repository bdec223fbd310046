// Package engine implements the check pipeline: the typed item model,
// the Source/Transform/Sink plugin contracts, the CheckRunner that
// drives items through a built pipeline, and the Reporter consumer
// interface those pieces report through.
package engine

import (
	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

// Item is an untyped payload tagged by feed-type; the tag determines
// the payload's concrete shape (spec §3).
type Item struct {
	Feed    feed.Type
	Payload any
}

// Iterator is a lazy, finite sequence of Items produced by a Source.
type Iterator interface {
	// Next returns the next item. ok is false once the sequence is
	// exhausted; err is non-nil on an unrecoverable read failure.
	Next() (item Item, ok bool, err error)
}

// Reporter is the minimal consumer interface a Stage reports findings
// through. The richer reporter.Reporter (Start/StartCheck/EndCheck/
// Finish/keyword-filter/verbosity) satisfies this by definition.
type Reporter interface {
	ProcessReport(r *result.Result) error
}

// Stage is the common shape shared by a bare Sink and by a Transform
// wrapped around one: something that can be started, fed items, and
// finished.
type Stage interface {
	Start(r Reporter) error
	Feed(item Item, r Reporter) error
	Finish(r Reporter) error
}

// Source produces items of a single feed-type at a declared scope and
// advertised cost.
type Source interface {
	Name() string
	FeedType() feed.Type
	Scope() feed.Scope
	Cost() int
	Produce() (Iterator, error)
}

// Transform converts items of one feed-type into items of another, at
// or above a minimum scope, advertising a cost. It must fully consume
// input items it accepts and may emit zero or more output items per
// input; it is pure with respect to the item stream.
type Transform interface {
	Name() string
	SourceFeed() feed.Type
	DestFeed() feed.Type
	MinScope() feed.Scope
	Cost() int
	// Wrap returns a Stage that applies this transform to each fed
	// item, forwarding converted items to child.
	Wrap(child Stage) Stage
}

// Sink (Check) consumes items of one feed-type at a minimum scope and
// may emit Results.
type Sink interface {
	Stage
	Name() string
	FeedType() feed.Type
	MinScope() feed.Scope
	// Priority orders sinks sharing a pipeline; lower runs first.
	Priority() int
	RequiredAddons() []string
	KnownResults() []string
}
