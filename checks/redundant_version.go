package checks

import (
	"fmt"
	"strings"

	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

// RedundantVersion scans a package's versions for ones whose keywords
// are a subset of a later version's in the same slot, meaning the
// earlier version's stable/unstable coverage adds nothing the later
// one doesn't already provide. Grounded on cleanup.py's
// RedundantVersionReport: walk versions highest to lowest, maintaining
// a stack of (version, keyword-set) pairs seen so far, flagging a
// version whenever some later, same-slot entry's keyword set already
// covers its own.
type RedundantVersion struct{}

func NewRedundantVersion() *RedundantVersion { return &RedundantVersion{} }

func (c *RedundantVersion) Name() string            { return "redundant-version" }
func (c *RedundantVersion) FeedType() feed.Type      { return feed.Package }
func (c *RedundantVersion) MinScope() feed.Scope     { return feed.PackageScope }
func (c *RedundantVersion) Priority() int            { return 0 }
func (c *RedundantVersion) RequiredAddons() []string { return nil }
func (c *RedundantVersion) KnownResults() []string   { return []string{"redundant-version"} }

func (c *RedundantVersion) Start(r engine.Reporter) error  { return nil }
func (c *RedundantVersion) Finish(r engine.Reporter) error { return nil }

type stackEntry struct {
	recipe *Recipe
	keys   map[string]bool
}

type redundantEntry struct {
	recipe  *Recipe
	matches []*Recipe
}

func (c *RedundantVersion) Feed(item engine.Item, r engine.Reporter) error {
	pkgset, ok := item.Payload.([]*Recipe)
	if !ok || len(pkgset) <= 1 {
		return nil
	}

	var stack []stackEntry
	var bad []redundantEntry

	for i := len(pkgset) - 1; i >= 0; i-- {
		pkg := pkgset[i]
		if pkg.Live {
			continue
		}

		curr := map[string]bool{}
		for _, kw := range pkg.Keywords {
			if !strings.HasPrefix(kw, "-") {
				curr[kw] = true
			}
		}
		if len(curr) == 0 {
			continue
		}

		var matches []*Recipe
		for _, e := range stack {
			if e.recipe.Slot != pkg.Slot {
				continue
			}
			subset := true
			for k := range curr {
				if !e.keys[k] {
					subset = false
					break
				}
			}
			if subset {
				matches = append(matches, e.recipe)
			}
		}

		// Inject the stable-keyword's unstable counterpart: an earlier
		// version whose coverage is only the unstable flag is redundant
		// once a later version carries it stably too.
		for k := range curr {
			if !strings.HasPrefix(k, "~") {
				curr["~"+k] = true
			}
		}

		stack = append(stack, stackEntry{recipe: pkg, keys: curr})
		if len(matches) > 0 {
			bad = append(bad, redundantEntry{recipe: pkg, matches: matches})
		}
	}

	for i := len(bad) - 1; i >= 0; i-- {
		b := bad[i]
		laterVersions := make([]string, 0, len(b.matches))
		for _, m := range b.matches {
			laterVersions = append(laterVersions, m.Version)
		}
		res, err := result.New(
			"redundant-version",
			result.Warning,
			feed.Version,
			result.Coordinate{Category: b.recipe.Category, Package: b.recipe.Package, Version: b.recipe.Version},
			fmt.Sprintf("slot(%s) keywords are overshadowed by version%s: %s",
				b.recipe.Slot, pluralSuffix(len(laterVersions), "s"), strings.Join(laterVersions, ", ")),
			"",
			map[string]any{"slot": b.recipe.Slot, "later_versions": laterVersions},
		)
		if err != nil {
			return err
		}
		if err := r.ProcessReport(res); err != nil {
			return err
		}
	}
	return nil
}
