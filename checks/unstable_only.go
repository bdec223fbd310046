package checks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

// UnstableOnly flags packages where, for one or more configured stable
// architectures, every version is keyworded only unstable (~arch) and
// none is keyworded stable. Grounded on unstable_only.py's
// UnstableOnlyReport: per arch, skip if any version is stable there,
// else collect the versions keyworded ~arch, and group arches by the
// exact tuple of versions they share so one result covers every arch
// with identical unstable-only coverage.
type UnstableOnly struct {
	stableArches []string
}

// NewUnstableOnly builds the check against a configured stable-arch
// list (tildes stripped, matching how the original normalizes
// options.stable_arches).
func NewUnstableOnly(stableArches []string) *UnstableOnly {
	arches := make([]string, 0, len(stableArches))
	for _, a := range stableArches {
		arches = append(arches, strings.TrimPrefix(strings.TrimSpace(a), "~"))
	}
	return &UnstableOnly{stableArches: arches}
}

func (c *UnstableOnly) Name() string            { return "unstable-only" }
func (c *UnstableOnly) FeedType() feed.Type      { return feed.Package }
func (c *UnstableOnly) MinScope() feed.Scope     { return feed.PackageScope }
func (c *UnstableOnly) Priority() int            { return 0 }
func (c *UnstableOnly) RequiredAddons() []string { return []string{"stable-arches"} }
func (c *UnstableOnly) KnownResults() []string   { return []string{"unstable-only"} }

func (c *UnstableOnly) Start(r engine.Reporter) error  { return nil }
func (c *UnstableOnly) Finish(r engine.Reporter) error { return nil }

func hasKeyword(keywords []string, kw string) bool {
	for _, k := range keywords {
		if k == kw {
			return true
		}
	}
	return false
}

func versionGroupKey(pkgs []*Recipe) string {
	parts := make([]string, len(pkgs))
	for i, p := range pkgs {
		parts[i] = p.Version
	}
	return strings.Join(parts, "\x00")
}

func (c *UnstableOnly) Feed(item engine.Item, r engine.Reporter) error {
	pkgset, ok := item.Payload.([]*Recipe)
	if !ok || len(pkgset) == 0 {
		return nil
	}

	groups := map[string][]*Recipe{}
	archesByGroup := map[string][]string{}
	var order []string

	for _, arch := range c.stableArches {
		stableFound := false
		for _, pkg := range pkgset {
			if hasKeyword(pkg.Keywords, arch) {
				stableFound = true
				break
			}
		}
		if stableFound {
			continue
		}

		var unstable []*Recipe
		for _, pkg := range pkgset {
			if hasKeyword(pkg.Keywords, "~"+arch) {
				unstable = append(unstable, pkg)
			}
		}
		if len(unstable) == 0 {
			continue
		}

		key := versionGroupKey(unstable)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			groups[key] = unstable
		}
		archesByGroup[key] = append(archesByGroup[key], arch)
	}

	// The original iterates a set of arches, an unordered collection;
	// we sort group keys for deterministic, reproducible output.
	sort.Strings(order)

	for _, key := range order {
		pkgs := groups[key]
		arches := archesByGroup[key]
		sort.Strings(arches)

		versions := make([]string, 0, len(pkgs))
		for _, p := range pkgs {
			versions = append(versions, p.Version)
		}

		res, err := result.New(
			"unstable-only",
			result.Warning,
			feed.Package,
			result.Coordinate{Category: pkgs[0].Category, Package: pkgs[0].Package},
			fmt.Sprintf("for arch%s: [ %s ], all versions are unstable: [ %s ]",
				pluralSuffix(len(arches), "es"), strings.Join(arches, ", "), strings.Join(versions, ", ")),
			"",
			map[string]any{"arches": arches, "versions": versions},
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
