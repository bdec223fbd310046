// Package repository implements the filesystem Source and the chain
// of Transforms that narrow a repository down to individual recipes:
// Repo -> Category -> Package -> Version -> VersionText. Recipes are
// read from a directory tree of
// <root>/<category>/<package>/<version>.yaml files, the on-disk model
// this engine targets in place of the original's portage-tree reader
// (grounded on original_source's pkgcore-backed repository walk for
// the semantics, expressed with the ecosystem's own YAML/filesystem
// idioms since no example repo ships a portage-tree parser).
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/filter"
	"github.com/pkgqa/pkgqa/pkgerr"
)

// recipeFile is the on-disk shape of one <version>.yaml.
type recipeFile struct {
	Slot     string   `yaml:"slot"`
	Keywords []string `yaml:"keywords"`
	Live     bool     `yaml:"live"`
}

// Handle is the Repo feed-type payload: a resolved repository root
// ready to be walked.
type Handle struct {
	Root string
}

// Category is the Category feed-type payload: a category name and its
// package directories, discovered but not yet read.
type Category struct {
	Root string
	Name string
}

// VersionText pairs a recipe with the raw source lines its
// VersionText Transform promises (spec §3).
type VersionText struct {
	Recipe *checks.Recipe
	Text   []string
}

// Source is the filesystem repository Source: one Repo item per run.
type Source struct {
	Root string
	Cost_ int
}

func NewSource(root string, cost int) *Source {
	if cost <= 0 {
		cost = 100
	}
	return &Source{Root: root, Cost_: cost}
}

func (s *Source) Name() string         { return "fs-repo:" + s.Root }
func (s *Source) FeedType() feed.Type  { return feed.Repo }
func (s *Source) Scope() feed.Scope    { return feed.RepositoryScope }
func (s *Source) Cost() int            { return s.Cost_ }

func (s *Source) Produce() (engine.Iterator, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, &pkgerr.ConfigurationError{Message: fmt.Sprintf("repository root %q", s.Root), Err: err}
	}
	if !info.IsDir() {
		return nil, &pkgerr.ConfigurationError{Message: fmt.Sprintf("repository root %q is not a directory", s.Root)}
	}
	return &singleItem{item: engine.Item{Feed: feed.Repo, Payload: &Handle{Root: s.Root}}}, nil
}

// singleItem is an Iterator yielding exactly one Item, used by Source
// implementations whose entire feed is one handle.
type singleItem struct {
	item engine.Item
	done bool
}

func (s *singleItem) Next() (engine.Item, bool, error) {
	if s.done {
		return engine.Item{}, false, nil
	}
	s.done = true
	return s.item, true, nil
}

// forwardingStage buffers converted items from a single Feed call and
// pushes each one through to child, the shape every Transform.Wrap in
// this package shares.
type forwardingStage struct {
	convert func(item engine.Item) ([]engine.Item, error)
	child   engine.Stage
}

func (f *forwardingStage) Start(r engine.Reporter) error  { return f.child.Start(r) }
func (f *forwardingStage) Finish(r engine.Reporter) error { return f.child.Finish(r) }

func (f *forwardingStage) Feed(item engine.Item, r engine.Reporter) error {
	out, err := f.convert(item)
	if err != nil {
		return err
	}
	for _, o := range out {
		if err := f.child.Feed(o, r); err != nil {
			return err
		}
	}
	return nil
}

// RepoToCategory lists the category directories under a repository
// root. It requires repository-wide visibility, since the set of
// categories is only known once the whole root has been listed.
type RepoToCategory struct{ Cost_ int }

func (t *RepoToCategory) Name() string         { return "repo-to-category" }
func (t *RepoToCategory) SourceFeed() feed.Type { return feed.Repo }
func (t *RepoToCategory) DestFeed() feed.Type   { return feed.Category }
func (t *RepoToCategory) MinScope() feed.Scope  { return feed.RepositoryScope }
func (t *RepoToCategory) Cost() int             { return t.Cost_ }

func (t *RepoToCategory) Wrap(child engine.Stage) engine.Stage {
	return &forwardingStage{child: child, convert: func(item engine.Item) ([]engine.Item, error) {
		h, ok := item.Payload.(*Handle)
		if !ok {
			pkgerr.Raise("repo-to-category: unexpected payload %T", item.Payload)
		}
		entries, err := os.ReadDir(h.Root)
		if err != nil {
			return nil, err
		}
		var out []engine.Item
		var names []string
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, engine.Item{Feed: feed.Category, Payload: &Category{Root: h.Root, Name: name}})
		}
		return out, nil
	}}
}

// CategoryToPackage lists the package directories under one category
// and reads every recipe file within each, producing one Package item
// (an ordered recipe slice) per package. Filter, if set, drops
// packages the selection layer excludes before any recipe is read.
type CategoryToPackage struct {
	Cost_  int
	Filter *filter.Composite
}

func (t *CategoryToPackage) Name() string         { return "category-to-package" }
func (t *CategoryToPackage) SourceFeed() feed.Type { return feed.Category }
func (t *CategoryToPackage) DestFeed() feed.Type   { return feed.Package }
func (t *CategoryToPackage) MinScope() feed.Scope  { return feed.CategoryScope }
func (t *CategoryToPackage) Cost() int             { return t.Cost_ }

func (t *CategoryToPackage) Wrap(child engine.Stage) engine.Stage {
	return &forwardingStage{child: child, convert: func(item engine.Item) ([]engine.Item, error) {
		cat, ok := item.Payload.(*Category)
		if !ok {
			pkgerr.Raise("category-to-package: unexpected payload %T", item.Payload)
		}
		if t.Filter != nil && !t.Filter.Blacklist.Match(cat.Name, "") {
			return nil, nil
		}
		catDir := filepath.Join(cat.Root, cat.Name)
		entries, err := os.ReadDir(catDir)
		if err != nil {
			return nil, err
		}
		var pkgNames []string
		for _, e := range entries {
			if e.IsDir() {
				pkgNames = append(pkgNames, e.Name())
			}
		}
		sort.Strings(pkgNames)

		var out []engine.Item
		for _, pkgName := range pkgNames {
			if t.Filter != nil && !t.Filter.Match(cat.Name, pkgName) {
				continue
			}
			recipes, err := readRecipes(cat.Name, pkgName, filepath.Join(catDir, pkgName))
			if err != nil {
				return nil, &pkgerr.MetadataError{Category: cat.Name, Package: pkgName, Attr: "recipes", Err: err}
			}
			if len(recipes) == 0 {
				continue
			}
			out = append(out, engine.Item{Feed: feed.Package, Payload: recipes})
		}
		return out, nil
	}}
}

func readRecipes(category, pkg, dir string) ([]*checks.Recipe, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(versions)

	recipes := make([]*checks.Recipe, 0, len(versions))
	for _, version := range versions {
		path := filepath.Join(dir, version+".yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		var rf recipeFile
		if err := yaml.Unmarshal(raw, &rf); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		recipes = append(recipes, &checks.Recipe{
			Category: category,
			Package:  pkg,
			Version:  version,
			Slot:     rf.Slot,
			Keywords: rf.Keywords,
			Live:     rf.Live,
		})
	}
	return recipes, nil
}

// PackageToVersion splits an ordered recipe slice into individual
// Version items.
type PackageToVersion struct{ Cost_ int }

func (t *PackageToVersion) Name() string         { return "package-to-version" }
func (t *PackageToVersion) SourceFeed() feed.Type { return feed.Package }
func (t *PackageToVersion) DestFeed() feed.Type   { return feed.Version }
func (t *PackageToVersion) MinScope() feed.Scope  { return feed.PackageScope }
func (t *PackageToVersion) Cost() int             { return t.Cost_ }

func (t *PackageToVersion) Wrap(child engine.Stage) engine.Stage {
	return &forwardingStage{child: child, convert: func(item engine.Item) ([]engine.Item, error) {
		recipes, ok := item.Payload.([]*checks.Recipe)
		if !ok {
			pkgerr.Raise("package-to-version: unexpected payload %T", item.Payload)
		}
		out := make([]engine.Item, 0, len(recipes))
		for _, rec := range recipes {
			out = append(out, engine.Item{Feed: feed.Version, Payload: rec})
		}
		return out, nil
	}}
}

// VersionToText reads a single recipe's source file and attaches its
// raw lines.
type VersionToText struct {
	Root  string
	Cost_ int
}

func (t *VersionToText) Name() string         { return "version-to-text" }
func (t *VersionToText) SourceFeed() feed.Type { return feed.Version }
func (t *VersionToText) DestFeed() feed.Type   { return feed.VersionText }
func (t *VersionToText) MinScope() feed.Scope  { return feed.VersionScope }
func (t *VersionToText) Cost() int             { return t.Cost_ }

func (t *VersionToText) Wrap(child engine.Stage) engine.Stage {
	return &forwardingStage{child: child, convert: func(item engine.Item) ([]engine.Item, error) {
		rec, ok := item.Payload.(*checks.Recipe)
		if !ok {
			pkgerr.Raise("version-to-text: unexpected payload %T", item.Payload)
		}
		path := filepath.Join(t.Root, rec.Category, rec.Package, rec.Version+".yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &pkgerr.MetadataError{Category: rec.Category, Package: rec.Package, Version: rec.Version, Attr: "text", Err: err}
		}
		return []engine.Item{{Feed: feed.VersionText, Payload: &VersionText{Recipe: rec, Text: strings.Split(string(raw), "\n")}}}, nil
	}}
}

// StandardTransforms returns the four Repo->Category->Package->
// Version->VersionText transforms wired against root, ready to hand to
// a Planner. f, if non-nil, is applied at the category/package
// boundary to prune what the walk descends into.
func StandardTransforms(root string, f *filter.Composite) []engine.Transform {
	return []engine.Transform{
		&RepoToCategory{Cost_: 5},
		&CategoryToPackage{Cost_: 5, Filter: f},
		&PackageToVersion{Cost_: 1},
		&VersionToText{Root: root, Cost_: 2},
	}
}
