package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/filter"
)

// collectStage records every Item fed to it; used as the terminal
// child of a Transform.Wrap chain under test.
type collectStage struct {
	items []engine.Item
}

func (c *collectStage) Start(engine.Reporter) error  { return nil }
func (c *collectStage) Finish(engine.Reporter) error { return nil }
func (c *collectStage) Feed(item engine.Item, r engine.Reporter) error {
	c.items = append(c.items, item)
	return nil
}

func writeRecipe(t *testing.T, dir, version string, slot string, keywords []string, live bool) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "slot: " + slot + "\nlive: " + boolYAML(live) + "\nkeywords:\n"
	for _, k := range keywords {
		body += "  - " + k + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, version+".yaml"), []byte(body), 0o644))
}

func boolYAML(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// buildTree lays out:
//
//	root/dev-lang/go/1.20.yaml
//	root/dev-lang/go/1.21.yaml
//	root/dev-python/numpy/1.0.yaml
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRecipe(t, filepath.Join(root, "dev-lang", "go"), "1.20", "0", []string{"amd64"}, false)
	writeRecipe(t, filepath.Join(root, "dev-lang", "go"), "1.21", "0", []string{"amd64", "arm64"}, false)
	writeRecipe(t, filepath.Join(root, "dev-python", "numpy"), "1.0", "0", []string{"amd64"}, false)
	return root
}

func TestSourceProducesOneRepoHandle(t *testing.T) {
	root := buildTree(t)
	src := NewSource(root, 10)

	it, err := src.Produce()
	require.NoError(t, err)

	item, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	h, ok := item.Payload.(*Handle)
	require.True(t, ok)
	assert.Equal(t, root, h.Root)

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSourceRejectsMissingRoot(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "does-not-exist"), 10)
	_, err := src.Produce()
	assert.Error(t, err)
}

func TestRepoToCategoryListsSortedCategories(t *testing.T) {
	root := buildTree(t)
	collect := &collectStage{}
	stage := (&RepoToCategory{}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Repo, Payload: &Handle{Root: root}}, nil))
	require.Len(t, collect.items, 2)

	first := collect.items[0].Payload.(*Category)
	second := collect.items[1].Payload.(*Category)
	assert.Equal(t, "dev-lang", first.Name)
	assert.Equal(t, "dev-python", second.Name)
}

func TestCategoryToPackageReadsRecipesInOrder(t *testing.T) {
	root := buildTree(t)
	collect := &collectStage{}
	stage := (&CategoryToPackage{}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Category, Payload: &Category{Root: root, Name: "dev-lang"}}, nil))
	require.Len(t, collect.items, 1)

	recipes := collect.items[0].Payload.([]*checks.Recipe)
	require.Len(t, recipes, 2)
	assert.Equal(t, "1.20", recipes[0].Version)
	assert.Equal(t, "1.21", recipes[1].Version)
	assert.Equal(t, []string{"amd64", "arm64"}, recipes[1].Keywords)
}

func TestCategoryToPackagePrunesFilteredPackages(t *testing.T) {
	root := buildTree(t)
	composite, err := filter.Compile(nil, []string{"dev-lang/go"}, "")
	require.NoError(t, err)

	collect := &collectStage{}
	stage := (&CategoryToPackage{Filter: composite}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Category, Payload: &Category{Root: root, Name: "dev-lang"}}, nil))
	assert.Empty(t, collect.items, "go should have been excluded by the blacklist")
}

func TestCategoryToPackagePrunesWholeCategory(t *testing.T) {
	root := buildTree(t)
	composite, err := filter.Compile([]string{"dev-python"}, nil, "")
	require.NoError(t, err)

	collect := &collectStage{}
	stage := (&CategoryToPackage{Filter: composite}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Category, Payload: &Category{Root: root, Name: "dev-lang"}}, nil))
	assert.Empty(t, collect.items)
}

func TestPackageToVersionSplitsEachRecipe(t *testing.T) {
	recipes := []*checks.Recipe{
		{Category: "dev-lang", Package: "go", Version: "1.20"},
		{Category: "dev-lang", Package: "go", Version: "1.21"},
	}
	collect := &collectStage{}
	stage := (&PackageToVersion{}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Package, Payload: recipes}, nil))
	require.Len(t, collect.items, 2)
	assert.Equal(t, recipes[0], collect.items[0].Payload)
	assert.Equal(t, recipes[1], collect.items[1].Payload)
}

func TestVersionToTextReadsSourceLines(t *testing.T) {
	root := buildTree(t)
	rec := &checks.Recipe{Category: "dev-lang", Package: "go", Version: "1.20"}
	collect := &collectStage{}
	stage := (&VersionToText{Root: root}).Wrap(collect)

	require.NoError(t, stage.Feed(engine.Item{Feed: feed.Version, Payload: rec}, nil))
	require.Len(t, collect.items, 1)

	vt := collect.items[0].Payload.(*VersionText)
	assert.Same(t, rec, vt.Recipe)
	assert.Contains(t, vt.Text, "slot: 0")
}

func TestVersionToTextMissingFileIsMetadataError(t *testing.T) {
	root := t.TempDir()
	rec := &checks.Recipe{Category: "dev-lang", Package: "go", Version: "9999"}
	collect := &collectStage{}
	stage := (&VersionToText{Root: root}).Wrap(collect)

	err := stage.Feed(engine.Item{Feed: feed.Version, Payload: rec}, nil)
	assert.Error(t, err)
}

func TestStandardTransformsReturnsFourStagesInOrder(t *testing.T) {
	root := buildTree(t)
	transforms := StandardTransforms(root, nil)
	require.Len(t, transforms, 4)
	assert.Equal(t, feed.Repo, transforms[0].SourceFeed())
	assert.Equal(t, feed.VersionText, transforms[3].DestFeed())
}
