package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
)

func TestUnstableOnlyFlagsAllUnstableArch(t *testing.T) {
	pkgset := []*Recipe{
		{Category: "dev-lang", Package: "go", Version: "1.20", Keywords: []string{"~amd64"}},
		{Category: "dev-lang", Package: "go", Version: "1.21", Keywords: []string{"~amd64"}},
	}

	rep := &recordingReporter{}
	c := NewUnstableOnly([]string{"amd64"})
	err := c.Feed(engine.Item{Feed: feed.Package, Payload: pkgset}, rep)
	require.NoError(t, err)

	require.Len(t, rep.results, 1)
	assert.Equal(t, "dev-lang", rep.results[0].Coordinate.Category)
	assert.Equal(t, "go", rep.results[0].Coordinate.Package)
	assert.Equal(t, []string{"amd64"}, rep.results[0].Attrs["arches"])
	assert.Equal(t, []string{"1.20", "1.21"}, rep.results[0].Attrs["versions"])
}

func TestUnstableOnlySkipsArchWithAnyStableVersion(t *testing.T) {
	pkgset := []*Recipe{
		{Category: "dev-lang", Package: "go", Version: "1.20", Keywords: []string{"~amd64"}},
		{Category: "dev-lang", Package: "go", Version: "1.21", Keywords: []string{"amd64"}},
	}

	rep := &recordingReporter{}
	c := NewUnstableOnly([]string{"amd64"})
	err := c.Feed(engine.Item{Feed: feed.Package, Payload: pkgset}, rep)
	require.NoError(t, err)
	assert.Empty(t, rep.results)
}

func TestUnstableOnlyGroupsArchesWithIdenticalVersionSets(t *testing.T) {
	pkgset := []*Recipe{
		{Category: "dev-lang", Package: "go", Version: "1.20", Keywords: []string{"~amd64", "~arm64"}},
	}

	rep := &recordingReporter{}
	c := NewUnstableOnly([]string{"amd64", "arm64"})
	err := c.Feed(engine.Item{Feed: feed.Package, Payload: pkgset}, rep)
	require.NoError(t, err)

	require.Len(t, rep.results, 1)
	assert.Equal(t, []string{"amd64", "arm64"}, rep.results[0].Attrs["arches"])
}

func TestUnstableOnlyNoUnstableCoverageIsNoop(t *testing.T) {
	pkgset := []*Recipe{
		{Category: "dev-lang", Package: "go", Version: "1.20", Keywords: []string{"ppc64"}},
	}

	rep := &recordingReporter{}
	c := NewUnstableOnly([]string{"amd64"})
	err := c.Feed(engine.Item{Feed: feed.Package, Payload: pkgset}, rep)
	require.NoError(t, err)
	assert.Empty(t, rep.results)
}
