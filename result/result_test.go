package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/feed"
)

func TestNewRequiresCoordinateForThreshold(t *testing.T) {
	_, err := New("kind", Warning, feed.Version, Coordinate{Category: "dev-lang"}, "short", "", nil)
	assert.Error(t, err, "version threshold requires category, package and version")

	r, err := New("kind", Warning, feed.Version, Coordinate{Category: "dev-lang", Package: "go", Version: "1.20"}, "short", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "short", r.Desc())
}

func TestNewRejectsEmptyShortDesc(t *testing.T) {
	_, err := New("kind", Warning, feed.Repo, Coordinate{}, "", "", nil)
	assert.Error(t, err)
}

func TestDescPrefersLongDescWhenVerbose(t *testing.T) {
	r, err := New("kind", Info, feed.Category, Coordinate{Category: "dev-lang"}, "short", "long", nil)
	require.NoError(t, err)

	assert.Equal(t, "short", r.Desc())
	r.Verbosity = 1
	assert.Equal(t, "long", r.Desc())
}

func TestLineFormatsByThreshold(t *testing.T) {
	r, err := New("kind", Error, feed.Version, Coordinate{Category: "dev-lang", Package: "go", Version: "1.20"}, "boom", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "dev-lang/go-1.20: boom", r.Line())

	r2, err := New("kind", Error, feed.Category, Coordinate{Category: "dev-lang"}, "boom", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "dev-lang: boom", r2.Line())

	r3, err := New("kind", Error, feed.Repo, Coordinate{}, "boom", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "boom", r3.Line())
}

func TestGroupKey(t *testing.T) {
	r, _ := New("kind", Error, feed.Version, Coordinate{Category: "dev-lang", Package: "go", Version: "1.20"}, "x", "", nil)
	assert.Equal(t, "dev-lang/go", r.GroupKey())

	r2, _ := New("kind", Error, feed.Category, Coordinate{Category: "dev-lang"}, "x", "", nil)
	assert.Equal(t, "dev-lang", r2.GroupKey())

	r3, _ := New("kind", Error, feed.Repo, Coordinate{}, "x", "", nil)
	assert.Equal(t, "", r3.GroupKey())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", Info.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
}
