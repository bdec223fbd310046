package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeOrdering(t *testing.T) {
	assert.True(t, VersionScope < PackageScope)
	assert.True(t, PackageScope < CategoryScope)
	assert.True(t, CategoryScope < RepositoryScope)
	assert.Equal(t, RepositoryScope, MaxScope)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "ver", VersionScope.String())
	assert.Equal(t, "pkg", PackageScope.String())
	assert.Equal(t, "cat", CategoryScope.String())
	assert.Equal(t, "repo", RepositoryScope.String())
}

func TestScopesOrderedBroadToNarrow(t *testing.T) {
	assert.Equal(t, []Scope{RepositoryScope, CategoryScope, PackageScope, VersionScope}, Scopes())
}

func TestParseScope(t *testing.T) {
	sc, err := ParseScope("pkg")
	require.NoError(t, err)
	assert.Equal(t, PackageScope, sc)

	_, err = ParseScope("bogus")
	assert.Error(t, err)
}
