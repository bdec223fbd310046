package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/config"
	"github.com/pkgqa/pkgqa/filter"
)

func mustChecks(t *testing.T, whitelist, blacklist []string) (filter.CheckWhitelist, filter.CheckBlacklist) {
	t.Helper()
	w, b, err := filter.CompileChecks(whitelist, blacklist)
	require.NoError(t, err)
	return w, b
}

func TestNamesIsSortedAndComplete(t *testing.T) {
	assert.Equal(t, []string{"redundant-version", "unstable-only"}, Names())
}

func TestBuildConstructsEveryRequestedCheck(t *testing.T) {
	cfg := &config.Config{StableArches: []string{"amd64"}}
	w, b := mustChecks(t, nil, nil)
	sinks, err := Build(cfg, w, b)
	require.NoError(t, err)
	require.Len(t, sinks, 2)
}

func TestBuildSkipsDisabledChecks(t *testing.T) {
	cfg := &config.Config{StableArches: []string{"amd64"}}
	w, b := mustChecks(t, nil, []string{"unstable-only"})
	sinks, err := Build(cfg, w, b)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	_, ok := sinks[0].(*checks.RedundantVersion)
	assert.True(t, ok)
}

func TestBuildWhitelistPatternSelectsSubsetByDottedComponent(t *testing.T) {
	cfg := &config.Config{}
	w, b := mustChecks(t, []string{"redundant-version"}, nil)
	sinks, err := Build(cfg, w, b)
	require.NoError(t, err)
	require.Len(t, sinks, 1)
	_, ok := sinks[0].(*checks.RedundantVersion)
	assert.True(t, ok)
}

func TestBuildReturnsConfigurationErrorWhenNothingSelected(t *testing.T) {
	cfg := &config.Config{}
	w, b := mustChecks(t, []string{"not-a-real-check"}, nil)
	_, err := Build(cfg, w, b)
	assert.Error(t, err)
}

func TestBuildUnstableOnlyRequiresStableArches(t *testing.T) {
	cfg := &config.Config{}
	w, b := mustChecks(t, []string{"unstable-only"}, nil)
	_, err := Build(cfg, w, b)
	assert.Error(t, err)
}
