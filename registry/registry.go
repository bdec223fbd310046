// Package registry maps check names to the Sinks that implement them,
// the deterministic factory-sequence pattern the teacher's own
// component wiring follows (string key selects a concrete
// constructor), generalized here to pkgqa's two shipped checks.
package registry

import (
	"sort"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/config"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/filter"
	"github.com/pkgqa/pkgqa/pkgerr"
)

// Factory builds a Sink from the run's configuration.
type Factory func(cfg *config.Config) (engine.Sink, error)

var factories = map[string]Factory{
	"redundant-version": func(cfg *config.Config) (engine.Sink, error) {
		return checks.NewRedundantVersion(), nil
	},
	"unstable-only": func(cfg *config.Config) (engine.Sink, error) {
		if len(cfg.StableArches) == 0 {
			return nil, &pkgerr.ConfigurationError{Message: "unstable-only requires stable_arches to be configured"}
		}
		return checks.NewUnstableOnly(cfg.StableArches), nil
	},
}

// Names lists every registered check name, sorted: the vocabulary
// -c/--checks and --list-checks operate over (spec §6).
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs every registered check whose name whitelist selects
// and blacklist does not reject (spec §4.4/§6 pattern semantics for
// -c/--disable), in sorted name order.
func Build(cfg *config.Config, whitelist filter.CheckWhitelist, blacklist filter.CheckBlacklist) ([]engine.Sink, error) {
	sinks := make([]engine.Sink, 0, len(factories))
	for _, name := range Names() {
		if !whitelist.Match(name) || !blacklist.Match(name) {
			continue
		}
		sink, err := factories[name](cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 0 {
		return nil, &pkgerr.ConfigurationError{Message: "no checks selected"}
	}
	return sinks, nil
}
