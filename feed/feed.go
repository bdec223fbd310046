// Package feed defines the closed set of item feed-types and the
// ordered scope enum that sources, transforms and sinks are declared
// against.
package feed

import "fmt"

// Type is an opaque label identifying the payload shape flowing on an
// edge of the pipeline graph. Feed-types are compared by equality
// only.
type Type string

// The finite closed set of feed-types. Repo carries a repository
// handle, Category a category name plus its packages, Package an
// ordered, non-empty sequence of versioned recipes sharing category
// and package, Version a single recipe, and VersionText a recipe
// together with its raw source lines.
const (
	Repo        Type = "repo"
	Category    Type = "cat"
	Package     Type = "cat/pkg"
	Version     Type = "cat/pkg-ver"
	VersionText Type = "cat/pkg-ver+text"
)

// Scope is a totally ordered level of aggregation. Every source and
// sink declares a Scope; transforms declare the minimum Scope at which
// they are valid.
type Scope int

const (
	VersionScope Scope = iota
	PackageScope
	CategoryScope
	RepositoryScope
)

// MaxScope is the highest defined Scope.
const MaxScope = RepositoryScope

// String renders the scope using the CLI's --scope vocabulary.
func (s Scope) String() string {
	switch s {
	case VersionScope:
		return "ver"
	case PackageScope:
		return "pkg"
	case CategoryScope:
		return "cat"
	case RepositoryScope:
		return "repo"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Scopes lists every known scope, ordered from broadest to narrowest,
// matching the original CLI's known_scopes presentation order.
func Scopes() []Scope {
	return []Scope{RepositoryScope, CategoryScope, PackageScope, VersionScope}
}

// ParseScope parses a CLI-facing scope token such as "repo" or "ver".
func ParseScope(s string) (Scope, error) {
	for _, sc := range Scopes() {
		if sc.String() == s {
			return sc, nil
		}
	}
	return 0, fmt.Errorf("unknown scope %q", s)
}
