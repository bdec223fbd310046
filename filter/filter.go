// Package filter implements the selection layer that decides which
// packages a run considers: pattern matching against category/package
// tokens, and whitelist/blacklist/scope composition (spec §4.4).
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/pkgerr"
)

// Matcher reports whether a coordinate (category, package or
// category/package) is selected.
type Matcher interface {
	Match(category, pkg string) bool
}

// Pattern is a single selection token. A token containing '+' or '*'
// is compiled as a case-insensitive regular expression matched against
// "category/package"; any other token is matched as a '/'-separated
// path prefix of the same string, so "dev-lang" matches every package
// in that category and "dev-lang/go" matches only that package.
type Pattern struct {
	raw    string
	re     *regexp.Regexp
	prefix string
}

// NewPattern compiles a selection token, returning a ConfigurationError
// wrapped regexp error if the token is an invalid regular expression.
func NewPattern(raw string) (*Pattern, error) {
	if strings.ContainsAny(raw, "+*") {
		re, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			return nil, &pkgerr.ConfigurationError{Message: fmt.Sprintf("invalid pattern %q", raw), Err: err}
		}
		return &Pattern{raw: raw, re: re}, nil
	}
	return &Pattern{raw: raw, prefix: strings.ToLower(raw)}, nil
}

func (p *Pattern) Match(category, pkg string) bool {
	full := category
	if pkg != "" {
		full = category + "/" + pkg
	}
	if p.re != nil {
		return p.re.MatchString(full)
	}
	lower := strings.ToLower(full)
	if lower == p.prefix {
		return true
	}
	return strings.HasPrefix(lower, p.prefix+"/")
}

func (p *Pattern) String() string { return p.raw }

// Whitelist selects a coordinate if ANY of its patterns match.
type Whitelist struct{ Patterns []*Pattern }

func (w Whitelist) Match(category, pkg string) bool {
	if len(w.Patterns) == 0 {
		return true
	}
	for _, p := range w.Patterns {
		if p.Match(category, pkg) {
			return true
		}
	}
	return false
}

// Blacklist rejects a coordinate if ANY of its patterns match.
type Blacklist struct{ Patterns []*Pattern }

func (b Blacklist) Match(category, pkg string) bool {
	for _, p := range b.Patterns {
		if p.Match(category, pkg) {
			return false
		}
	}
	return true
}

// Scope rejects any coordinate finer than the configured minimum
// scope: e.g. a Scope{Min: feed.CategoryScope} filter only lets
// category- and repository-level items through.
type Scope struct{ Min feed.Scope }

func (s Scope) MatchScope(itemScope feed.Scope) bool { return itemScope >= s.Min }

// Composite applies a Whitelist, a Blacklist and a Scope together: a
// coordinate passes only if the whitelist accepts it, the blacklist
// does not reject it, and (when scoped) its granularity is allowed.
type Composite struct {
	Whitelist Whitelist
	Blacklist Blacklist
	Scope     *Scope
}

func (c Composite) Match(category, pkg string) bool {
	return c.Whitelist.Match(category, pkg) && c.Blacklist.Match(category, pkg)
}

func (c Composite) MatchScope(itemScope feed.Scope) bool {
	if c.Scope == nil {
		return true
	}
	return c.Scope.MatchScope(itemScope)
}

// CheckPattern is a single check-selection token, matched against a
// check's fully-qualified name rather than a category/package
// coordinate (spec §4.4's PatternFilter, used by -c/--disable). A
// token containing '+' or '*' is compiled as a case-insensitive
// regular expression anchored to the start of the name — mirroring
// Python's `re.match`, which anchors the start but not the end, so
// "foo.*" matches "foobar" but not "a.foobar". Any other token is
// matched as a dotted sub-path: split both the token and the name on
// '.', and match iff some consecutive slice of the name's components
// equals the token's components, case-insensitively.
type CheckPattern struct {
	raw   string
	re    *regexp.Regexp
	parts []string
}

// NewCheckPattern compiles a check-selection token, returning a
// wrapped regexp error if the token is an invalid regular expression.
func NewCheckPattern(raw string) (*CheckPattern, error) {
	if strings.ContainsAny(raw, "+*") {
		re, err := regexp.Compile("(?i)^(?:" + raw + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid check pattern %q: %w", raw, err)
		}
		return &CheckPattern{raw: raw, re: re}, nil
	}
	parts := strings.Split(strings.ToLower(raw), ".")
	return &CheckPattern{raw: raw, parts: parts}, nil
}

// Match reports whether name (a check's fully-qualified name) is
// selected by this token (spec §8 property 7).
func (p *CheckPattern) Match(name string) bool {
	if p.re != nil {
		return p.re.MatchString(name)
	}
	chunks := strings.Split(strings.ToLower(name), ".")
	if len(p.parts) > len(chunks) {
		return false
	}
	for i := 0; i+len(p.parts) <= len(chunks); i++ {
		if dottedSliceEqual(chunks[i:i+len(p.parts)], p.parts) {
			return true
		}
	}
	return false
}

func dottedSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p *CheckPattern) String() string { return p.raw }

// CheckWhitelist selects a check name if any of its patterns match, or
// every name when no patterns were given (spec §6: "-c" defaults to
// every registered check).
type CheckWhitelist struct{ Patterns []*CheckPattern }

func (w CheckWhitelist) Match(name string) bool {
	if len(w.Patterns) == 0 {
		return true
	}
	for _, p := range w.Patterns {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// CheckBlacklist rejects a check name if any of its patterns match
// (spec §6 "--disable").
type CheckBlacklist struct{ Patterns []*CheckPattern }

func (b CheckBlacklist) Match(name string) bool {
	for _, p := range b.Patterns {
		if p.Match(name) {
			return false
		}
	}
	return true
}

// CompileChecks builds the whitelist/blacklist matchers -c/--disable
// feed into check selection — independent of the Composite above,
// which restricts positional atom coordinates, not check names.
func CompileChecks(whitelist, blacklist []string) (CheckWhitelist, CheckBlacklist, error) {
	w := CheckWhitelist{}
	for _, raw := range whitelist {
		p, err := NewCheckPattern(raw)
		if err != nil {
			return w, CheckBlacklist{}, err
		}
		w.Patterns = append(w.Patterns, p)
	}

	b := CheckBlacklist{}
	for _, raw := range blacklist {
		p, err := NewCheckPattern(raw)
		if err != nil {
			return w, b, err
		}
		b.Patterns = append(b.Patterns, p)
	}
	return w, b, nil
}

// Compile builds a Composite from raw CLI tokens, a raw scope token
// (possibly empty), and the kept/skipped pattern lists' string forms.
func Compile(whitelist, blacklist []string, scopeToken string) (*Composite, error) {
	w := Whitelist{}
	for _, raw := range whitelist {
		p, err := NewPattern(raw)
		if err != nil {
			return nil, err
		}
		w.Patterns = append(w.Patterns, p)
	}

	b := Blacklist{}
	for _, raw := range blacklist {
		p, err := NewPattern(raw)
		if err != nil {
			return nil, err
		}
		b.Patterns = append(b.Patterns, p)
	}

	c := &Composite{Whitelist: w, Blacklist: b}
	if scopeToken != "" {
		sc, err := feed.ParseScope(scopeToken)
		if err != nil {
			return nil, err
		}
		c.Scope = &Scope{Min: sc}
	}
	return c, nil
}
