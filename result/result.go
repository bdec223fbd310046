// Package result defines the tagged, value-typed Result record emitted
// by sinks and consumed by reporters.
package result

import (
	"fmt"

	"github.com/pkgqa/pkgqa/feed"
)

// Severity mirrors the standard logging magnitudes so reporters can
// reuse familiar thresholds.
type Severity int

const (
	Info    Severity = 20
	Warning Severity = 30
	Error   Severity = 40
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Coordinate carries the category/package/version identity a Result
// is about. Which fields are populated is dictated by Threshold.
type Coordinate struct {
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Package  string `json:"package,omitempty" yaml:"package,omitempty"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Result is a single finding produced by a sink. It is immutable once
// constructed; Verbosity is the only field a reporter may stamp after
// the fact (spec §4.5).
type Result struct {
	Kind       string         `json:"kind" yaml:"kind"`
	Severity   Severity       `json:"severity" yaml:"severity"`
	Threshold  feed.Type      `json:"threshold" yaml:"threshold"`
	ShortDesc  string         `json:"short_desc" yaml:"short_desc"`
	LongDesc   string         `json:"long_desc,omitempty" yaml:"long_desc,omitempty"`
	Coordinate Coordinate     `json:"coordinate" yaml:"coordinate"`
	Attrs      map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Verbosity  int            `json:"-" yaml:"-"`
}

// Desc selects LongDesc when verbosity is non-zero and LongDesc is
// set, otherwise ShortDesc, matching spec §4.3.
func (r *Result) Desc() string {
	if r.Verbosity != 0 && r.LongDesc != "" {
		return r.LongDesc
	}
	return r.ShortDesc
}

// New constructs a Result, validating that the coordinate fields
// required by threshold are populated (spec §4.3: "Results that
// cannot supply a coordinate required by their threshold fail
// validation at construction").
func New(kind string, severity Severity, threshold feed.Type, coord Coordinate, short, long string, attrs map[string]any) (*Result, error) {
	switch threshold {
	case feed.Version:
		if coord.Category == "" || coord.Package == "" || coord.Version == "" {
			return nil, fmt.Errorf("result %s: threshold %s requires category, package and version", kind, threshold)
		}
	case feed.Package:
		if coord.Category == "" || coord.Package == "" {
			return nil, fmt.Errorf("result %s: threshold %s requires category and package", kind, threshold)
		}
	case feed.Category:
		if coord.Category == "" {
			return nil, fmt.Errorf("result %s: threshold %s requires category", kind, threshold)
		}
	case feed.Repo:
		// no coordinate required
	default:
		return nil, fmt.Errorf("result %s: unknown threshold %s", kind, threshold)
	}

	if short == "" {
		return nil, fmt.Errorf("result %s: short_desc is required", kind)
	}

	return &Result{
		Kind:       kind,
		Severity:   severity,
		Threshold:  threshold,
		ShortDesc:  short,
		LongDesc:   long,
		Coordinate: coord,
		Attrs:      attrs,
	}, nil
}

// Line renders the spec §4.5 "Line" reporter format for one result:
// one line per result, formatted according to the result's threshold.
func (r *Result) Line() string {
	desc := r.Desc()
	switch r.Threshold {
	case feed.Version:
		return fmt.Sprintf("%s/%s-%s: %s", r.Coordinate.Category, r.Coordinate.Package, r.Coordinate.Version, desc)
	case feed.Package:
		return fmt.Sprintf("%s/%s: %s", r.Coordinate.Category, r.Coordinate.Package, desc)
	case feed.Category:
		return fmt.Sprintf("%s: %s", r.Coordinate.Category, desc)
	default:
		return desc
	}
}

// GroupKey returns the key a Grouped reporter should bucket this
// result under: cat/pkg, cat, or the empty string for repo-level
// results (spec §4.5).
func (r *Result) GroupKey() string {
	switch r.Threshold {
	case feed.Version, feed.Package:
		return r.Coordinate.Category + "/" + r.Coordinate.Package
	case feed.Category:
		return r.Coordinate.Category
	default:
		return ""
	}
}
