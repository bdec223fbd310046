// Package pkgqatest provides canned fixtures and test doubles shared
// across the suite, the teacher's testing/plugin.go pattern (canned
// data plus a gob deep-copy helper) adapted to pkgqa's own recipe and
// reporter shapes.
package pkgqatest

import (
	"bytes"
	"encoding/gob"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/result"
)

// Recipes is a canned, ascending-by-version fixture package: a version
// stable on amd64 and unstable on arm64, a version stable on both, an
// all-unstable version, and a live (-9999) version that checks must
// ignore.
var Recipes = []*checks.Recipe{
	{Category: "dev-lang", Package: "go", Version: "1.20", Slot: "0", Keywords: []string{"amd64", "~arm64"}},
	{Category: "dev-lang", Package: "go", Version: "1.21", Slot: "0", Keywords: []string{"amd64", "arm64"}},
	{Category: "dev-lang", Package: "go", Version: "1.22", Slot: "0", Keywords: []string{"~amd64", "~arm64"}},
	{Category: "dev-lang", Package: "go", Version: "9999", Slot: "0", Keywords: nil, Live: true},
}

// DeepCopyRecipes returns an independent copy of in, so a test that
// mutates a fixture never corrupts it for the next test.
func DeepCopyRecipes(in []*checks.Recipe) []*checks.Recipe {
	buf := &bytes.Buffer{}
	enc, dec := gob.NewEncoder(buf), gob.NewDecoder(buf)
	_ = enc.Encode(in)
	var out []*checks.Recipe
	_ = dec.Decode(&out)
	return out
}

// CapturingReporter records every Result processed through it: the
// minimal engine.Reporter test double used across the suite.
type CapturingReporter struct {
	Results []*result.Result
}

func (c *CapturingReporter) ProcessReport(r *result.Result) error {
	c.Results = append(c.Results, r)
	return nil
}
