package reporter

import (
	"encoding/json"
	"io"

	"github.com/pkgqa/pkgqa/feed"
	"github.com/pkgqa/pkgqa/result"
)

// NDJSONSink writes one JSON object per line, one per Result, nesting
// the result's coordinate into the category/package/version object a
// consumer expects (spec §4.5/§6), truncated at the result's
// threshold — the Go analogue of JsonReporter.process_report.
type NDJSONSink struct {
	enc *json.Encoder
	c   io.Closer
}

func NewNDJSONSink(w io.Writer) *NDJSONSink {
	s := &NDJSONSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *NDJSONSink) Write(r *result.Result) error {
	return s.enc.Encode(nestedNode(r))
}

// nestedNode builds the {category:{package:{version:{_severity:{Kind:
// [desc]}}}}} object JsonReporter.process_report produces, truncated
// at r.Threshold: a repo-level result has no coordinate wrapping at
// all, a category-level result nests one level deep, and so on.
func nestedNode(r *result.Result) map[string]any {
	leaf := map[string]any{
		"_" + r.Severity.String(): map[string]any{r.Kind: []string{r.Desc()}},
	}
	switch r.Threshold {
	case feed.Category:
		return map[string]any{r.Coordinate.Category: leaf}
	case feed.Package:
		return map[string]any{
			r.Coordinate.Category: map[string]any{r.Coordinate.Package: leaf},
		}
	case feed.Version, feed.VersionText:
		return map[string]any{
			r.Coordinate.Category: map[string]any{
				r.Coordinate.Package: map[string]any{
					r.Coordinate.Version: leaf,
				},
			},
		}
	default: // feed.Repo
		return leaf
	}
}

func (s *NDJSONSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
