package reporter

import (
	"encoding/xml"
	"io"

	"github.com/pkgqa/pkgqa/result"
)

// XMLSink writes every Result into one top-level <checks> document,
// buffering in memory and flushing the whole document on Close since
// encoding/xml has no incremental streaming encoder for repeated
// elements (spec §4.5 "XML", matching XmlReporter's envelope).
type XMLSink struct {
	w       io.Writer
	c       io.Closer
	results []xmlResult
}

type xmlResult struct {
	XMLName  xml.Name `xml:"check"`
	Category string   `xml:"category,omitempty"`
	Package  string   `xml:"package,omitempty"`
	Version  string   `xml:"version,omitempty"`
	Class    string   `xml:"class"`
	Msg      string   `xml:"msg"`
}

type xmlDocument struct {
	XMLName xml.Name    `xml:"checks"`
	Results []xmlResult `xml:"check"`
}

func NewXMLSink(w io.Writer) *XMLSink {
	s := &XMLSink{w: w}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *XMLSink) Write(r *result.Result) error {
	s.results = append(s.results, xmlResult{
		Category: r.Coordinate.Category,
		Package:  r.Coordinate.Package,
		Version:  r.Coordinate.Version,
		Class:    r.Kind,
		Msg:      r.Desc(),
	})
	return nil
}

func (s *XMLSink) Close() error {
	doc := xmlDocument{Results: s.results}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if _, err := s.w.Write(out); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n")); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
