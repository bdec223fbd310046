package reporter

import (
	"encoding/gob"
	"fmt"
	"io"
	"sort"

	"github.com/pkgqa/pkgqa/result"
)

// StreamHeader precedes a pickle-stream run: the checks that declare
// at least one known result (sorted by name), the sorted union of
// every known result kind across them, and the selection criterion —
// the Go analogue of PickleStream's header record (spec §4.5/§6).
// Readers reject any subsequently decoded result whose kind was not
// declared here.
type StreamHeader struct {
	Checks       []CheckInfo
	KnownResults []string
	Criterion    string
}

// NewStreamHeader builds a StreamHeader from the run's full check
// roster, dropping any check with no known results and deduplicating
// the result-kind union, matching base.StreamHeader's construction.
func NewStreamHeader(checks []CheckInfo, criterion string) StreamHeader {
	var withResults []CheckInfo
	seen := map[string]bool{}
	var known []string
	for _, c := range checks {
		if len(c.KnownResults) == 0 {
			continue
		}
		withResults = append(withResults, c)
		for _, k := range c.KnownResults {
			if !seen[k] {
				seen[k] = true
				known = append(known, k)
			}
		}
	}
	sort.Slice(withResults, func(i, j int) bool { return withResults[i].Name < withResults[j].Name })
	sort.Strings(known)
	return StreamHeader{Checks: withResults, KnownResults: known, Criterion: criterion}
}

func (h StreamHeader) knownSet() map[string]bool {
	known := make(map[string]bool, len(h.KnownResults))
	for _, k := range h.KnownResults {
		known[k] = true
	}
	return known
}

// StreamSink gob-encodes a StreamHeader followed by one Result at a
// time, for a long-lived consumer reading results as they are
// produced. This is the Go analogue of the original's pickle-stream
// format: a header-framed sequence of independently decodable records
// rather than one closing container (spec §4.5 "pickle-stream").
type StreamSink struct {
	enc   *gob.Encoder
	c     io.Closer
	known map[string]bool
}

func NewStreamSink(w io.Writer) *StreamSink {
	s := &StreamSink{enc: gob.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// WriteHeader emits the StreamHeader that must precede every result
// this sink writes; Write rejects any result kind it does not declare.
func (s *StreamSink) WriteHeader(h StreamHeader) error {
	s.known = h.knownSet()
	return s.enc.Encode(h)
}

func (s *StreamSink) Write(r *result.Result) error {
	if s.known != nil && !s.known[r.Kind] {
		return fmt.Errorf("stream sink: result kind %q not declared in stream header", r.Kind)
	}
	return s.enc.Encode(r)
}

func (s *StreamSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// StreamReader decodes a StreamSink's output: the header record
// followed by each Result, rejecting any result whose kind the header
// did not declare (spec §6: "readers reject streams whose header does
// not enumerate every subsequently encountered kind").
type StreamReader struct {
	dec    *gob.Decoder
	Header StreamHeader
	known  map[string]bool
}

// NewStreamReader decodes the leading StreamHeader and returns a
// reader ready to decode the results that follow it.
func NewStreamReader(r io.Reader) (*StreamReader, error) {
	dec := gob.NewDecoder(r)
	var h StreamHeader
	if err := dec.Decode(&h); err != nil {
		return nil, err
	}
	return &StreamReader{dec: dec, Header: h, known: h.knownSet()}, nil
}

// Next decodes the next Result. It returns io.EOF once the stream is
// exhausted, and a rejection error if the decoded result's kind was
// not declared in the header.
func (sr *StreamReader) Next() (*result.Result, error) {
	var r result.Result
	if err := sr.dec.Decode(&r); err != nil {
		return nil, err
	}
	if !sr.known[r.Kind] {
		return nil, fmt.Errorf("stream reader: result kind %q not declared in stream header", r.Kind)
	}
	return &r, nil
}

// BatchSink buffers every Result after a StreamHeader and gob-encodes
// the whole slice in one record on Close, for consumers that want to
// decode a complete run in a single call (spec §4.5's second
// pickle-stream variant).
type BatchSink struct {
	enc     *gob.Encoder
	c       io.Closer
	results []*result.Result
	known   map[string]bool
}

func NewBatchSink(w io.Writer) *BatchSink {
	s := &BatchSink{enc: gob.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *BatchSink) WriteHeader(h StreamHeader) error {
	s.known = h.knownSet()
	return s.enc.Encode(h)
}

func (s *BatchSink) Write(r *result.Result) error {
	if s.known != nil && !s.known[r.Kind] {
		return fmt.Errorf("batch sink: result kind %q not declared in stream header", r.Kind)
	}
	s.results = append(s.results, r)
	return nil
}

func (s *BatchSink) Close() error {
	if err := s.enc.Encode(s.results); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// ReadBatch decodes a BatchSink's output: the header record followed
// by the whole result slice, rejecting the batch if any result's kind
// was not declared in the header.
func ReadBatch(r io.Reader) (StreamHeader, []*result.Result, error) {
	dec := gob.NewDecoder(r)
	var h StreamHeader
	if err := dec.Decode(&h); err != nil {
		return StreamHeader{}, nil, err
	}
	var results []*result.Result
	if err := dec.Decode(&results); err != nil {
		return h, nil, err
	}
	known := h.knownSet()
	for _, res := range results {
		if !known[res.Kind] {
			return h, nil, fmt.Errorf("batch reader: result kind %q not declared in stream header", res.Kind)
		}
	}
	return h, results, nil
}
