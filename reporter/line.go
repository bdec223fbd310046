package reporter

import (
	"bufio"
	"io"

	"github.com/pkgqa/pkgqa/result"
)

// LineSink writes one rendered line per Result (spec §4.5 "Line"),
// using result.Line()'s per-threshold formatting.
type LineSink struct {
	w *bufio.Writer
	c io.Closer
}

// NewLineSink wraps w. If w also implements io.Closer, Close closes it;
// otherwise Close only flushes.
func NewLineSink(w io.Writer) *LineSink {
	s := &LineSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *LineSink) Write(r *result.Result) error {
	if _, err := s.w.WriteString(r.Line() + "\n"); err != nil {
		return err
	}
	return nil
}

func (s *LineSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
