package reporter

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fatih/color"

	"github.com/pkgqa/pkgqa/result"
)

// severityColor maps a Severity to the terminal color the teacher's
// CLI output uses for comparable log levels.
func severityColor(s result.Severity) *color.Color {
	switch s {
	case result.Error:
		return color.New(color.FgRed, color.Bold)
	case result.Warning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// GroupedSink buckets Results by result.GroupKey() (cat/pkg, cat, or
// repo-wide) and writes each group under one colored heading, the
// common human-facing terminal format (spec §4.5 "Grouped").
type GroupedSink struct {
	w io.Writer
	c io.Closer

	mu     sync.Mutex
	groups map[string][]*result.Result
	order  []string
}

func NewGroupedSink(w io.Writer) *GroupedSink {
	s := &GroupedSink{w: w, groups: map[string][]*result.Result{}}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

func (s *GroupedSink) Write(r *result.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := r.GroupKey()
	if _, ok := s.groups[key]; !ok {
		s.order = append(s.order, key)
	}
	s.groups[key] = append(s.groups[key], r)
	return nil
}

func (s *GroupedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bw := bufio.NewWriter(s.w)
	sort.Strings(s.order)
	for _, key := range s.order {
		heading := key
		if heading == "" {
			heading = "repository"
		}
		fmt.Fprintln(bw, color.New(color.Bold, color.Underline).Sprint(heading))
		for _, r := range s.groups[key] {
			line := severityColor(r.Severity).Sprintf("  %s: %s", r.Severity, r.Desc())
			fmt.Fprintln(bw, line)
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
