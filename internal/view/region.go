package view

import (
	"fmt"
	"io"
	"sync"
)

// Region is one named area of the screen. Its contents are only ever replaced
// as a whole.
type Region struct {
	name string
	out  io.Writer

	mu    sync.Mutex
	lines []string
	draws int
}

// NewRegion creates an empty region that draws to out. out may be nil.
func NewRegion(name string, out io.Writer) *Region {
	return &Region{name: name, out: out}
}

func (r *Region) Name() string { return r.name }

// Lines returns a copy of the current contents.
func (r *Region) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Draws counts the replacements so far.
func (r *Region) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}

// Replace swaps in lines and redraws the region.
func (r *Region) Replace(lines []string) error {
	next := append([]string(nil), lines...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = next
	r.draws++

	if r.out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(r.out, "== %s ==\n", r.name); err != nil {
		return fmt.Errorf("draw %s: %w", r.name, err)
	}
	for _, line := range next {
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return fmt.Errorf("draw %s: %w", r.name, err)
		}
	}
	return nil
}
