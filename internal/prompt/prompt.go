package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Terminal shows alerts on out and asks yes/no questions on in.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	assumeYes   bool
	interactive bool
	mu          sync.Mutex
}

// NewTerminal creates a terminal prompter. When in is not a terminal and
// assumeYes is false, every confirmation is declined without reading input.
func NewTerminal(in *bufio.Reader, out io.Writer, assumeYes, interactive bool) *Terminal {
	return &Terminal{in: in, out: out, assumeYes: assumeYes, interactive: interactive}
}

// SetAssumeYes changes whether confirmations are answered yes.
func (t *Terminal) SetAssumeYes(assumeYes bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assumeYes = assumeYes
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Alert(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, message)
}

func (t *Terminal) Confirm(question string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.assumeYes {
		fmt.Fprintf(t.out, "%s [y/N] y\n", question)
		return true
	}
	if !t.interactive {
		fmt.Fprintf(t.out, "%s [y/N] n (not a terminal; pass --yes to confirm)\n", question)
		return false
	}

	fmt.Fprintf(t.out, "%s [y/N] ", question)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
