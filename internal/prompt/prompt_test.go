package prompt

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestTerminal(input string, assumeYes, interactive bool) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return NewTerminal(bufio.NewReader(strings.NewReader(input)), &out, assumeYes, interactive), &out
}

func TestConfirmReadsAnswer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false},
	}
	for _, tt := range tests {
		term, out := newTestTerminal(tt.input, false, true)
		assert.Equal(t, tt.want, term.Confirm("Delete?"), "input %q", tt.input)
		assert.True(t, strings.HasPrefix(out.String(), "Delete? [y/N] "))
	}
}

func TestConfirmAssumeYes(t *testing.T) {
	term, out := newTestTerminal("", true, false)
	assert.True(t, term.Confirm("Transfer?"))
	assert.Equal(t, "Transfer? [y/N] y\n", out.String())
}

func TestConfirmDeclinesWithoutTerminal(t *testing.T) {
	term, out := newTestTerminal("y\n", false, false)
	assert.False(t, term.Confirm("Delete?"))
	assert.Contains(t, out.String(), "pass --yes")
}

func TestConfirmSharesReaderAcrossQuestions(t *testing.T) {
	term, _ := newTestTerminal("n\ny\n", false, true)
	assert.False(t, term.Confirm("first?"))
	assert.True(t, term.Confirm("second?"))
}

func TestAlert(t *testing.T) {
	term, out := newTestTerminal("", false, false)
	term.Alert("Request accepted")
	assert.Equal(t, "Request accepted\n", out.String())
}

func TestIsTerminalOnPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Skip(err)
	}
	defer r.Close()
	defer w.Close()
	assert.False(t, IsTerminal(r))
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(true)
	rec.Alert("one")
	assert.True(t, rec.Confirm("sure?"))
	rec.Answer = false
	assert.False(t, rec.Confirm("really?"))

	assert.Equal(t, []string{"one"}, rec.Alerts())
	assert.Equal(t, []string{"sure?", "really?"}, rec.Questions())
}
