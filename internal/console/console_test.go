package console

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func terminalWith(input string) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return &Terminal{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestAskStringTrims(t *testing.T) {
	term, out := terminalWith("  hello  \n")
	got, err := term.AskString("Name? ")
	if err != nil {
		t.Fatalf("AskString error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected trimmed answer, got %q", got)
	}
	if out.String() != "Name? " {
		t.Fatalf("prompt not written, got %q", out.String())
	}
}

func TestAskStringLastLineWithoutNewline(t *testing.T) {
	term, _ := terminalWith("42")
	got, err := term.AskString("")
	if err != nil {
		t.Fatalf("AskString error: %v", err)
	}
	if got != "42" {
		t.Fatalf("expected %q, got %q", "42", got)
	}
}

func TestAskFloat(t *testing.T) {
	term, _ := terminalWith("2.5\nabc\n")
	value, err := term.AskFloat("")
	if err != nil || value != 2.5 {
		t.Fatalf("expected 2.5, got %g / %v", value, err)
	}
	if _, err := term.AskFloat(""); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestConfirmRetriesUntilExplicit(t *testing.T) {
	term, _ := terminalWith("maybe\nY\n")
	ok, err := term.Confirm("sure?")
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if !ok {
		t.Fatalf("expected eventual yes")
	}

	term, _ = terminalWith("n\n")
	ok, err = term.Confirm("sure?")
	if err != nil || ok {
		t.Fatalf("expected no, got %v / %v", ok, err)
	}
}
