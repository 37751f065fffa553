// Package console isolates operator interaction so scenario code can be
// driven by scripted answers in tests instead of real standard input.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ClearLine moves the cursor up one row and erases it, so progress messages
// overwrite themselves instead of scrolling.
const ClearLine = "\033[1A\x1b[2K"

type Interaction interface {
	AskString(prompt string) (string, error)
	AskFloat(prompt string) (float64, error)
	Confirm(prompt string) (bool, error)
}

// Terminal is the interactive implementation backed by stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (t *Terminal) AskString(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) AskFloat(prompt string) (float64, error) {
	answer, err := t.AskString(prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", answer)
	}
	return value, nil
}

// Confirm keeps asking until it gets an explicit y or n.
func (t *Terminal) Confirm(prompt string) (bool, error) {
	for {
		answer, err := t.AskString(prompt + " (y/n) ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}
