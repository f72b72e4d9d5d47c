package input

import (
	"bufio"
	"fmt"
	"io"

	"github.com/JonMunkholm/userdata/internal/core"
)

// Terminal prompts on out and reads one line per field from in.
type Terminal struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewTerminal creates a Terminal source.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{out: out, scanner: bufio.NewScanner(in)}
}

// Supply prints "Enter <Label>: " and returns the next line without its
// line terminator. End of input yields ErrNoValue.
func (t *Terminal) Supply(field core.Field) (string, error) {
	label := string(field)
	if spec, ok := core.LookupField(string(field)); ok {
		label = spec.Label
	}

	if _, err := fmt.Fprintf(t.out, "Enter %s: ", label); err != nil {
		return "", err
	}

	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrNoValue
	}
	return t.scanner.Text(), nil
}
