package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

// printJSON writes v as one line of JSON, or indented and coloured when
// the output is a terminal.
func printJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return printRawJSON(w, b)
}

func printRawJSON(w io.Writer, b []byte) error {
	if isTerminal(w) {
		b = pretty.Color(pretty.Pretty(b), nil)
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(string(b), "\n"))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseValue reads a command line argument as JSON when it is a single
// JSON value and as a plain string otherwise, so `30` is a number and
// `alice` is a string.
func parseValue(arg string) any {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return arg
	}
	return v
}
