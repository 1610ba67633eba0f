package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/tulipgo/abi"
	"github.com/chazu/tulipgo/report"
	"github.com/chazu/tulipgo/tulip"
)

const replName = "<repl>"

// blockDepth returns the net number of blocks line opens: '{' minus '}'.
func blockDepth(line string) int {
	return strings.Count(line, "{") - strings.Count(line, "}")
}

// runREPL reads lines from stdin and interprets each complete entry. An
// entry is complete once its braces balance, so a block can span lines.
// Failed entries are reported and the loop continues; only a closed VM or
// a read error ends it early.
func runREPL(v *tulip.VM, stdin io.Reader, stdout, stderr io.Writer, rep *report.Report) error {
	rep.Mode = report.ModeREPL
	rep.Target = replName

	fmt.Fprintf(stdout, "tulip REPL (Ctrl+D to exit)\n")

	scanner := bufio.NewScanner(stdin)
	var buf strings.Builder
	depth := 0
	for {
		if depth > 0 {
			fmt.Fprint(stdout, strings.Repeat("  ", depth)+"... ")
		} else {
			fmt.Fprint(stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if depth == 0 {
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)

		depth += blockDepth(line)
		if depth < 0 {
			fmt.Fprintf(stderr, "Error: unmatched closing brace '}'\n")
			buf.Reset()
			depth = 0
			continue
		}
		if depth > 0 {
			continue
		}

		source := buf.String()
		buf.Reset()
		if err := v.Interpret(source, replName); err != nil {
			if !recoverable(err) {
				return err
			}
			printError(stderr, err)
		}
	}
	fmt.Fprintf(stdout, "\nExiting REPL\n")
	return scanner.Err()
}

// recoverable reports whether the REPL can carry on after err.
func recoverable(err error) bool {
	var exit *tulip.ExitError
	var nul *abi.NulError
	return errors.As(err, &exit) || errors.As(err, &nul)
}
