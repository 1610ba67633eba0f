// tulip - run TulipScript through libtulip from Go
//
// Build: CGO_LDFLAGS=-L/path/to/bin go build -tags tulip ./cmd/tulip
// Usage:
//
//	tulip                     # interpret the inline program, print "Last value: ..."
//	tulip script.tlp [args]   # run a script file, print "Result: <status>"
//	tulip -i                  # interactive REPL
package main

import (
	"os"

	"github.com/chazu/tulipgo/abi"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr, abi.Native))
}
