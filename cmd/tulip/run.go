package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/tulipgo/abi"
	"github.com/chazu/tulipgo/config"
	"github.com/chazu/tulipgo/report"
	"github.com/chazu/tulipgo/tulip"
)

const version = "0.1.0"

// run is the whole program minus process exit. args is the full argv
// (including the program name); it is handed to the VM unchanged. stdin is
// only read in interactive mode.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, open func() (abi.Library, error), opts ...tulip.Option) int {
	if len(args) == 0 {
		args = []string{"tulip"}
	}

	fs := flag.NewFlagSet("tulip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output (debug logging)")
	configPath := fs.String("config", "", "Path to tulip.toml (default: search upward from the working directory)")
	noConfig := fs.Bool("no-config", false, "Skip loading tulip.toml")
	source := fs.String("e", "", "Inline source to interpret instead of the configured program")
	name := fs.String("name", "", "Diagnostic label for inline source")
	interactive := fs.Bool("i", false, "Start an interactive REPL reading from stdin")
	withResult := fs.Bool("result", false, "Capture and print the last value when running a script file")
	reportPath := fs.String("report", "", "Write a CBOR run report to this path")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tulip [options] [script [args...]]\n\n")
		fmt.Fprintf(stderr, "Runs TulipScript through libtulip. Without a script, interprets the inline\n")
		fmt.Fprintf(stderr, "program and prints its last value. Arguments after the script path are not\n")
		fmt.Fprintf(stderr, "parsed as options; the whole command line is passed to the VM as its argv.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tulip                      # Interpret \"1 + 2;\", print \"Last value: 3\"\n")
		fmt.Fprintf(stderr, "  tulip -e 'let x = 4; x * x;'\n")
		fmt.Fprintf(stderr, "  tulip main.tlp             # Run a script, print its status\n")
		fmt.Fprintf(stderr, "  tulip -result main.tlp     # Run a script, print its last value\n")
		fmt.Fprintf(stderr, "  tulip main.tlp a b         # The VM sees argv [tulip main.tlp a b]\n")
		fmt.Fprintf(stderr, "  tulip -i                   # Read-eval loop; braces may span lines\n")
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "tulip %s\n", version)
		return 0
	}

	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	positional := fs.Args()
	if given["e"] && len(positional) > 0 {
		fmt.Fprintf(stderr, "Error: -e cannot be combined with a script path\n")
		return 2
	}
	if *interactive && (given["e"] || len(positional) > 0) {
		fmt.Fprintf(stderr, "Error: -i cannot be combined with -e or a script path\n")
		return 2
	}

	cfg, err := loadConfig(*configPath, *noConfig)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if given["e"] {
		cfg.Inline.Source = *source
	}
	if given["name"] {
		cfg.Inline.Name = *name
	}
	if *withResult {
		cfg.Run.WithResult = true
	}
	if *reportPath != "" {
		cfg.Report.Output = *reportPath
	}

	verbosity := cfg.Log.Verbosity
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, cfg.LogFile())
	log := commonlog.GetLogger("tulip.cli")
	if cfg.Path != "" {
		log.Infof("using %s", cfg.Path)
	}

	lib, err := open()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	rep := &report.Report{Args: args, Started: time.Now()}
	err = tulip.With(lib, args, func(v *tulip.VM) error {
		rep.RunID = v.ID()
		if *interactive {
			return runREPL(v, stdin, stdout, stderr, rep)
		}
		if len(positional) > 0 {
			return runScript(v, positional[0], cfg.Run.WithResult, stdout, rep)
		}
		return runInline(v, cfg.Inline, stdout, rep)
	}, opts...)
	rep.Elapsed = time.Since(rep.Started)

	code := 0
	if err != nil {
		code = 1
		printError(stderr, err)
		rep.Error = err.Error()
	}
	if status, ok := tulip.StatusOf(err); ok {
		rep.Status = int32(status)
		rep.StatusText = status.String()
	}

	if cfg.Report.Output != "" {
		if err := report.WriteFile(cfg.Report.Output, rep); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		} else {
			log.Debugf("wrote report %s", cfg.Report.Output)
		}
	}
	return code
}

// loadConfig resolves tulip.toml: an explicit path, a file found by walking
// up from the working directory, or built-in defaults.
func loadConfig(path string, skip bool) (*config.Config, error) {
	if skip {
		return config.Default(), nil
	}
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	cfg, err := config.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// runScript runs a script by path. Without withResult it prints the status
// the VM returned, whatever it was.
func runScript(v *tulip.VM, path string, withResult bool, stdout io.Writer, rep *report.Report) error {
	rep.Target = path
	if withResult {
		rep.Mode = report.ModeFileVal
		value, err := v.RunFileWithResult(path)
		if err != nil {
			return err
		}
		rep.Value = value
		fmt.Fprintf(stdout, "Last value: %s\n", value)
		return nil
	}

	rep.Mode = report.ModeFile
	err := v.RunFile(path)
	if status, ok := tulip.StatusOf(err); ok {
		fmt.Fprintf(stdout, "Result: %d\n", int32(status))
	}
	return err
}

// runInline interprets the configured inline program and prints its last
// value.
func runInline(v *tulip.VM, in config.Inline, stdout io.Writer, rep *report.Report) error {
	rep.Mode = report.ModeInline
	rep.Target = in.Name
	value, err := v.InterpretWithResult(in.Source, in.Name)
	if err != nil {
		return err
	}
	rep.Value = value
	fmt.Fprintf(stdout, "Last value: %s\n", value)
	return nil
}

func printError(stderr io.Writer, err error) {
	var dec *abi.DecodeError
	if errors.As(err, &dec) {
		fmt.Fprintf(stderr, "Error: result is not valid UTF-8: %s\n", strings.ToValidUTF8(string(dec.Raw), "\uFFFD"))
		return
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
}
