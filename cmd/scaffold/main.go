package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/toyz/scaffold/internal/catalog"
	"github.com/toyz/scaffold/internal/cli"
	"github.com/toyz/scaffold/internal/config"
	"github.com/toyz/scaffold/internal/utils"
)

// Exit codes
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitChanged = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr, utils.NewDiagnosticSystem))
}

// run parses args and executes one command. newDiagnostics builds the
// diagnostic output for the selected verbosity.
func run(ctx context.Context, args []string, stderr io.Writer, newDiagnostics func(utils.DiagnosticLevel) *utils.DiagnosticSystem) int {
	flags := flag.NewFlagSet("scaffold", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configFlag     = flags.String("config", config.DefaultFile, "Root configuration file")
		outFlag        = flags.String("out", "", "Output directory (overrides the configuration)")
		moduleFlag     = flags.String("module", "", "Module path for generated imports (defaults to the enclosing go.mod)")
		verboseFlag    = flags.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag      = flags.Bool("quiet", false, "Only show errors and final results")
		cleanFlag      = flags.Bool("clean", false, "Delete the files recorded by the last generation")
		checkFlag      = flags.Bool("check", false, "Report files that would change without writing them")
		watchFlag      = flags.Bool("watch", false, "Regenerate whenever the configuration or templates change")
		noFormatFlag   = flags.Bool("no-format", false, "Do not gofmt generated Go files")
		noCommandsFlag = flags.Bool("no-commands", false, "Do not run post-write commands")
		helpFlag       = flags.Bool("help", false, "Show help information")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: scaffold [options]\n\n")
		fmt.Fprintf(stderr, "Scaffold Code Generator\n")
		fmt.Fprintf(stderr, "Builds a project from a tree of generator nodes described in a YAML configuration.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nGenerators:\n")
		generators := catalog.New()
		for _, name := range generators.List() {
			d, _ := generators.Get(name)
			fmt.Fprintf(stderr, "  %-10s %s\n", name, d.Description)
		}
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  scaffold                                  # Generate from %s\n", config.DefaultFile)
		fmt.Fprintf(stderr, "  scaffold --config api.yaml --out ./api    # Custom configuration and output\n")
		fmt.Fprintf(stderr, "  scaffold --check                          # Fail if generated files are out of date\n")
		fmt.Fprintf(stderr, "  scaffold --watch --verbose                # Regenerate on every change\n")
		fmt.Fprintf(stderr, "  scaffold --clean                          # Remove generated files\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if *helpFlag {
		flags.Usage()
		return exitOK
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n\n", flags.Args())
		flags.Usage()
		return exitUsage
	}
	if *cleanFlag && (*checkFlag || *watchFlag) {
		fmt.Fprintf(stderr, "Error: --clean cannot be combined with --check or --watch\n\n")
		return exitUsage
	}

	level := utils.DiagnosticInfo
	if *quietFlag {
		level = utils.DiagnosticError
	} else if *verboseFlag {
		level = utils.DiagnosticVerbose
	}
	diagnostics := newDiagnostics(level)
	reporter := cli.NewDiagnosticReporterTo(*verboseFlag, stderr)
	g := cli.NewGenerator(diagnostics)

	opts := cli.Options{
		ConfigPath: *configFlag,
		Output:     *outFlag,
		Module:     *moduleFlag,
		NoFormat:   *noFormatFlag,
		NoCommands: *noCommandsFlag,
		Check:      *checkFlag,
	}

	diagnostics.Section("Scaffold Code Generator")
	if *verboseFlag {
		diagnostics.Subsection("Configuration")
		diagnostics.Indent()
		diagnostics.List("Config file: %s", *configFlag)
		if *outFlag != "" {
			diagnostics.List("Output: %s", *outFlag)
		}
		if *moduleFlag != "" {
			diagnostics.List("Module: %s", *moduleFlag)
		}
		diagnostics.List("Mode: %s", mode(*cleanFlag, *checkFlag, *watchFlag))
		diagnostics.Unindent()
	}

	if *cleanFlag {
		diagnostics.StartProgress("Cleaning generated files")
		removed, err := g.Clean(opts)
		if err != nil {
			diagnostics.EndProgress("Cleaning generated files", false)
			reporter.ReportError(err)
			return exitFailed
		}
		diagnostics.EndProgress("Cleaning generated files", true)
		diagnostics.Success("Removed %d generated files", len(removed))
		return exitOK
	}

	if *watchFlag {
		files, dirs, err := g.WatchTargets(opts)
		if err != nil {
			reporter.ReportError(err)
			return exitFailed
		}
		err = cli.NewWatcher(cli.DefaultDebounce, diagnostics).Watch(ctx, files, dirs, func(ctx context.Context) {
			g.Purge()
			summary, err := g.Run(ctx, opts)
			if err != nil {
				reporter.ReportError(err)
				return
			}
			if !*quietFlag {
				reporter.ReportSuccess(summary)
			}
		})
		if err != nil {
			reporter.ReportError(err)
			return exitFailed
		}
		return exitOK
	}

	summary, err := g.Run(ctx, opts)
	if err != nil {
		reporter.ReportError(err)
		return exitFailed
	}
	if !*quietFlag || (*checkFlag && len(summary.Changed) > 0) {
		reporter.ReportSuccess(summary)
	}
	if *verboseFlag {
		diagnostics.Summary("Statistics", map[string]interface{}{
			"Nodes":    summary.Nodes,
			"Files":    summary.Files,
			"Changed":  len(summary.Changed),
			"Stale":    len(summary.Stale),
			"Commands": len(summary.Commands),
		})
	}
	if *checkFlag && len(summary.Changed) > 0 {
		return exitChanged
	}
	return exitOK
}

func mode(clean, check, watch bool) string {
	switch {
	case clean:
		return "clean"
	case check:
		return "check"
	case watch:
		return "watch"
	}
	return "generate"
}
