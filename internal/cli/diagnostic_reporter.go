package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/scaffold/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return NewDiagnosticReporterTo(verbose, os.Stderr)
}

// NewDiagnosticReporterTo creates a reporter writing to w
func NewDiagnosticReporterTo(verbose bool, w io.Writer) *DiagnosticReporter {
	return &DiagnosticReporter{verbose: verbose, out: w}
}

// ReportWarning prints a one-line warning
func (r *DiagnosticReporter) ReportWarning(message string) {
	orange := color.New(color.FgYellow, color.Bold)
	orange.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError prints err with every aggregated error, its node path,
// context and suggestions.
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Generation Failed\n")
	fmt.Fprintf(r.out, "========================\n\n")

	list := r.flatten(err)
	for i, e := range list {
		if len(list) > 1 {
			fmt.Fprintf(r.out, "[%d/%d] ", i+1, len(list))
		}
		r.reportOne(e)
	}
	r.printAdditionalHelp(errors.CodeOf(err))
}

// flatten expands aggregated errors into their members
func (r *DiagnosticReporter) flatten(err error) []error {
	var multi *errors.MultipleErrors
	if stderrors.As(err, &multi) && len(multi.Errors) > 0 {
		out := make([]error, len(multi.Errors))
		for i, e := range multi.Errors {
			out[i] = e
		}
		return out
	}
	return []error{err}
}

func (r *DiagnosticReporter) reportOne(err error) {
	var se errors.ScaffoldError
	if !stderrors.As(err, &se) {
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
		return
	}

	r.printErrorHeader(se)
	fmt.Fprintf(r.out, "Message: %s\n\n", se.Error())
	if len(se.Context()) > 0 {
		r.printContext(se.Context())
	}
	if len(se.Suggestions()) > 0 {
		r.printSuggestions(se.Suggestions())
	}
	if r.verbose {
		r.printErrorChain(se)
	}
}

func (r *DiagnosticReporter) printErrorHeader(se errors.ScaffoldError) {
	title := se.ErrorCode().String()
	if path := se.NodePath(); path != "" {
		title += " at " + path
	}
	fmt.Fprintf(r.out, "Type: %s\n", title)
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(title)+6))
}

// printContext prints context sorted by key, with well-known keys first
func (r *DiagnosticReporter) printContext(context map[string]interface{}) {
	fmt.Fprintf(r.out, "Context:\n")

	important := []string{"generator", "phase", "slot", "provider", "reference"}
	printed := make(map[string]bool)
	for _, key := range important {
		if value, ok := context[key]; ok {
			fmt.Fprintf(r.out, "   %s: %v\n", r.formatContextKey(key), value)
			printed[key] = true
		}
	}

	keys := make([]string, 0, len(context))
	for key := range context {
		if !printed[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(r.out, "   %s: %v\n", r.formatContextKey(key), context[key])
	}
	fmt.Fprintf(r.out, "\n")
}

// formatContextKey turns snake_case keys into Title Case
func (r *DiagnosticReporter) formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(r.out, "\n")
}

// printAdditionalHelp prints hints keyed by the leading error code
func (r *DiagnosticReporter) printAdditionalHelp(code errors.ErrorCode) {
	switch code {
	case errors.AmbiguousDependencyErrorCode:
		fmt.Fprintf(r.out, "Resolving ambiguity:\n")
		fmt.Fprintf(r.out, "  - Add refs: {slot: path} to the consuming node\n")
		fmt.Fprintf(r.out, "  - Paths are relative to the node's parent, or absolute from /\n\n")
	case errors.CyclicDependencyErrorCode:
		fmt.Fprintf(r.out, "Breaking cycles:\n")
		fmt.Fprintf(r.out, "  - A node cannot consume a read-only and a mutable export of the same producer\n\n")
	case errors.SchemaValidationErrorCode:
		fmt.Fprintf(r.out, "Check the config of the nodes listed above against their generator schema.\n\n")
	}

	fmt.Fprintf(r.out, "For more help:\n")
	fmt.Fprintf(r.out, "  - Run with --verbose for more detailed output\n")
	fmt.Fprintf(r.out, "  - Run with --help for the available generators\n")
}

func (r *DiagnosticReporter) printErrorChain(err error) {
	fmt.Fprintf(r.out, "Error Chain:\n")
	level := 1
	for err != nil {
		fmt.Fprintf(r.out, "    %d. %s\n", level, err.Error())
		err = stderrors.Unwrap(err)
		level++
	}
	fmt.Fprintf(r.out, "\n")
}

// ReportSuccess prints the summary of a successful run
func (r *DiagnosticReporter) ReportSuccess(summary *GenerationSummary) {
	if summary.DryRun {
		fmt.Fprintf(r.out, "\nCheck Completed\n")
		fmt.Fprintf(r.out, "===============\n\n")
	} else {
		fmt.Fprintf(r.out, "\nGeneration Completed Successfully!\n")
		fmt.Fprintf(r.out, "==================================\n\n")
	}

	fmt.Fprintf(r.out, "Run %s: %d nodes, %d files\n", summary.RunID, summary.Nodes, summary.Files)
	if len(summary.Changed) > 0 {
		verb := "Written"
		if summary.DryRun {
			verb = "Would write"
		}
		fmt.Fprintf(r.out, "\n%s:\n", verb)
		for _, file := range summary.Changed {
			fmt.Fprintf(r.out, "  - %s\n", file)
		}
	} else {
		fmt.Fprintf(r.out, "Everything up to date\n")
	}
	if len(summary.Commands) > 0 {
		fmt.Fprintf(r.out, "\nCommands:\n")
		for _, cmd := range summary.Commands {
			fmt.Fprintf(r.out, "  - %s\n", cmd)
		}
	}
	for _, stale := range summary.Stale {
		r.ReportWarning(stale + " is no longer generated")
	}
}

// GenerationSummary describes one generation run
type GenerationSummary struct {
	RunID    string
	Nodes    int
	Files    int
	Changed  []string
	Stale    []string
	Commands []string
	DryRun   bool
}
