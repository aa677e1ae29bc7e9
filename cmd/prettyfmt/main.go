package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prettyspec/pretty"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorGray  = "\033[0;37m"
)

type args struct {
	specPath    *string
	inputPath   *string
	check       *bool
	start       *string
	dumpSymbols *bool
}

func readArgs() *args {
	a := &args{
		specPath:    flag.String("spec", "", "Path to the formatting specification"),
		inputPath:   flag.String("input", "", "Path to the file to format (defaults to stdin)"),
		check:       flag.Bool("check", false, "Exit non-zero if the input is not already formatted, without printing it"),
		start:       flag.String("start", "", "Override the grammar's start non-terminal"),
		dumpSymbols: flag.Bool("dump-symbols", false, "Print every interned symbol table and exit, without formatting"),
	}
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	if *a.specPath == "" {
		fatal("Spec not informed")
	}

	specText, err := os.ReadFile(*a.specPath)
	if err != nil {
		fatal("Can't open spec file: %s", err.Error())
	}

	spec, diag := pretty.CompileSpec(string(specText))
	if diag != nil {
		printDiagnostic(*a.specPath, diag)
		os.Exit(1)
	}

	if *a.dumpSymbols {
		spec.Tables.DebugDump(os.Stdout)
		return
	}

	var inputBytes []byte
	if *a.inputPath == "" {
		inputBytes, err = io.ReadAll(os.Stdin)
	} else {
		inputBytes, err = os.ReadFile(*a.inputPath)
	}
	if err != nil {
		fatal("Can't read input: %s", err.Error())
	}

	out, diag := pretty.Format(spec, string(inputBytes), pretty.FormatOptions{StartOverride: *a.start})
	if diag != nil {
		printDiagnostic(inputName(*a.inputPath), diag)
		os.Exit(1)
	}

	if *a.check {
		if out != string(inputBytes) {
			fmt.Fprintf(os.Stderr, "%snot formatted%s: %s\n", colorRed, colorReset, inputName(*a.inputPath))
			os.Exit(1)
		}
		return
	}

	fmt.Print(out)
}

func inputName(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}

func printDiagnostic(source string, d *pretty.Diagnostic) {
	loc := d.Span.Start
	fmt.Fprintf(os.Stderr, "%s%s:%d:%d:%s %s%s:%s %s\n",
		colorGray, source, loc.Line, loc.Column, colorReset,
		colorRed, d.Kind, colorReset, d.Message)
}

// fatal prints an error message and exits with code 1.
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%serror:%s ", colorRed, colorReset)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, "\n")
	os.Exit(1)
}
