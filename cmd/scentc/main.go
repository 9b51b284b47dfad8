// Command scentc compiles document-language sources to PDF. It also
// executes assembly text directly, dumps lowered assembly, runs goja
// document scripts, and converts markdown files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scentlang/scent/compiler"
	"github.com/scentlang/scent/extensions/markdown"
	"github.com/scentlang/scent/scripting"
)

type options struct {
	input         string
	output        string
	emitAssembly  bool
	script        bool
	markdownInput bool
	deterministic bool
	compress      bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scentc: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "scentc: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: scentc [flags] <input>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.output, "o", "", "output path (default: input with .pdf or .sasm extension)")
	flag.BoolVar(&opts.emitAssembly, "asm", false, "emit lowered assembly text instead of a PDF")
	flag.BoolVar(&opts.script, "script", false, "treat the input as a JavaScript document script")
	flag.BoolVar(&opts.markdownInput, "markdown", false, "treat the input as markdown")
	flag.BoolVar(&opts.deterministic, "deterministic", false, "produce byte-identical output for identical input")
	flag.BoolVar(&opts.compress, "compress", true, "flate-compress content streams")
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return opts, fmt.Errorf("exactly one input file required")
	}
	opts.input = flag.Arg(0)
	if opts.output == "" {
		ext := ".pdf"
		if opts.emitAssembly {
			ext = ".sasm"
		}
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ext
	}
	return opts, nil
}

func run(opts options) error {
	copts := compiler.Options{
		Deterministic: opts.deterministic,
		Compress:      opts.compress,
		Producer:      "scentc",
	}

	if opts.script {
		data, err := os.ReadFile(opts.input)
		if err != nil {
			return err
		}
		engine := scripting.NewEngine()
		if err := engine.RegisterCompiler(scripting.NewCompilerAPI(copts)); err != nil {
			return err
		}
		_, err = engine.Execute(context.Background(), string(data))
		return err
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	src := string(data)

	if opts.markdownInput {
		src, err = markdown.Generate(data, markdown.Options{})
		if err != nil {
			return err
		}
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	switch {
	case !opts.markdownInput && strings.EqualFold(filepath.Ext(opts.input), ".sasm"):
		return compiler.Assemble(strings.NewReader(src), out, copts)
	case opts.emitAssembly:
		return compiler.CompileToAssembly(src, out, copts)
	default:
		return compiler.Compile(src, out, copts)
	}
}
