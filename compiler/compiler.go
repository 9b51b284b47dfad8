// Package compiler wires the pipeline together: document-language
// source through the scanner and evaluator into the assembly machine,
// and assembly text through the parser, either one ending at the PDF
// writer or at canonical assembly text.
package compiler

import (
	"io"
	"os"

	"github.com/scentlang/scent/assembly"
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fonts"
	"github.com/scentlang/scent/images"
	"github.com/scentlang/scent/interp"
	"github.com/scentlang/scent/observability"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/writer"
)

// Options configures a compilation.
type Options struct {
	// Deterministic fixes the output file ID.
	Deterministic bool
	// Compress flate-encodes content streams.
	Compress bool
	// Producer names the producing application in the document info.
	Producer string

	FontLoader  fonts.Loader
	ImageLoader images.Loader
	Logger      observability.Logger
}

func (o Options) writerConfig() writer.Config {
	return writer.Config{
		Deterministic: o.Deterministic,
		Compress:      o.Compress,
		Producer:      o.Producer,
		Logger:        o.Logger,
	}
}

func (o Options) run(src string, asm assembly.Assembler) error {
	sc := scanner.New(src)
	header, err := sc.ReadHeader()
	if err != nil {
		return err
	}
	machine := assembly.NewMachine(asm, o.Logger)
	ev := interp.New(header.Dialect, machine, interp.Options{
		FontLoader:  o.FontLoader,
		ImageLoader: o.ImageLoader,
		Logger:      o.Logger,
	})
	if err := ev.Run(sc); err != nil {
		return err
	}
	return machine.Finish()
}

// Compile evaluates document-language source and writes a PDF to out.
func Compile(src string, out io.Writer, opts Options) error {
	return opts.run(src, assembly.NewPDFAssembler(out, opts.writerConfig(), opts.FontLoader, opts.ImageLoader))
}

// CompileToAssembly evaluates source and emits canonical assembly text.
func CompileToAssembly(src string, out io.Writer, opts Options) error {
	return opts.run(src, assembly.NewTextAssembler(out))
}

// Assemble executes assembly text and writes a PDF to out.
func Assemble(r io.Reader, out io.Writer, opts Options) error {
	asm := assembly.NewPDFAssembler(out, opts.writerConfig(), opts.FontLoader, opts.ImageLoader)
	machine := assembly.NewMachine(asm, opts.Logger)
	return assembly.NewParser(machine).Run(r)
}

// CompileFile compiles a source file into a PDF file.
func CompileFile(srcPath, outPath string, opts Options) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return errs.Resource("reading %s: %v", srcPath, err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return errs.Resource("creating %s: %v", outPath, err)
	}
	defer f.Close()
	return Compile(string(data), f, opts)
}
