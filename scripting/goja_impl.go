package scripting

import (
	"context"
	"os"
	"strings"

	"github.com/dop251/goja"

	"github.com/scentlang/scent/compiler"
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterCompiler(api CompilerAPI) error {
	obj := e.vm.NewObject()
	if err := obj.Set("compile", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.vm.NewTypeError("compile requires source and output path"))
		}
		src := call.Arguments[0].String()
		out := call.Arguments[1].String()
		if err := api.Compile(src, out); err != nil {
			panic(e.vm.NewGoError(err))
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := obj.Set("lower", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.vm.NewTypeError("lower requires source"))
		}
		text, err := api.Lower(call.Arguments[0].String())
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		return e.vm.ToValue(text)
	}); err != nil {
		return err
	}
	if err := obj.Set("fixed", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		f, err := fixnum.Parse(call.Arguments[0].String())
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		return e.vm.ToValue(f.Format())
	}); err != nil {
		return err
	}
	return e.vm.Set("scent", obj)
}

// compilerBridge adapts the compiler package to the script surface.
type compilerBridge struct {
	opts compiler.Options
}

// NewCompilerAPI builds the standard bridge.
func NewCompilerAPI(opts compiler.Options) CompilerAPI {
	return &compilerBridge{opts: opts}
}

func (b *compilerBridge) Compile(source, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return errs.Resource("creating %s: %v", outPath, err)
	}
	defer f.Close()
	return compiler.Compile(source, f, b.opts)
}

func (b *compilerBridge) Lower(source string) (string, error) {
	var out strings.Builder
	if err := compiler.CompileToAssembly(source, &out, b.opts); err != nil {
		return "", err
	}
	return out.String(), nil
}
