// Package scripting runs document-generation scripts. A script builds
// document-language source programmatically and hands it to the
// compiler through a narrow API object.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute executes a script; the result is the script's final value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterCompiler registers the compiler API with the engine.
	RegisterCompiler(api CompilerAPI) error
}

// CompilerAPI is the safe surface scripts drive the compiler through.
type CompilerAPI interface {
	// Compile compiles document-language source into a PDF file.
	Compile(source, outPath string) error

	// Lower compiles source into canonical assembly text.
	Lower(source string) (string, error)
}
