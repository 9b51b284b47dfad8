package markdown

import (
	"strings"
	"testing"

	"github.com/scentlang/scent/compiler"
	"github.com/scentlang/scent/errs"
)

const sample = `# Title

First paragraph with some *emphasis* and more text.

## Section

- item one
- item two

Closing paragraph that has curly {braces} and a back\slash in it.
`

func TestGenerate_ProducesCompilableSource(t *testing.T) {
	src, err := Generate([]byte(sample), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(src, "<< scent 1.0 >>") {
		t.Fatalf("missing header:\n%s", src)
	}
	for _, want := range []string{
		"\"Helvetica-Bold\" font_get",
		"{Title}",
		"{- item one}",
		`\{braces\}`,
		`back\\slash`,
		"begin_page",
		"draw_text",
		"end_page",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("source missing %q:\n%s", want, src)
		}
	}

	var asm strings.Builder
	if err := compiler.CompileToAssembly(src, &asm, compiler.Options{}); err != nil {
		t.Fatalf("generated source does not compile: %v", err)
	}
	if !strings.Contains(asm.String(), "write \"Title\"") {
		t.Fatalf("lowered assembly missing title:\n%s", asm.String())
	}
}

func TestGenerate_Empty(t *testing.T) {
	_, err := Generate([]byte("   \n"), Options{})
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("empty markdown: got %v", err)
	}
}

func TestGenerate_PageBreaks(t *testing.T) {
	md := strings.Repeat("A paragraph of filler text to occupy a line.\n\n", 120)
	src, err := Generate([]byte(md), Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Count(src, "begin_page") < 2 {
		t.Fatal("long input did not break onto multiple pages")
	}
}
