package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/scentlang/scent/errs"
)

const helloSource = `<< scent 1.0 >>
[ "Width" 595.27559 "Height" 841.88976
  "ArtBox" [ "Left" 36 "Top" 36 "Right" 36 "Bottom" 36 ] dict
] dict ream
$paper

start_style "Helvetica" font_get style_font 12 style_size 0 gray style_fill finish_style
$body

paper begin_page
start_column
72 720 start_line {Hello, world} body line_span finish_line
finish_column
null null draw_text
end_page
.
`

func TestCompile_EndToEnd(t *testing.T) {
	var pdf bytes.Buffer
	if err := Compile(helloSource, &pdf, Options{Deterministic: true}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out := pdf.String()
	for _, want := range []string{"%PDF-1.7", "/BaseFont /Helvetica", "(Hello, world) Tj", "%%EOF"} {
		if !strings.Contains(out, want) {
			t.Fatalf("pdf missing %q", want)
		}
	}
}

func TestCompile_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Compile(helloSource, &a, Options{Deterministic: true}); err != nil {
		t.Fatal(err)
	}
	if err := Compile(helloSource, &b, Options{Deterministic: true}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("outputs differ between identical runs")
	}
}

func TestCompileToAssembly_RoundTripsThroughAssemble(t *testing.T) {
	var asm strings.Builder
	if err := CompileToAssembly(helloSource, &asm, Options{}); err != nil {
		t.Fatalf("CompileToAssembly: %v", err)
	}
	var pdf bytes.Buffer
	if err := Assemble(strings.NewReader(asm.String()), &pdf, Options{}); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(pdf.String(), "(Hello, world) Tj") {
		t.Fatal("round-tripped pdf missing text")
	}
}

func TestCompile_BadHeader(t *testing.T) {
	err := Compile("<< scent 2.0 >>", &bytes.Buffer{}, Options{})
	if err == nil || errs.KindOf(err) != errs.KindSyntax {
		t.Fatalf("version 2.0: got %v", err)
	}
}

func TestCompile_NoPages(t *testing.T) {
	err := Compile("<< scent 1.0 >>\n1 pop\n", &bytes.Buffer{}, Options{})
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("pageless program: got %v", err)
	}
}

func TestCompile_Compressed(t *testing.T) {
	var pdf bytes.Buffer
	if err := Compile(helloSource, &pdf, Options{Compress: true}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(pdf.String(), "/Filter /FlateDecode") {
		t.Fatal("compressed output missing FlateDecode")
	}
}
