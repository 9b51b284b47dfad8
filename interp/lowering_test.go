package interp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/scanner"
)

const pageProlog = `
start_ream
595.27559 841.88976 ream_dim
"ArtBox" 36 36 36 36 ream_bound
finish_ream
begin_page
`

const pagePrologA = `
[ "Width" 595.27559 "Height" 841.88976
  "ArtBox" [ "Left" 36 "Top" 36 "Right" 36 "Bottom" 36 ] dict
] dict ream
begin_page
`

func TestBeginPageLowering(t *testing.T) {
	out, err := evalBody(t, scanner.DialectB, pageProlog+"end_page")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{
		"begin page",
		"dim 595.27559 841.88976",
		"art_box 36 36 559.27559 805.88976",
		"body",
		"end page",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("lowering missing %q in:\n%s", want, out)
		}
	}
}

func TestNestedPageRejected(t *testing.T) {
	src := pagePrologA + pagePrologA
	_, err := evalBody(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("nested begin_page: got %v", err)
	}
}

func TestDrawOutsidePageRejected(t *testing.T) {
	src := `
start_path 0 0 10 10 path_rect "Nonzero" finish_path
null null null null draw_path
`
	_, err := evalBody(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("draw without page: got %v", err)
	}
}

func TestDrawPathLowering(t *testing.T) {
	src := pagePrologA + `
start_path
10 10 100 50 path_rect
"Nonzero" finish_path
[ "Color" 0 gray "Width" 2 "Cap" "Round" ] dict stroke_style
128 gray
10 20 tx_translate
null
draw_path
end_page
`
	out, err := evalBody(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{
		"save",
		"matrix 1 0 0 1 10 20",
		"line_width 2",
		"line_cap round",
		"line_join miter 10",
		"stroke_color %000000FF",
		"fill_color %0000007F",
		"begin path stroke nonzero -",
		"rect 10 10 100 50",
		"end path",
		"restore",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("lowering missing %q in:\n%s", want, out)
		}
	}
}

func TestDrawPathRequiresPaint(t *testing.T) {
	src := pagePrologA + `
start_path 0 0 1 1 path_rect "Nonzero" finish_path
null null null null draw_path
end_page
`
	_, err := evalBody(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("paintless draw_path: got %v", err)
	}
}

func TestNullRuleCannotFill(t *testing.T) {
	src := pagePrologA + `
start_path 0 0 1 1 path_rect null finish_path
null
0 gray
null null draw_path
end_page
`
	_, err := evalBody(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("fill with null rule: got %v", err)
	}
}

func TestDrawTextLowering(t *testing.T) {
	src := pagePrologA + `
start_style "Helvetica" font_get style_font 12 style_size 0 gray style_fill finish_style
$st
start_column
72 720 start_line
{Hello} st line_span
finish_line
72 700 start_line
{world} st line_span
finish_line
finish_column
null null draw_text
end_page
`
	out, err := evalBody(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{
		"font_standard F1 \"Helvetica\"",
		"fill_color %000000FF",
		"begin text -",
		"advance 72 720",
		"font F1 12",
		"text_render 0",
		"write \"Hello\"",
		"end text",
		"advance 72 700",
		"write \"world\"",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("lowering missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "begin text") != 2 {
		t.Fatalf("expected one text block per line:\n%s", out)
	}
}

func TestClipLowering(t *testing.T) {
	src := pagePrologA + `
start_path 0 0 50 50 path_rect "Nonzero" finish_path
$shape
start_path 5 5 10 10 path_rect "EvenOdd" finish_path
null
null
null
[ shape 10 0 tx_translate ] clip
draw_path
end_page
`
	// draw_path args: path(shape2) stroke(null) fill(null) ... needs paint
	_, err := evalBody(t, scanner.DialectA, src)
	if err == nil {
		t.Fatal("expected paint requirement")
	}

	simple := pagePrologA + `
start_path 0 0 50 50 path_rect "Nonzero" finish_path
$shape
start_path 5 5 10 10 path_rect "Nonzero" finish_path
[ "Color" 0 gray "Width" 1 ] dict stroke_style
null
null
[ shape 10 0 tx_translate ] clip
draw_path
end_page
`
	out, err := evalBody(t, scanner.DialectA, simple)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{
		"matrix 1 0 0 1 10 0",
		"begin path - - nonzero",
		"rect 0 0 50 50",
		"matrix 1 0 0 1 -10 0",
		"begin path stroke - -",
		"rect 5 5 10 10",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("clip lowering missing %q in:\n%s", want, out)
		}
	}
}

func TestDrawEmbed(t *testing.T) {
	dir := t.TempDir()
	embed := `<< scent-embed 1.0 bound-x 0 bound-y 0 bound-w 100 bound-h 100 body >>
start_path 10 10 20 20 path_rect "Nonzero" finish_path
start_stroke 1 stroke_width 0 gray stroke_color finish_stroke
null null null draw_path
`
	path := filepath.Join(dir, "inner.scent")
	if err := os.WriteFile(path, []byte(embed), 0o644); err != nil {
		t.Fatal(err)
	}

	src := pageProlog + `
{` + path + `} null null draw_embed
end_page
`
	out, err := evalBody(t, scanner.DialectB, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{
		"begin path - - nonzero", // bounds clip
		"rect 0 0 100 100",
		"rect 10 10 20 20",
		"line_width 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("embed lowering missing %q in:\n%s", want, out)
		}
	}
}

func TestDrawEmbed_PageOpsForbidden(t *testing.T) {
	dir := t.TempDir()
	embed := `<< scent-embed 1.0 bound-x 0 bound-y 0 bound-w 10 bound-h 10 body >>
start_ream 10 10 ream_dim "ArtBox" 1 1 1 1 ream_bound finish_ream
begin_page
end_page
`
	path := filepath.Join(dir, "inner.scent")
	if err := os.WriteFile(path, []byte(embed), 0o644); err != nil {
		t.Fatal(err)
	}
	src := pageProlog + `
{` + path + `} null null draw_embed
end_page
`
	_, err := evalBody(t, scanner.DialectB, src)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("embedded begin_page: got %v", err)
	}
}
