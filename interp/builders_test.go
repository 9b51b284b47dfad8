package interp

import (
	"testing"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/value"
)

const a4ReamB = `
start_ream
595.27559 841.88976 ream_dim
"ArtBox" 36 36 36 36 ream_bound
0 ream_rotate
finish_ream
`

func TestReamBuilderB(t *testing.T) {
	ev, err := evalStack(t, scanner.DialectB, a4ReamB)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	r, ok := ev.stack[0].(*value.Ream)
	if !ok {
		t.Fatalf("top = %T", ev.stack[0])
	}
	if r.Width != 59527559 || r.Rotation != 0 {
		t.Fatalf("ream = %+v", r)
	}
	if _, ok := r.Boxes[value.ArtBox]; !ok {
		t.Fatal("ArtBox missing")
	}
}

func TestReamBuilderB_InvalidMargins(t *testing.T) {
	src := `
start_ream
595.27559 841.88976 ream_dim
"ArtBox" 595 36 36 36 ream_bound
finish_ream
`
	_, err := evalStack(t, scanner.DialectB, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("oversized margin: got %v", err)
	}
}

func TestReamBuilderB_ArtAndTrimExclusive(t *testing.T) {
	src := `
start_ream
100 100 ream_dim
"ArtBox" 5 5 5 5 ream_bound
"TrimBox" 5 5 5 5 ream_bound
finish_ream
`
	_, err := evalStack(t, scanner.DialectB, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("Art+Trim in dialect B: got %v", err)
	}
}

func TestReamBuilderB_Unbound(t *testing.T) {
	src := `
start_ream
100 100 ream_dim
"ArtBox" 5 5 5 5 ream_bound
"TrimBox" 5 5 5 5 ream_bound
"ArtBox" ream_unbound
finish_ream
`
	ev, err := evalStack(t, scanner.DialectB, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	r := ev.stack[0].(*value.Ream)
	if _, ok := r.Boxes[value.ArtBox]; ok {
		t.Fatal("ArtBox still bound")
	}
}

func TestReamDictA_BothPrimaryAllowed(t *testing.T) {
	src := `
[ "Width" 595.27559 "Height" 841.88976
  "ArtBox" [ "Left" 40 "Top" 40 "Right" 40 "Bottom" 40 ] dict
  "TrimBox" [ "Left" 40 "Top" 40 "Right" 40 "Bottom" 40 ] dict
] dict ream
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	r := ev.stack[0].(*value.Ream)
	if len(r.Boxes) != 2 {
		t.Fatalf("boxes = %v", r.Boxes)
	}
}

func TestReamDerive(t *testing.T) {
	src := a4ReamB + `
$base
start_ream
base ream_derive
90 ream_rotate
finish_ream
`
	ev, err := evalStack(t, scanner.DialectB, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	derived := ev.stack[len(ev.stack)-1].(*value.Ream)
	if derived.Rotation != 90 || derived.Width != 59527559 {
		t.Fatalf("derived = %+v", derived)
	}
	base, _ := ev.ns["base"]
	if base.v.(*value.Ream).Rotation != 0 {
		t.Fatal("derivation mutated the base ream")
	}
}

func TestStrokeBuilderB(t *testing.T) {
	src := `
start_stroke
2.5 stroke_width
0 gray stroke_color
"Round" stroke_cap
4 stroke_join_r
[ 3 2 ] 0 stroke_dash
finish_stroke
`
	ev, err := evalStack(t, scanner.DialectB, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := ev.stack[0].(*value.Stroke)
	if s.Width != 250000 || s.Cap != value.CapRound || s.Join != value.JoinMiter {
		t.Fatalf("stroke = %+v", s)
	}
	if s.MiterLimit != 400000 || s.Dash == nil || len(s.Dash.Dashes) != 2 {
		t.Fatalf("stroke = %+v", s)
	}
}

func TestStrokeBuilderB_RequiresWidthAndColor(t *testing.T) {
	_, err := evalStack(t, scanner.DialectB, "start_stroke finish_stroke")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("bare finish_stroke: got %v", err)
	}
}

func TestStrokeBuilderB_DashParity(t *testing.T) {
	src := `
start_stroke
1 stroke_width
0 gray stroke_color
[ 3 ] 0 stroke_dash
finish_stroke
`
	_, err := evalStack(t, scanner.DialectB, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("single-element dash in dialect B: got %v", err)
	}
}

func TestDashPatternA_SingleElementAllowed(t *testing.T) {
	ev, err := evalStack(t, scanner.DialectA, "[ 3 ] 0 dash_pattern")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	d := ev.stack[0].(*value.DashPattern)
	if len(d.Dashes) != 1 || d.Dashes[0] != 300000 {
		t.Fatalf("dash = %+v", d)
	}
}

func TestStrokeStyleA(t *testing.T) {
	src := `
[ "Color" 0 gray "Width" 1.5 "Join" "Miter" "MiterLimit" 30 miter_angle ] dict stroke_style
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := ev.stack[0].(*value.Stroke)
	if s.Width != 150000 || s.Join != value.JoinMiter || s.MiterLimit != 386370 {
		t.Fatalf("stroke = %+v", s)
	}
}

func TestStrokeStyleA_MiterLimitOnlyWithMiter(t *testing.T) {
	src := `[ "Color" 0 gray "Width" 1 "Join" "Bevel" "MiterLimit" 4 ] dict stroke_style`
	_, err := evalStack(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("MiterLimit with Bevel: got %v", err)
	}
}

func TestStrokeDeriveA(t *testing.T) {
	src := `
[ "Color" 0 gray "Width" 1 ] dict stroke_style
[ "Width" 3 ] dict stroke_derive
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := ev.stack[0].(*value.Stroke)
	if s.Width != 300000 || s.Color == nil {
		t.Fatalf("derived stroke = %+v", s)
	}
}

func TestPathBuilderStateMachine(t *testing.T) {
	// motion_line without an open motion
	_, err := evalStack(t, scanner.DialectA, "start_path 1 1 motion_line")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("motion_line without motion: got %v", err)
	}

	// unterminated motion at finish
	_, err = evalStack(t, scanner.DialectA, `start_path 0 0 start_motion 1 1 motion_line "Nonzero" finish_path`)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("finish with open motion: got %v", err)
	}

	// empty path
	_, err = evalStack(t, scanner.DialectA, `start_path "Nonzero" finish_path`)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("empty finish_path: got %v", err)
	}

	src := `
start_path
0 0 start_motion
10 0 motion_line
10 5 12.5 7.5 15 10 motion_curve
close_motion
2 2 6 6 path_rect
"EvenOdd" finish_path
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	p := ev.stack[0].(*value.Path)
	if len(p.Subpaths) != 2 || p.Rule != value.RuleEvenOdd {
		t.Fatalf("path = %+v", p)
	}
	motion := p.Subpaths[0].(value.Motion)
	if !motion.Closed || len(motion.Segs) != 2 {
		t.Fatalf("motion = %+v", motion)
	}
}

func TestPathInclude(t *testing.T) {
	src := `
start_path 0 0 4 4 path_rect "Nonzero" finish_path
$base
start_path
base path_include
5 5 2 2 path_rect
null finish_path
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	p := ev.stack[len(ev.stack)-1].(*value.Path)
	if len(p.Subpaths) != 2 || p.Rule != value.RuleNull {
		t.Fatalf("path = %+v", p)
	}
}

func TestAccumulatorIsSingleSlot(t *testing.T) {
	_, err := evalStack(t, scanner.DialectB, "start_ream start_stroke")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("nested accumulator: got %v", err)
	}
}

func TestStyleBuilder(t *testing.T) {
	src := `
start_style
"Helvetica" font_get style_font
12 style_size
0 gray style_fill
0.5 style_cspace
finish_style
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := ev.stack[0].(*value.Style)
	if s.Size != 1200000 || s.Fill == nil || s.CharSpace != 50000 {
		t.Fatalf("style = %+v", s)
	}
	if s.HScale != 1*fixnum.Scale {
		t.Fatalf("default hscale = %v", s.HScale)
	}
}

func TestStyleBuilder_RequiresFontAndSize(t *testing.T) {
	_, err := evalStack(t, scanner.DialectA, "start_style finish_style")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("incomplete style: got %v", err)
	}
}

func TestStyleSetW(t *testing.T) {
	src := `
start_style "Helvetica" font_get style_font 10 style_size finish_style
2 style_setw
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	s := ev.stack[0].(*value.Style)
	if s.WordSpace != 200000 {
		t.Fatalf("word space = %v", s.WordSpace)
	}
}

func TestColumnBuilder(t *testing.T) {
	src := `
start_style "Helvetica" font_get style_font 10 style_size 0 gray style_fill finish_style
$st
start_column
72 720 start_line
{Hello } st line_span
{world} st line_span
finish_line
finish_column
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	col := ev.stack[0].(*value.Column)
	if len(col.Lines) != 1 || len(col.Lines[0].Spans) != 2 {
		t.Fatalf("column = %+v", col)
	}
}

func TestColumnBuilder_EmptyLineRejected(t *testing.T) {
	_, err := evalStack(t, scanner.DialectA, "start_column 0 0 start_line finish_line")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("empty line: got %v", err)
	}
}

func TestColumnBuilder_EmptyColumnRejected(t *testing.T) {
	_, err := evalStack(t, scanner.DialectA, "start_column finish_column")
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("empty column: got %v", err)
	}
}

func TestSyntheticFont(t *testing.T) {
	src := `
"Helvetica" font_get
$base
[ "Base" base "Oblique" 12 ] dict font_get
$syn
[ "Base" syn "Boldness" 1 ] dict font_get
`
	ev, err := evalStack(t, scanner.DialectA, src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	f := ev.stack[len(ev.stack)-1].(*value.Font)
	if f.Variant != value.FontSynthetic {
		t.Fatalf("font = %+v", f)
	}
	if f.Base.Variant != value.FontBuiltIn {
		t.Fatal("synthetic chain did not collapse to the builtin base")
	}
	alt := f.EffectiveAlterations()
	if alt.Oblique == nil || alt.Boldness == nil {
		t.Fatalf("alterations = %+v", alt)
	}
	if *alt.Oblique != 1200000 {
		t.Fatal("inherited alteration lost in collapse")
	}
}

func TestSyntheticFontRejectedInB(t *testing.T) {
	src := `"Helvetica" font_get $base [ "Base" base "Oblique" 2 ] dict font_get`
	_, err := evalStack(t, scanner.DialectB, src)
	if err == nil || errs.KindOf(err) != errs.KindState {
		t.Fatalf("synthetic font in dialect B: got %v", err)
	}
}

func TestTransforms(t *testing.T) {
	ev, err := evalStack(t, scanner.DialectA, "[ 10 20 tx_translate 2 3 tx_scale ] tx_seq")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	tx := ev.stack[0].(*value.Transform)
	// translate first, then scale
	want := [6]float64{2, 0, 0, 3, 20, 60}
	if tx.M != want {
		t.Fatalf("tx = %v, want %v", tx.M, want)
	}

	ev, err = evalStack(t, scanner.DialectA, `[ "TranslateX" 10 "ScaleX" 2 "ScaleY" 2 ] dict tx_seq`)
	if err != nil {
		t.Fatalf("dict tx_seq: %v", err)
	}
	tx = ev.stack[0].(*value.Transform)
	if tx.M != [6]float64{2, 0, 0, 2, 20, 0} {
		t.Fatalf("dict tx = %v", tx.M)
	}
}

func TestClip(t *testing.T) {
	src := `
start_path 0 0 10 10 path_rect "Nonzero" finish_path
null
[ ] pop
clip
`
	_, err := evalStack(t, scanner.DialectA, src)
	if err == nil {
		t.Fatal("clip with bad argument shape accepted")
	}

	good := `
start_path 0 0 10 10 path_rect "Nonzero" finish_path
$p
[ p null ] clip
`
	ev, err := evalStack(t, scanner.DialectA, good)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	c := ev.stack[0].(*value.Clipping)
	if len(c.Components) != 1 || c.Components[0].Tx == nil {
		t.Fatalf("clipping = %+v", c)
	}
}

func TestClip_NullRulePathRejected(t *testing.T) {
	src := `
start_path 0 0 10 10 path_rect null finish_path
$p
[ p null ] clip
`
	_, err := evalStack(t, scanner.DialectA, src)
	if err == nil || errs.KindOf(err) != errs.KindDomain {
		t.Fatalf("null-rule clip: got %v", err)
	}
}
