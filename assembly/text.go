package assembly

import (
	"fmt"
	"io"
	"strings"

	"github.com/scentlang/scent/fixnum"
)

// TextAssembler re-emits the instruction stream as canonical assembly
// text: one instruction per line, fixed-point numerics in shortest
// form, strings re-escaped.
type TextAssembler struct {
	w   io.Writer
	err error
}

func NewTextAssembler(w io.Writer) *TextAssembler {
	t := &TextAssembler{w: w}
	t.line("scent-assembly 1.0")
	return t
}

func (t *TextAssembler) line(parts ...string) error {
	if t.err != nil {
		return t.err
	}
	_, t.err = io.WriteString(t.w, strings.Join(parts, " ")+"\n")
	return t.err
}

func quoted(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\'`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

func fixstr(f fixnum.Fixed) string { return f.Format() }

func (t *TextAssembler) FontStandard(name, baseFont string) error {
	return t.line("font_standard", name, quoted(baseFont))
}

func (t *TextAssembler) FontFile(name, path, format string) error {
	return t.line("font_file", name, quoted(path), format)
}

func (t *TextAssembler) ImageJPEG(name, path string) error {
	return t.line("image_jpeg", name, quoted(path))
}

func (t *TextAssembler) ImagePNG(name, path string) error {
	return t.line("image_png", name, quoted(path))
}

func (t *TextAssembler) BeginPage() error { return t.line("begin", "page") }

func (t *TextAssembler) Dim(w, h fixnum.Fixed) error {
	return t.line("dim", fixstr(w), fixstr(h))
}

func (t *TextAssembler) Box(box string, llx, lly, urx, ury fixnum.Fixed) error {
	verb := map[string]string{"ArtBox": "art_box", "TrimBox": "trim_box", "BleedBox": "bleed_box"}[box]
	return t.line(verb, fixstr(llx), fixstr(lly), fixstr(urx), fixstr(ury))
}

func (t *TextAssembler) ViewRotate(deg int) error {
	return t.line("view_rotate", fmt.Sprint(deg))
}

func (t *TextAssembler) Body() error    { return t.line("body") }
func (t *TextAssembler) EndPage() error { return t.line("end", "page") }
func (t *TextAssembler) Save() error    { return t.line("save") }
func (t *TextAssembler) Restore() error { return t.line("restore") }

func (t *TextAssembler) LineWidth(w fixnum.Fixed) error { return t.line("line_width", fixstr(w)) }
func (t *TextAssembler) LineCap(cap string) error       { return t.line("line_cap", cap) }

func (t *TextAssembler) LineJoin(join string, miter *fixnum.Fixed) error {
	if miter != nil {
		return t.line("line_join", join, fixstr(*miter))
	}
	return t.line("line_join", join)
}

func (t *TextAssembler) LineDash(phase fixnum.Fixed, dashes []fixnum.Fixed) error {
	parts := []string{"line_dash", fixstr(phase)}
	for _, d := range dashes {
		parts = append(parts, fixstr(d))
	}
	return t.line(parts...)
}

func (t *TextAssembler) LineUndash() error { return t.line("line_undash") }

func colorLiteral(c Color) string {
	return fmt.Sprintf("%%%02X%02X%02X%02X", c[0], c[1], c[2], c[3])
}

func (t *TextAssembler) StrokeColor(c Color) error { return t.line("stroke_color", colorLiteral(c)) }
func (t *TextAssembler) FillColor(c Color) error   { return t.line("fill_color", colorLiteral(c)) }

func (t *TextAssembler) Matrix(m [6]fixnum.Fixed) error {
	return t.line("matrix", fixstr(m[0]), fixstr(m[1]), fixstr(m[2]), fixstr(m[3]), fixstr(m[4]), fixstr(m[5]))
}

func (t *TextAssembler) Image(name string) error { return t.line("image", name) }

func (t *TextAssembler) BeginPath(stroke bool, fill, clip Rule) error {
	s := "-"
	if stroke {
		s = "stroke"
	}
	return t.line("begin", "path", s, fill.String(), clip.String())
}

func (t *TextAssembler) Move(x, y fixnum.Fixed) error { return t.line("move", fixstr(x), fixstr(y)) }
func (t *TextAssembler) Line(x, y fixnum.Fixed) error { return t.line("line", fixstr(x), fixstr(y)) }

func (t *TextAssembler) Curve(x2, y2, x3, y3, x4, y4 fixnum.Fixed) error {
	return t.line("curve", fixstr(x2), fixstr(y2), fixstr(x3), fixstr(y3), fixstr(x4), fixstr(y4))
}

func (t *TextAssembler) Close() error { return t.line("close") }

func (t *TextAssembler) Rect(x, y, w, h fixnum.Fixed) error {
	return t.line("rect", fixstr(x), fixstr(y), fixstr(w), fixstr(h))
}

func (t *TextAssembler) EndPath() error { return t.line("end", "path") }

func (t *TextAssembler) BeginText(clip bool) error {
	arg := "-"
	if clip {
		arg = "clip"
	}
	return t.line("begin", "text", arg)
}

func (t *TextAssembler) CSpace(v fixnum.Fixed) error { return t.line("cspace", fixstr(v)) }
func (t *TextAssembler) WSpace(v fixnum.Fixed) error { return t.line("wspace", fixstr(v)) }
func (t *TextAssembler) HScale(v fixnum.Fixed) error { return t.line("hscale", fixstr(v)) }
func (t *TextAssembler) Lead(v fixnum.Fixed) error   { return t.line("lead", fixstr(v)) }

func (t *TextAssembler) Font(name string, size fixnum.Fixed) error {
	return t.line("font", name, fixstr(size))
}

func (t *TextAssembler) TextRender(mode int) error { return t.line("text_render", fmt.Sprint(mode)) }
func (t *TextAssembler) Rise(v fixnum.Fixed) error { return t.line("rise", fixstr(v)) }

func (t *TextAssembler) AdvanceTo(x, y fixnum.Fixed) error {
	return t.line("advance", fixstr(x), fixstr(y))
}

func (t *TextAssembler) AdvanceNext() error { return t.line("advance") }

func (t *TextAssembler) Write(text string) error { return t.line("write", quoted(text)) }
func (t *TextAssembler) EndText() error          { return t.line("end", "text") }

func (t *TextAssembler) Finish() error { return t.err }
