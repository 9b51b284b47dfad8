package assembly

import "github.com/scentlang/scent/fixnum"

// TeeAssembler fans every instruction out to several strategies, for
// example producing a PDF and a canonical text trace in one pass. The
// first strategy error aborts the instruction.
type TeeAssembler struct {
	targets []Assembler
}

func NewTeeAssembler(targets ...Assembler) *TeeAssembler {
	return &TeeAssembler{targets: targets}
}

func (t *TeeAssembler) each(f func(Assembler) error) error {
	for _, a := range t.targets {
		if err := f(a); err != nil {
			return err
		}
	}
	return nil
}

func (t *TeeAssembler) FontStandard(name, baseFont string) error {
	return t.each(func(a Assembler) error { return a.FontStandard(name, baseFont) })
}

func (t *TeeAssembler) FontFile(name, path, format string) error {
	return t.each(func(a Assembler) error { return a.FontFile(name, path, format) })
}

func (t *TeeAssembler) ImageJPEG(name, path string) error {
	return t.each(func(a Assembler) error { return a.ImageJPEG(name, path) })
}

func (t *TeeAssembler) ImagePNG(name, path string) error {
	return t.each(func(a Assembler) error { return a.ImagePNG(name, path) })
}

func (t *TeeAssembler) BeginPage() error {
	return t.each(func(a Assembler) error { return a.BeginPage() })
}

func (t *TeeAssembler) Dim(w, h fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Dim(w, h) })
}

func (t *TeeAssembler) Box(box string, llx, lly, urx, ury fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Box(box, llx, lly, urx, ury) })
}

func (t *TeeAssembler) ViewRotate(deg int) error {
	return t.each(func(a Assembler) error { return a.ViewRotate(deg) })
}

func (t *TeeAssembler) Body() error    { return t.each(func(a Assembler) error { return a.Body() }) }
func (t *TeeAssembler) EndPage() error { return t.each(func(a Assembler) error { return a.EndPage() }) }
func (t *TeeAssembler) Save() error    { return t.each(func(a Assembler) error { return a.Save() }) }
func (t *TeeAssembler) Restore() error { return t.each(func(a Assembler) error { return a.Restore() }) }

func (t *TeeAssembler) LineWidth(w fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.LineWidth(w) })
}

func (t *TeeAssembler) LineCap(cap string) error {
	return t.each(func(a Assembler) error { return a.LineCap(cap) })
}

func (t *TeeAssembler) LineJoin(join string, miter *fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.LineJoin(join, miter) })
}

func (t *TeeAssembler) LineDash(phase fixnum.Fixed, dashes []fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.LineDash(phase, dashes) })
}

func (t *TeeAssembler) LineUndash() error {
	return t.each(func(a Assembler) error { return a.LineUndash() })
}

func (t *TeeAssembler) StrokeColor(c Color) error {
	return t.each(func(a Assembler) error { return a.StrokeColor(c) })
}

func (t *TeeAssembler) FillColor(c Color) error {
	return t.each(func(a Assembler) error { return a.FillColor(c) })
}

func (t *TeeAssembler) Matrix(m [6]fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Matrix(m) })
}

func (t *TeeAssembler) Image(name string) error {
	return t.each(func(a Assembler) error { return a.Image(name) })
}

func (t *TeeAssembler) BeginPath(stroke bool, fill, clip Rule) error {
	return t.each(func(a Assembler) error { return a.BeginPath(stroke, fill, clip) })
}

func (t *TeeAssembler) Move(x, y fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Move(x, y) })
}

func (t *TeeAssembler) Line(x, y fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Line(x, y) })
}

func (t *TeeAssembler) Curve(x2, y2, x3, y3, x4, y4 fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Curve(x2, y2, x3, y3, x4, y4) })
}

func (t *TeeAssembler) Close() error { return t.each(func(a Assembler) error { return a.Close() }) }

func (t *TeeAssembler) Rect(x, y, w, h fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Rect(x, y, w, h) })
}

func (t *TeeAssembler) EndPath() error { return t.each(func(a Assembler) error { return a.EndPath() }) }

func (t *TeeAssembler) BeginText(clip bool) error {
	return t.each(func(a Assembler) error { return a.BeginText(clip) })
}

func (t *TeeAssembler) CSpace(v fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.CSpace(v) })
}

func (t *TeeAssembler) WSpace(v fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.WSpace(v) })
}

func (t *TeeAssembler) HScale(v fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.HScale(v) })
}

func (t *TeeAssembler) Lead(v fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Lead(v) })
}

func (t *TeeAssembler) Font(name string, size fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Font(name, size) })
}

func (t *TeeAssembler) TextRender(mode int) error {
	return t.each(func(a Assembler) error { return a.TextRender(mode) })
}

func (t *TeeAssembler) Rise(v fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.Rise(v) })
}

func (t *TeeAssembler) AdvanceTo(x, y fixnum.Fixed) error {
	return t.each(func(a Assembler) error { return a.AdvanceTo(x, y) })
}

func (t *TeeAssembler) AdvanceNext() error {
	return t.each(func(a Assembler) error { return a.AdvanceNext() })
}

func (t *TeeAssembler) Write(text string) error {
	return t.each(func(a Assembler) error { return a.Write(text) })
}

func (t *TeeAssembler) EndText() error { return t.each(func(a Assembler) error { return a.EndText() }) }
func (t *TeeAssembler) Finish() error  { return t.each(func(a Assembler) error { return a.Finish() }) }
