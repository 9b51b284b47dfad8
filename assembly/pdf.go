package assembly

import (
	"io"

	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/fonts"
	"github.com/scentlang/scent/images"
	"github.com/scentlang/scent/value"
	"github.com/scentlang/scent/writer"
)

// PDFAssembler maps validated instructions onto the PDF writer. Page
// geometry is buffered during the header and committed at body, when
// the page-wide wrapper save is emitted.
type PDFAssembler struct {
	doc        *writer.Document
	out        io.Writer
	fontLoader fonts.Loader
	imgLoader  images.Loader

	content *writer.Content

	// header accumulation
	dimW, dimH fixnum.Fixed
	boxes      map[string][4]fixnum.Fixed
	rotate     int

	paint        paintSpec
	textClip     bool
}

// NewPDFAssembler writes the finished document to out.
func NewPDFAssembler(out io.Writer, cfg writer.Config, fontLoader fonts.Loader, imageLoader images.Loader) *PDFAssembler {
	if fontLoader == nil {
		fontLoader = fonts.NewLoader()
	}
	if imageLoader == nil {
		imageLoader = images.NewLoader()
	}
	return &PDFAssembler{doc: writer.NewDocument(cfg), out: out, fontLoader: fontLoader, imgLoader: imageLoader}
}

func fl(f fixnum.Fixed) float64 { return f.Float() }

func (p *PDFAssembler) FontStandard(name, baseFont string) error {
	return p.doc.AddStandardFont(name, baseFont)
}

func (p *PDFAssembler) FontFile(name, path, format string) error {
	m, err := p.fontLoader.LoadTrueType(path)
	if err != nil {
		return err
	}
	return p.doc.AddFileFont(name, m)
}

func (p *PDFAssembler) ImageJPEG(name, path string) error {
	h, err := p.imgLoader.Load(path, value.ImageJPEG)
	if err != nil {
		return err
	}
	return p.doc.AddImage(name, h)
}

func (p *PDFAssembler) ImagePNG(name, path string) error {
	h, err := p.imgLoader.Load(path, value.ImagePNG)
	if err != nil {
		return err
	}
	return p.doc.AddImage(name, h)
}

func (p *PDFAssembler) BeginPage() error {
	p.dimW, p.dimH = 0, 0
	p.rotate = 0
	p.boxes = make(map[string][4]fixnum.Fixed)
	return nil
}

func (p *PDFAssembler) Dim(w, h fixnum.Fixed) error {
	p.dimW, p.dimH = w, h
	return nil
}

func (p *PDFAssembler) Box(box string, llx, lly, urx, ury fixnum.Fixed) error {
	p.boxes[box] = [4]fixnum.Fixed{llx, lly, urx, ury}
	return nil
}

func (p *PDFAssembler) ViewRotate(deg int) error {
	p.rotate = deg
	return nil
}

func (p *PDFAssembler) Body() error {
	content, err := p.doc.BeginPage(fl(p.dimW), fl(p.dimH))
	if err != nil {
		return err
	}
	p.content = content
	for box, v := range p.boxes {
		if err := p.doc.SetBox(writer.BoxName(box), fl(v[0]), fl(v[1]), fl(v[2]), fl(v[3])); err != nil {
			return err
		}
	}
	if p.rotate != 0 {
		if err := p.doc.SetRotation(p.rotate); err != nil {
			return err
		}
	}
	p.content.Save() // page-wide wrapper
	return nil
}

func (p *PDFAssembler) EndPage() error {
	p.content.Restore()
	p.content = nil
	return p.doc.EndPage()
}

func (p *PDFAssembler) Save() error    { p.content.Save(); return nil }
func (p *PDFAssembler) Restore() error { p.content.Restore(); return nil }

func (p *PDFAssembler) LineWidth(w fixnum.Fixed) error {
	p.content.LineWidth(fl(w))
	return nil
}

func (p *PDFAssembler) LineCap(cap string) error {
	v := map[string]int{"butt": 0, "round": 1, "square": 2}[cap]
	p.content.LineCap(v)
	return nil
}

func (p *PDFAssembler) LineJoin(join string, miter *fixnum.Fixed) error {
	v := map[string]int{"miter": 0, "round": 1, "bevel": 2}[join]
	p.content.LineJoin(v)
	if miter != nil {
		p.content.MiterLimit(fl(*miter))
	}
	return nil
}

func (p *PDFAssembler) LineDash(phase fixnum.Fixed, dashes []fixnum.Fixed) error {
	ds := make([]float64, len(dashes))
	for i, d := range dashes {
		ds[i] = fl(d)
	}
	p.content.DashPattern(ds, fl(phase))
	return nil
}

func (p *PDFAssembler) LineUndash() error {
	p.content.SolidLine()
	return nil
}

func channel(b uint8) float64 { return float64(b) / 255 }

func (p *PDFAssembler) StrokeColor(c Color) error {
	p.content.StrokeColor(channel(c[0]), channel(c[1]), channel(c[2]), channel(c[3]))
	return nil
}

func (p *PDFAssembler) FillColor(c Color) error {
	p.content.FillColor(channel(c[0]), channel(c[1]), channel(c[2]), channel(c[3]))
	return nil
}

func (p *PDFAssembler) Matrix(m [6]fixnum.Fixed) error {
	p.content.Matrix(fl(m[0]), fl(m[1]), fl(m[2]), fl(m[3]), fl(m[4]), fl(m[5]))
	return nil
}

func (p *PDFAssembler) Image(name string) error {
	p.content.Image(name)
	return nil
}

type paintSpec struct {
	stroke     bool
	fill, clip Rule
}

func (p *PDFAssembler) BeginPath(stroke bool, fill, clip Rule) error {
	p.paint = paintSpec{stroke: stroke, fill: fill, clip: clip}
	return nil
}

func (p *PDFAssembler) Move(x, y fixnum.Fixed) error {
	p.content.Move(fl(x), fl(y))
	return nil
}

func (p *PDFAssembler) Line(x, y fixnum.Fixed) error {
	p.content.Line(fl(x), fl(y))
	return nil
}

func (p *PDFAssembler) Curve(x2, y2, x3, y3, x4, y4 fixnum.Fixed) error {
	p.content.Curve(fl(x2), fl(y2), fl(x3), fl(y3), fl(x4), fl(y4))
	return nil
}

func (p *PDFAssembler) Close() error {
	p.content.ClosePath()
	return nil
}

func (p *PDFAssembler) Rect(x, y, w, h fixnum.Fixed) error {
	p.content.Rect(fl(x), fl(y), fl(w), fl(h))
	return nil
}

func paintRule(r Rule) writer.PaintRule {
	switch r {
	case RuleNonzero:
		return writer.PaintNonzero
	case RuleEvenOdd:
		return writer.PaintEvenOdd
	}
	return writer.PaintNone
}

func (p *PDFAssembler) EndPath() error {
	p.content.PaintPath(p.paint.stroke, paintRule(p.paint.fill), paintRule(p.paint.clip))
	return nil
}

func (p *PDFAssembler) BeginText(clip bool) error {
	p.textClip = clip
	p.content.BeginText()
	if clip {
		// Glyphs join the clip region; TextRender keeps the clip bit.
		p.content.Render(7)
	}
	return nil
}

func (p *PDFAssembler) CSpace(v fixnum.Fixed) error {
	p.content.CharSpacing(fl(v))
	return nil
}

func (p *PDFAssembler) WSpace(v fixnum.Fixed) error {
	p.content.WordSpacing(fl(v))
	return nil
}

func (p *PDFAssembler) HScale(v fixnum.Fixed) error {
	p.content.HScale(fl(v))
	return nil
}

func (p *PDFAssembler) Lead(v fixnum.Fixed) error {
	p.content.Leading(fl(v))
	return nil
}

func (p *PDFAssembler) Font(name string, size fixnum.Fixed) error {
	p.content.FontSize(name, fl(size))
	return nil
}

func (p *PDFAssembler) TextRender(mode int) error {
	if p.textClip && mode < 4 {
		mode += 4
	}
	p.content.Render(mode)
	return nil
}

func (p *PDFAssembler) Rise(v fixnum.Fixed) error {
	p.content.Rise(fl(v))
	return nil
}

func (p *PDFAssembler) AdvanceTo(x, y fixnum.Fixed) error {
	p.content.Advance(fl(x), fl(y))
	return nil
}

func (p *PDFAssembler) AdvanceNext() error {
	p.content.NextLine()
	return nil
}

func (p *PDFAssembler) Write(text string) error {
	p.content.ShowText(text)
	return nil
}

func (p *PDFAssembler) EndText() error {
	p.content.EndText()
	return nil
}

func (p *PDFAssembler) Finish() error {
	return p.doc.Finish(p.out)
}
