// Package assembly implements the instruction language: a line-based
// text format, a layered state machine validating mode and ordering
// invariants, and pluggable assembler strategies that receive
// pre-validated instructions.
package assembly

import "github.com/scentlang/scent/fixnum"

// Rule is a fill/clip interior rule argument ('-' when absent).
type Rule int

const (
	RuleNone Rule = iota
	RuleNonzero
	RuleEvenOdd
)

func (r Rule) String() string {
	switch r {
	case RuleNonzero:
		return "nonzero"
	case RuleEvenOdd:
		return "evenodd"
	}
	return "-"
}

// Color is four CMYK channel bytes.
type Color [4]uint8

// Assembler is the strategy behind the state machine: one method per
// instruction, invoked only with validated arguments in a validated
// order. Implementations hold no validation logic of their own.
type Assembler interface {
	FontStandard(name, baseFont string) error
	FontFile(name, path, format string) error
	ImageJPEG(name, path string) error
	ImagePNG(name, path string) error

	BeginPage() error
	Dim(w, h fixnum.Fixed) error
	Box(box string, llx, lly, urx, ury fixnum.Fixed) error
	ViewRotate(deg int) error
	Body() error
	EndPage() error

	Save() error
	Restore() error
	LineWidth(w fixnum.Fixed) error
	LineCap(cap string) error
	LineJoin(join string, miter *fixnum.Fixed) error
	LineDash(phase fixnum.Fixed, dashes []fixnum.Fixed) error
	LineUndash() error
	StrokeColor(c Color) error
	FillColor(c Color) error
	Matrix(m [6]fixnum.Fixed) error
	Image(name string) error

	BeginPath(stroke bool, fill, clip Rule) error
	Move(x, y fixnum.Fixed) error
	Line(x, y fixnum.Fixed) error
	Curve(x2, y2, x3, y3, x4, y4 fixnum.Fixed) error
	Close() error
	Rect(x, y, w, h fixnum.Fixed) error
	EndPath() error

	BeginText(clip bool) error
	CSpace(v fixnum.Fixed) error
	WSpace(v fixnum.Fixed) error
	HScale(v fixnum.Fixed) error
	Lead(v fixnum.Fixed) error
	Font(name string, size fixnum.Fixed) error
	TextRender(mode int) error
	Rise(v fixnum.Fixed) error
	AdvanceTo(x, y fixnum.Fixed) error
	AdvanceNext() error
	Write(text string) error
	EndText() error

	Finish() error
}
