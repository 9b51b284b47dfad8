package writer

import (
	"fmt"
	"strings"
)

// Content accumulates one page's content stream. Every mutator appends
// an operator line; the assembly processor has already validated
// ordering, so no state is tracked here beyond the byte stream.
type Content struct {
	b strings.Builder
}

func (c *Content) op(args ...string) {
	c.b.WriteString(strings.Join(args, " "))
	c.b.WriteByte('\n')
}

func num(f float64) string { return formatFloat(f) }

func (c *Content) Save()    { c.op("q") }
func (c *Content) Restore() { c.op("Q") }

func (c *Content) LineWidth(w float64)  { c.op(num(w), "w") }
func (c *Content) LineCap(v int)        { c.op(fmt.Sprint(v), "J") }
func (c *Content) LineJoin(v int)       { c.op(fmt.Sprint(v), "j") }
func (c *Content) MiterLimit(v float64) { c.op(num(v), "M") }

func (c *Content) DashPattern(dashes []float64, phase float64) {
	parts := make([]string, 0, len(dashes))
	for _, d := range dashes {
		parts = append(parts, num(d))
	}
	c.op("["+strings.Join(parts, " ")+"]", num(phase), "d")
}

func (c *Content) SolidLine() { c.op("[]", "0", "d") }

// Colors arrive as CMYK channels in [0,1].
func (c *Content) StrokeColor(cy, m, y, k float64) {
	c.op(num(cy), num(m), num(y), num(k), "K")
}

func (c *Content) FillColor(cy, m, y, k float64) {
	c.op(num(cy), num(m), num(y), num(k), "k")
}

func (c *Content) Matrix(a, b, cc, d, e, f float64) {
	c.op(num(a), num(b), num(cc), num(d), num(e), num(f), "cm")
}

// Image paints the named XObject into the (0,0)-(1,1) unit square; the
// caller establishes the placement matrix first.
func (c *Content) Image(name string) { c.op("/"+name, "Do") }

func (c *Content) Move(x, y float64) { c.op(num(x), num(y), "m") }
func (c *Content) Line(x, y float64) { c.op(num(x), num(y), "l") }
func (c *Content) Curve(x2, y2, x3, y3, x4, y4 float64) {
	c.op(num(x2), num(y2), num(x3), num(y3), num(x4), num(y4), "c")
}
func (c *Content) ClosePath()            { c.op("h") }
func (c *Content) Rect(x, y, w, h float64) { c.op(num(x), num(y), num(w), num(h), "re") }

// PaintRule selects a fill interior test, or none.
type PaintRule int

const (
	PaintNone PaintRule = iota
	PaintNonzero
	PaintEvenOdd
)

// PaintPath ends the current path: optional clip installation, then the
// stroke/fill paint operator.
func (c *Content) PaintPath(stroke bool, fill, clip PaintRule) {
	if clip != PaintNone {
		if clip == PaintEvenOdd {
			c.op("W*")
		} else {
			c.op("W")
		}
	}
	switch {
	case stroke && fill == PaintNonzero:
		c.op("B")
	case stroke && fill == PaintEvenOdd:
		c.op("B*")
	case stroke:
		c.op("S")
	case fill == PaintNonzero:
		c.op("f")
	case fill == PaintEvenOdd:
		c.op("f*")
	default:
		c.op("n")
	}
}

func (c *Content) BeginText() { c.op("BT") }
func (c *Content) EndText()   { c.op("ET") }

func (c *Content) CharSpacing(v float64) { c.op(num(v), "Tc") }
func (c *Content) WordSpacing(v float64) { c.op(num(v), "Tw") }

// HScale takes the scale as a factor; the operator wants percent.
func (c *Content) HScale(v float64) { c.op(num(v*100), "Tz") }

func (c *Content) Leading(v float64)         { c.op(num(v), "TL") }
func (c *Content) Render(mode int)           { c.op(fmt.Sprint(mode), "Tr") }
func (c *Content) Rise(v float64)            { c.op(num(v), "Ts") }
func (c *Content) FontSize(name string, size float64) { c.op("/"+name, num(size), "Tf") }
func (c *Content) Advance(x, y float64)      { c.op(num(x), num(y), "Td") }
func (c *Content) NextLine()                 { c.op("T*") }

// ShowText writes s with the selected font. Text is emitted in a
// single-byte encoding; runes beyond it degrade to '?'.
func (c *Content) ShowText(s string) {
	var enc []byte
	for _, r := range s {
		if r < 256 {
			enc = append(enc, byte(r))
		} else {
			enc = append(enc, '?')
		}
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, ch := range enc {
		switch ch {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte(')')
	c.op(b.String(), "Tj")
}

// Bytes returns the accumulated stream.
func (c *Content) Bytes() []byte { return []byte(c.b.String()) }
