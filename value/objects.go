package value

import (
	"fmt"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
)

// BoxKind names a boundary box of a ream.
type BoxKind int

const (
	ArtBox BoxKind = iota
	TrimBox
	BleedBox
)

func (b BoxKind) String() string {
	switch b {
	case ArtBox:
		return "ArtBox"
	case TrimBox:
		return "TrimBox"
	case BleedBox:
		return "BleedBox"
	}
	return "?"
}

// Box holds four positive margins measured inward from the paper edges.
type Box struct {
	Left, Top, Right, Bottom fixnum.Fixed
}

// Ream describes unrotated paper with boundary boxes and a display
// rotation.
type Ream struct {
	Width, Height fixnum.Fixed
	Rotation      int // 0, 90, 180, 270
	Boxes         map[BoxKind]Box
}

func (*Ream) Kind() Kind { return KindReam }

// Validate checks the completed ream. bothPrimary permits ArtBox and
// TrimBox to coexist (the permissive dialect); otherwise they are
// mutually exclusive. Exactly one primary box is required either way.
func (r *Ream) Validate(bothPrimary bool) error {
	if r.Width <= 0 || r.Height <= 0 {
		return errs.Domain("ream dimensions must be positive")
	}
	switch r.Rotation {
	case 0, 90, 180, 270:
	default:
		return errs.Domain("ream rotation %d not in {0,90,180,270}", r.Rotation)
	}
	_, hasArt := r.Boxes[ArtBox]
	_, hasTrim := r.Boxes[TrimBox]
	if !hasArt && !hasTrim {
		return errs.Domain("ream requires an ArtBox or a TrimBox")
	}
	if hasArt && hasTrim && !bothPrimary {
		return errs.Domain("ream may not define both ArtBox and TrimBox")
	}
	for kind, b := range r.Boxes {
		if b.Left <= 0 || b.Top <= 0 || b.Right <= 0 || b.Bottom <= 0 {
			return errs.Domain("%s margins must be positive", kind)
		}
		if b.Left+b.Right >= r.Width {
			return errs.Domain("%s horizontal margins exceed width", kind)
		}
		if b.Top+b.Bottom >= r.Height {
			return errs.Domain("%s vertical margins exceed height", kind)
		}
	}
	if bleed, ok := r.Boxes[BleedBox]; ok {
		for _, kind := range []BoxKind{ArtBox, TrimBox} {
			b, ok := r.Boxes[kind]
			if !ok {
				continue
			}
			if b.Left <= bleed.Left || b.Top <= bleed.Top || b.Right <= bleed.Right || b.Bottom <= bleed.Bottom {
				return errs.Domain("%s margins must exceed BleedBox margins", kind)
			}
		}
	}
	return nil
}

// Clone returns a deep copy usable as a fresh builder seed.
func (r *Ream) Clone() *Ream {
	c := &Ream{Width: r.Width, Height: r.Height, Rotation: r.Rotation}
	if r.Boxes != nil {
		c.Boxes = make(map[BoxKind]Box, len(r.Boxes))
		for k, v := range r.Boxes {
			c.Boxes[k] = v
		}
	}
	return c
}

// Color is a CMYK tuple; channels are fixed-point in [0,255].
type Color struct {
	C, M, Y, K fixnum.Fixed
}

func (*Color) Kind() Kind { return KindColor }

// Hex renders the color as '%' plus eight hex digits, one byte per
// channel, rounding fractional channels.
func (c *Color) Hex() string {
	b := func(f fixnum.Fixed) int64 {
		v := (int64(f) + fixnum.Scale/2) / fixnum.Scale
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return v
	}
	return fmt.Sprintf("%%%02X%02X%02X%02X", b(c.C), b(c.M), b(c.Y), b(c.K))
}

// CapStyle and JoinStyle mirror the PDF line cap/join enums.
type CapStyle int

const (
	CapButt CapStyle = iota
	CapRound
	CapSquare
)

type JoinStyle int

const (
	JoinMiter JoinStyle = iota
	JoinRound
	JoinBevel
)

// DashPattern is an on/off length run plus a phase.
type DashPattern struct {
	Dashes []fixnum.Fixed
	Phase  fixnum.Fixed
}

func (*DashPattern) Kind() Kind { return KindDash }

// Stroke aggregates the pen state for outline painting.
type Stroke struct {
	Color      *Color
	Width      fixnum.Fixed
	Cap        CapStyle
	Join       JoinStyle
	MiterLimit fixnum.Fixed // meaningful only when Join == JoinMiter
	Dash       *DashPattern // nil for solid lines
}

func (*Stroke) Kind() Kind { return KindStroke }

func (s *Stroke) Clone() *Stroke {
	c := *s
	if s.Dash != nil {
		d := *s.Dash
		d.Dashes = append([]fixnum.Fixed(nil), s.Dash.Dashes...)
		c.Dash = &d
	}
	return &c
}

// FontVariant discriminates the font kinds.
type FontVariant int

const (
	FontBuiltIn FontVariant = iota
	FontFile
	FontSynthetic
)

// Alterations are the optional synthetic-font overrides. Nil pointers
// mean "inherit from the base".
type Alterations struct {
	HScale      *fixnum.Fixed
	Oblique     *fixnum.Fixed
	Boldness    *fixnum.Fixed
	SmallCaps   *bool
	CharSpacing *fixnum.Fixed
}

// Font is one of the three font kinds. File fonts carry the loader
// handle; synthetic fonts always point at a non-synthetic base (chains
// collapse at construction).
type Font struct {
	Variant  FontVariant
	Name     string // builtin base-font name
	Path     string // file fonts
	Res      string // assigned page-resource name
	Base     *Font  // synthetic fonts
	Alter    Alterations
	Resource interface{} // opaque loader handle for file fonts
}

func (*Font) Kind() Kind { return KindFont }

// Root returns the non-synthetic font underneath f.
func (f *Font) Root() *Font {
	for f.Variant == FontSynthetic {
		f = f.Base
	}
	return f
}

// EffectiveAlterations resolves the single collapsed override layer.
func (f *Font) EffectiveAlterations() Alterations {
	if f.Variant != FontSynthetic {
		return Alterations{}
	}
	return f.Alter
}

// ImageFormat is the supported raster formats.
type ImageFormat int

const (
	ImageJPEG ImageFormat = iota
	ImagePNG
)

func (f ImageFormat) String() string {
	if f == ImageJPEG {
		return "JPEG"
	}
	return "PNG"
}

// ImageColorModel is the accepted colour layouts.
type ImageColorModel int

const (
	ModelGray ImageColorModel = iota
	ModelRGB                  // YCbCr (JPEG) or truecolour (PNG)
	ModelIndexed              // PNG palette
)

// Image is a validated raster resource.
type Image struct {
	Path     string
	Format   ImageFormat
	Width    int
	Height   int
	Model    ImageColorModel
	Name     string      // assigned resource name
	Resource interface{} // opaque loader handle
}

func (*Image) Kind() Kind { return KindImage }

// FillRule selects the interior test for fill and clip.
type FillRule int

const (
	RuleNonzero FillRule = iota
	RuleEvenOdd
	RuleNull // outline-only paths; fill and clip use forbidden
)

// Point is a fixed-point coordinate pair.
type Point struct {
	X, Y fixnum.Fixed
}

// SegKind discriminates motion segments.
type SegKind int

const (
	SegLine SegKind = iota
	SegCubic
)

// Segment extends a motion subpath: a line to P, or a cubic through
// control points C1, C2 ending at P.
type Segment struct {
	Kind   SegKind
	C1, C2 Point
	P      Point
}

// Subpath is one contour: an axis-aligned rectangle or a motion.
type Subpath interface {
	subpath()
}

// Rect is a rectangle subpath anchored at its lower-left corner.
type Rect struct {
	Corner Point
	W, H   fixnum.Fixed
}

func (Rect) subpath() {}

// Motion is a start point, a segment run, and a closed flag.
type Motion struct {
	Start  Point
	Segs   []Segment
	Closed bool
}

func (Motion) subpath() {}

// Path is an ordered subpath list with a fill rule.
type Path struct {
	Subpaths []Subpath
	Rule     FillRule
}

func (*Path) Kind() Kind { return KindPath }

// Transform is a 2D affine map stored in PDF order [a b c d e f].
type Transform struct {
	M [6]float64
}

func (*Transform) Kind() Kind { return KindTransform }

// Identity returns the identity transform.
func Identity() *Transform { return &Transform{M: [6]float64{1, 0, 0, 1, 0, 0}} }

// Concat returns t∘u: u applied first, then t.
func Concat(t, u *Transform) *Transform {
	a := t.M
	b := u.M
	return &Transform{M: [6]float64{
		b[0]*a[0] + b[1]*a[2],
		b[0]*a[1] + b[1]*a[3],
		b[2]*a[0] + b[3]*a[2],
		b[2]*a[1] + b[3]*a[3],
		b[4]*a[0] + b[5]*a[2] + a[4],
		b[4]*a[1] + b[5]*a[3] + a[5],
	}}
}

// Span is a run of text in one style.
type Span struct {
	Text  string
	Style *Style
}

// Line is a baseline start plus at least one span.
type Line struct {
	X, Y  fixnum.Fixed
	Spans []Span
}

// Column is an ordered list of lines.
type Column struct {
	Lines []Line
}

func (*Column) Kind() Kind { return KindColumn }

// Style is the full text-painting state for a span.
type Style struct {
	Font      *Font
	Size      fixnum.Fixed
	CharSpace fixnum.Fixed
	WordSpace fixnum.Fixed
	HScale    fixnum.Fixed
	Rise      fixnum.Fixed
	Stroke    *Stroke
	Fill      *Color
}

func (*Style) Kind() Kind { return KindStyle }

func (s *Style) Clone() *Style {
	c := *s
	return &c
}

// RenderMode computes the PDF text render mode integer for the style's
// stroke/fill state and a clip flag.
func (s *Style) RenderMode(clip bool) int {
	mode := 3 // invisible
	switch {
	case s.Fill != nil && s.Stroke != nil:
		mode = 2
	case s.Fill != nil:
		mode = 0
	case s.Stroke != nil:
		mode = 1
	}
	if clip {
		mode += 4
	}
	return mode
}

// ClipComponent is one clip shape with its placement transform.
type ClipComponent struct {
	Shape Value // *Path or *Column
	Tx    *Transform
}

// Clipping is an unordered component set; the effective region is the
// intersection of all components with the page.
type Clipping struct {
	Components []ClipComponent
}

func (*Clipping) Kind() Kind { return KindClipping }
