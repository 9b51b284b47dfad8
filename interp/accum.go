package interp

import (
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/value"
)

// accumulator is the single-slot register for in-progress objects.
type accumulator interface {
	what() string
}

type reamPartial struct {
	ream value.Ream
}

func (*reamPartial) what() string { return "ream" }

type strokePartial struct {
	color    *value.Color
	width    fixnum.Fixed
	widthSet bool
	cap      value.CapStyle
	join     value.JoinStyle
	miter    fixnum.Fixed
	dash     *value.DashPattern
}

func (*strokePartial) what() string { return "stroke" }

type pathMode int

const (
	pathInitial pathMode = iota // empty
	pathStart                   // motion opened, no segments yet
	pathSubpath                 // motion with at least one segment
	pathReady                   // completed subpaths present
)

type pathPartial struct {
	mode     pathMode
	subpaths []value.Subpath
	motion   value.Motion
}

func (*pathPartial) what() string { return "path" }

type stylePartial struct {
	style value.Style
}

func (*stylePartial) what() string { return "style" }

type columnMode int

const (
	columnInitial columnMode = iota
	columnLine
)

type columnPartial struct {
	mode  columnMode
	lines []value.Line
	line  value.Line
}

func (*columnPartial) what() string { return "column" }

func (ev *Evaluator) startAccum(a accumulator) error {
	if ev.accum != nil {
		return errs.State("cannot start a %s while a %s is being built", a.what(), ev.accum.what())
	}
	ev.accum = a
	return nil
}

func (ev *Evaluator) reamAccum(op string) (*reamPartial, error) {
	p, ok := ev.accum.(*reamPartial)
	if !ok {
		return nil, errs.State("%s requires an open ream builder", op)
	}
	return p, nil
}

func (ev *Evaluator) strokeAccum(op string) (*strokePartial, error) {
	p, ok := ev.accum.(*strokePartial)
	if !ok {
		return nil, errs.State("%s requires an open stroke builder", op)
	}
	return p, nil
}

func (ev *Evaluator) pathAccum(op string) (*pathPartial, error) {
	p, ok := ev.accum.(*pathPartial)
	if !ok {
		return nil, errs.State("%s requires an open path builder", op)
	}
	return p, nil
}

func (ev *Evaluator) styleAccum(op string) (*stylePartial, error) {
	p, ok := ev.accum.(*stylePartial)
	if !ok {
		return nil, errs.State("%s requires an open style builder", op)
	}
	return p, nil
}

func (ev *Evaluator) columnAccum(op string) (*columnPartial, error) {
	p, ok := ev.accum.(*columnPartial)
	if !ok {
		return nil, errs.State("%s requires an open column builder", op)
	}
	return p, nil
}

// --- ream (Dialect B accumulator) ---

func opStartReam(ev *Evaluator) error {
	return ev.startAccum(&reamPartial{ream: value.Ream{Boxes: make(map[value.BoxKind]value.Box)}})
}

func opReamDim(ev *Evaluator) error {
	p, err := ev.reamAccum("ream_dim")
	if err != nil {
		return err
	}
	h, err := ev.popFixed()
	if err != nil {
		return err
	}
	w, err := ev.popFixed()
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return errs.Domain("ream dimensions must be positive")
	}
	p.ream.Width, p.ream.Height = w, h
	return nil
}

func opReamRotate(ev *Evaluator) error {
	p, err := ev.reamAccum("ream_rotate")
	if err != nil {
		return err
	}
	n, err := ev.popInteger()
	if err != nil {
		return err
	}
	switch n {
	case 0, 90, 180, 270:
	default:
		return errs.Domain("rotation %d not in {0,90,180,270}", n)
	}
	p.ream.Rotation = int(n)
	return nil
}

func boxKindOf(a value.Atom) (value.BoxKind, error) {
	switch a {
	case "ArtBox":
		return value.ArtBox, nil
	case "TrimBox":
		return value.TrimBox, nil
	case "BleedBox":
		return value.BleedBox, nil
	}
	return 0, errs.Domain("%q is not a boundary box", string(a))
}

func opReamBound(ev *Evaluator) error {
	p, err := ev.reamAccum("ream_bound")
	if err != nil {
		return err
	}
	var m [4]fixnum.Fixed // left top right bottom, popped in reverse
	for i := 3; i >= 0; i-- {
		f, err := ev.popFixed()
		if err != nil {
			return err
		}
		if f <= 0 {
			return errs.Domain("box margins must be positive")
		}
		m[i] = f
	}
	a, err := ev.popAtom()
	if err != nil {
		return err
	}
	kind, err := boxKindOf(a)
	if err != nil {
		return err
	}
	p.ream.Boxes[kind] = value.Box{Left: m[0], Top: m[1], Right: m[2], Bottom: m[3]}
	return nil
}

func opReamUnbound(ev *Evaluator) error {
	p, err := ev.reamAccum("ream_unbound")
	if err != nil {
		return err
	}
	a, err := ev.popAtom()
	if err != nil {
		return err
	}
	kind, err := boxKindOf(a)
	if err != nil {
		return err
	}
	delete(p.ream.Boxes, kind)
	return nil
}

func opReamDerive(ev *Evaluator) error {
	p, err := ev.reamAccum("ream_derive")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	r, ok := v.(*value.Ream)
	if !ok {
		return errs.Type("ream_derive expects a ream, got %s", v.Kind())
	}
	p.ream = *r.Clone()
	return nil
}

func opFinishReam(ev *Evaluator) error {
	p, err := ev.reamAccum("finish_ream")
	if err != nil {
		return err
	}
	r := p.ream.Clone()
	if err := r.Validate(ev.dialect == scanner.DialectA); err != nil {
		return err
	}
	ev.accum = nil
	ev.push(r)
	return nil
}

// --- ream (Dialect A dictionary form) ---

func opReamDict(ev *Evaluator) error {
	d, err := ev.popDict()
	if err != nil {
		return err
	}
	r := &value.Ream{Boxes: make(map[value.BoxKind]value.Box)}
	for key, v := range d {
		switch key {
		case "Width":
			if r.Width, err = fixedFromValue(v); err != nil {
				return err
			}
		case "Height":
			if r.Height, err = fixedFromValue(v); err != nil {
				return err
			}
		case "Rotate":
			n, ok := v.(value.Integer)
			if !ok {
				return errs.Type("Rotate must be an integer")
			}
			r.Rotation = int(n)
		case "ArtBox", "TrimBox", "BleedBox":
			bd, ok := v.(value.Dict)
			if !ok {
				return errs.Type("%s must be a dictionary", string(key))
			}
			box, err := boxFromDict(bd)
			if err != nil {
				return err
			}
			kind, _ := boxKindOf(key)
			r.Boxes[kind] = box
		default:
			return errs.Domain("unknown ream key %q", string(key))
		}
	}
	if err := r.Validate(true); err != nil {
		return err
	}
	ev.push(r)
	return nil
}

func boxFromDict(d value.Dict) (value.Box, error) {
	var b value.Box
	for key, v := range d {
		f, err := fixedFromValue(v)
		if err != nil {
			return b, err
		}
		switch key {
		case "Left":
			b.Left = f
		case "Top":
			b.Top = f
		case "Right":
			b.Right = f
		case "Bottom":
			b.Bottom = f
		default:
			return b, errs.Domain("unknown box key %q", string(key))
		}
	}
	if b.Left <= 0 || b.Top <= 0 || b.Right <= 0 || b.Bottom <= 0 {
		return b, errs.Domain("box requires four positive margins")
	}
	return b, nil
}

// --- stroke (Dialect B accumulator) ---

func opStartStroke(ev *Evaluator) error {
	return ev.startAccum(&strokePartial{cap: value.CapButt, join: value.JoinMiter, miter: 10 * fixnum.Scale})
}

func opStrokeWidth(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_width")
	if err != nil {
		return err
	}
	w, err := ev.popFixed()
	if err != nil {
		return err
	}
	if w <= 0 {
		return errs.Domain("stroke width must be positive")
	}
	p.width = w
	p.widthSet = true
	return nil
}

func opStrokeColor(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_color")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	c, ok := v.(*value.Color)
	if !ok {
		return errs.Type("stroke_color expects a color, got %s", v.Kind())
	}
	p.color = c
	return nil
}

func opStrokeCap(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_cap")
	if err != nil {
		return err
	}
	a, err := ev.popAtom()
	if err != nil {
		return err
	}
	switch a {
	case "Butt":
		p.cap = value.CapButt
	case "Round":
		p.cap = value.CapRound
	case "Square":
		p.cap = value.CapSquare
	default:
		return errs.Domain("%q is not a cap style", string(a))
	}
	return nil
}

func opStrokeJoin(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_join")
	if err != nil {
		return err
	}
	a, err := ev.popAtom()
	if err != nil {
		return err
	}
	switch a {
	case "Round":
		p.join = value.JoinRound
	case "Bevel":
		p.join = value.JoinBevel
	default:
		return errs.Domain("stroke_join takes Round or Bevel; use stroke_join_r for miter joins")
	}
	p.miter = 0
	return nil
}

func opStrokeJoinR(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_join_r")
	if err != nil {
		return err
	}
	limit, err := ev.popFixed()
	if err != nil {
		return err
	}
	if limit <= 0 {
		return errs.Domain("miter limit must be positive")
	}
	p.join = value.JoinMiter
	p.miter = limit
	return nil
}

func opStrokeDash(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_dash")
	if err != nil {
		return err
	}
	phase, err := ev.popFixed()
	if err != nil {
		return err
	}
	if phase < 0 {
		return errs.Domain("dash phase must not be negative")
	}
	dashes, err := ev.popDashRun()
	if err != nil {
		return err
	}
	if len(dashes)%2 != 0 || len(dashes) == 0 {
		return errs.Domain("dash runs need an even length of at least two")
	}
	p.dash = &value.DashPattern{Dashes: dashes, Phase: phase}
	return nil
}

func (ev *Evaluator) popDashRun() ([]fixnum.Fixed, error) {
	n, err := ev.popInteger()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errs.Domain("negative dash count")
	}
	dashes := make([]fixnum.Fixed, n)
	for i := int(n) - 1; i >= 0; i-- {
		f, err := ev.popFixed()
		if err != nil {
			return nil, err
		}
		if f <= 0 {
			return nil, errs.Domain("dash lengths must be positive")
		}
		dashes[i] = f
	}
	return dashes, nil
}

func opStrokeUndash(ev *Evaluator) error {
	p, err := ev.strokeAccum("stroke_undash")
	if err != nil {
		return err
	}
	p.dash = nil
	return nil
}

func opFinishStroke(ev *Evaluator) error {
	p, err := ev.strokeAccum("finish_stroke")
	if err != nil {
		return err
	}
	if !p.widthSet {
		return errs.State("stroke requires a width")
	}
	if p.color == nil {
		return errs.State("stroke requires a color")
	}
	s := &value.Stroke{Color: p.color, Width: p.width, Cap: p.cap, Join: p.join, Dash: p.dash}
	if p.join == value.JoinMiter {
		s.MiterLimit = p.miter
	}
	ev.accum = nil
	ev.push(s)
	return nil
}

// --- stroke (Dialect A dictionary form) ---

func opDashPattern(ev *Evaluator) error {
	phase, err := ev.popFixed()
	if err != nil {
		return err
	}
	if phase < 0 {
		return errs.Domain("dash phase must not be negative")
	}
	dashes, err := ev.popDashRun()
	if err != nil {
		return err
	}
	// The dictionary dialect additionally permits the one-element form.
	if len(dashes) > 1 && len(dashes)%2 != 0 {
		return errs.Domain("dash runs need a single length or an even count")
	}
	ev.push(&value.DashPattern{Dashes: dashes, Phase: phase})
	return nil
}

func opStrokeStyle(ev *Evaluator) error {
	d, err := ev.popDict()
	if err != nil {
		return err
	}
	s, err := strokeFromDict(d, nil)
	if err != nil {
		return err
	}
	ev.push(s)
	return nil
}

func opStrokeDerive(ev *Evaluator) error {
	d, err := ev.popDict()
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	base, ok := v.(*value.Stroke)
	if !ok {
		return errs.Type("stroke_derive expects a stroke, got %s", v.Kind())
	}
	s, err := strokeFromDict(d, base)
	if err != nil {
		return err
	}
	ev.push(s)
	return nil
}

func strokeFromDict(d value.Dict, base *value.Stroke) (*value.Stroke, error) {
	s := &value.Stroke{Cap: value.CapButt, Join: value.JoinMiter, MiterLimit: 10 * fixnum.Scale}
	if base != nil {
		s = base.Clone()
	}
	widthSet := base != nil
	colorSet := base != nil
	miterSet := false
	for key, v := range d {
		switch key {
		case "Color":
			c, ok := v.(*value.Color)
			if !ok {
				return nil, errs.Type("Color must be a color")
			}
			s.Color = c
			colorSet = true
		case "Width":
			w, err := fixedFromValue(v)
			if err != nil {
				return nil, err
			}
			if w <= 0 {
				return nil, errs.Domain("stroke width must be positive")
			}
			s.Width = w
			widthSet = true
		case "Cap":
			a, ok := v.(value.Atom)
			if !ok {
				return nil, errs.Type("Cap must be an atom")
			}
			switch a {
			case "Butt":
				s.Cap = value.CapButt
			case "Round":
				s.Cap = value.CapRound
			case "Square":
				s.Cap = value.CapSquare
			default:
				return nil, errs.Domain("%q is not a cap style", string(a))
			}
		case "Join":
			a, ok := v.(value.Atom)
			if !ok {
				return nil, errs.Type("Join must be an atom")
			}
			switch a {
			case "Miter":
				s.Join = value.JoinMiter
			case "Round":
				s.Join = value.JoinRound
			case "Bevel":
				s.Join = value.JoinBevel
			default:
				return nil, errs.Domain("%q is not a join style", string(a))
			}
		case "MiterLimit":
			f, err := fixedFromValue(v)
			if err != nil {
				return nil, err
			}
			if f <= 0 {
				return nil, errs.Domain("miter limit must be positive")
			}
			s.MiterLimit = f
			miterSet = true
		case "Dash":
			switch dv := v.(type) {
			case *value.DashPattern:
				s.Dash = dv
			case value.Null:
				s.Dash = nil
			default:
				return nil, errs.Type("Dash must be a dash pattern or null")
			}
		default:
			return nil, errs.Domain("unknown stroke key %q", string(key))
		}
	}
	if !widthSet {
		return nil, errs.Domain("stroke requires a Width")
	}
	if !colorSet {
		return nil, errs.Domain("stroke requires a Color")
	}
	if s.Join != value.JoinMiter {
		if miterSet {
			return nil, errs.Domain("MiterLimit is only valid with the Miter join")
		}
		s.MiterLimit = 0
	} else if s.MiterLimit <= 0 {
		s.MiterLimit = 10 * fixnum.Scale
	}
	return s, nil
}

// --- path builder ---

func opStartPath(ev *Evaluator) error {
	return ev.startAccum(&pathPartial{mode: pathInitial})
}

func opStartMotion(ev *Evaluator) error {
	p, err := ev.pathAccum("start_motion")
	if err != nil {
		return err
	}
	if p.mode != pathInitial && p.mode != pathReady {
		return errs.State("start_motion requires no open motion")
	}
	y, err := ev.popFixed()
	if err != nil {
		return err
	}
	x, err := ev.popFixed()
	if err != nil {
		return err
	}
	p.motion = value.Motion{Start: value.Point{X: x, Y: y}}
	p.mode = pathStart
	return nil
}

func opMotionLine(ev *Evaluator) error {
	p, err := ev.pathAccum("motion_line")
	if err != nil {
		return err
	}
	if p.mode != pathStart && p.mode != pathSubpath {
		return errs.State("motion_line requires an open motion")
	}
	y, err := ev.popFixed()
	if err != nil {
		return err
	}
	x, err := ev.popFixed()
	if err != nil {
		return err
	}
	p.motion.Segs = append(p.motion.Segs, value.Segment{Kind: value.SegLine, P: value.Point{X: x, Y: y}})
	p.mode = pathSubpath
	return nil
}

func opMotionCurve(ev *Evaluator) error {
	p, err := ev.pathAccum("motion_curve")
	if err != nil {
		return err
	}
	if p.mode != pathStart && p.mode != pathSubpath {
		return errs.State("motion_curve requires an open motion")
	}
	var pts [6]fixnum.Fixed
	for i := 5; i >= 0; i-- {
		f, err := ev.popFixed()
		if err != nil {
			return err
		}
		pts[i] = f
	}
	p.motion.Segs = append(p.motion.Segs, value.Segment{
		Kind: value.SegCubic,
		C1:   value.Point{X: pts[0], Y: pts[1]},
		C2:   value.Point{X: pts[2], Y: pts[3]},
		P:    value.Point{X: pts[4], Y: pts[5]},
	})
	p.mode = pathSubpath
	return nil
}

func (p *pathPartial) closeMotion(closed bool) error {
	if p.mode != pathSubpath {
		return errs.State("no motion with segments to finish")
	}
	p.motion.Closed = closed
	p.subpaths = append(p.subpaths, p.motion)
	p.motion = value.Motion{}
	p.mode = pathReady
	return nil
}

func opFinishMotion(ev *Evaluator) error {
	p, err := ev.pathAccum("finish_motion")
	if err != nil {
		return err
	}
	return p.closeMotion(false)
}

func opCloseMotion(ev *Evaluator) error {
	p, err := ev.pathAccum("close_motion")
	if err != nil {
		return err
	}
	return p.closeMotion(true)
}

func opPathRect(ev *Evaluator) error {
	p, err := ev.pathAccum("path_rect")
	if err != nil {
		return err
	}
	if p.mode != pathInitial && p.mode != pathReady {
		return errs.State("path_rect requires no open motion")
	}
	h, err := ev.popFixed()
	if err != nil {
		return err
	}
	w, err := ev.popFixed()
	if err != nil {
		return err
	}
	y, err := ev.popFixed()
	if err != nil {
		return err
	}
	x, err := ev.popFixed()
	if err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return errs.Domain("rectangle extent must be positive")
	}
	p.subpaths = append(p.subpaths, value.Rect{Corner: value.Point{X: x, Y: y}, W: w, H: h})
	p.mode = pathReady
	return nil
}

func opPathInclude(ev *Evaluator) error {
	p, err := ev.pathAccum("path_include")
	if err != nil {
		return err
	}
	if p.mode != pathInitial && p.mode != pathReady {
		return errs.State("path_include requires no open motion")
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	other, ok := v.(*value.Path)
	if !ok {
		return errs.Type("path_include expects a path, got %s", v.Kind())
	}
	p.subpaths = append(p.subpaths, other.Subpaths...)
	p.mode = pathReady
	return nil
}

func opFinishPath(ev *Evaluator) error {
	p, err := ev.pathAccum("finish_path")
	if err != nil {
		return err
	}
	if p.mode == pathStart || p.mode == pathSubpath {
		return errs.State("finish_path with an unterminated motion")
	}
	if len(p.subpaths) == 0 {
		return errs.State("finish_path on an empty path")
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	var rule value.FillRule
	switch r := v.(type) {
	case value.Null:
		rule = value.RuleNull
	case value.Atom:
		switch r {
		case "Nonzero":
			rule = value.RuleNonzero
		case "EvenOdd":
			rule = value.RuleEvenOdd
		default:
			return errs.Domain("%q is not a fill rule", string(r))
		}
	default:
		return errs.Type("finish_path expects a fill rule atom or null, got %s", v.Kind())
	}
	path := &value.Path{Subpaths: p.subpaths, Rule: rule}
	ev.accum = nil
	ev.push(path)
	return nil
}

// --- style builder ---

func opStartStyle(ev *Evaluator) error {
	return ev.startAccum(&stylePartial{style: value.Style{HScale: 1 * fixnum.Scale}})
}

func opStyleFont(ev *Evaluator) error {
	p, err := ev.styleAccum("style_font")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	f, ok := v.(*value.Font)
	if !ok {
		return errs.Type("style_font expects a font, got %s", v.Kind())
	}
	p.style.Font = f
	return nil
}

func opStyleSize(ev *Evaluator) error {
	p, err := ev.styleAccum("style_size")
	if err != nil {
		return err
	}
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	if f <= 0 {
		return errs.Domain("style size must be positive")
	}
	p.style.Size = f
	return nil
}

func opStyleStroke(ev *Evaluator) error {
	p, err := ev.styleAccum("style_stroke")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	switch s := v.(type) {
	case *value.Stroke:
		p.style.Stroke = s
	case value.Null:
		p.style.Stroke = nil
	default:
		return errs.Type("style_stroke expects a stroke or null, got %s", v.Kind())
	}
	return nil
}

func opStyleFill(ev *Evaluator) error {
	p, err := ev.styleAccum("style_fill")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	switch c := v.(type) {
	case *value.Color:
		p.style.Fill = c
	case value.Null:
		p.style.Fill = nil
	default:
		return errs.Type("style_fill expects a color or null, got %s", v.Kind())
	}
	return nil
}

func opStyleCSpace(ev *Evaluator) error {
	p, err := ev.styleAccum("style_cspace")
	if err != nil {
		return err
	}
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	if f < 0 {
		return errs.Domain("character spacing must not be negative")
	}
	p.style.CharSpace = f
	return nil
}

func opStyleWSpace(ev *Evaluator) error {
	p, err := ev.styleAccum("style_wspace")
	if err != nil {
		return err
	}
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	if f < 0 {
		return errs.Domain("word spacing must not be negative")
	}
	p.style.WordSpace = f
	return nil
}

func opStyleHScale(ev *Evaluator) error {
	p, err := ev.styleAccum("style_hscale")
	if err != nil {
		return err
	}
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	if f <= 0 {
		return errs.Domain("horizontal scale must be positive")
	}
	p.style.HScale = f
	return nil
}

func opStyleRise(ev *Evaluator) error {
	p, err := ev.styleAccum("style_rise")
	if err != nil {
		return err
	}
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	p.style.Rise = f
	return nil
}

func opStyleDerive(ev *Evaluator) error {
	p, err := ev.styleAccum("style_derive")
	if err != nil {
		return err
	}
	s, err := ev.popStyle()
	if err != nil {
		return err
	}
	p.style = *s.Clone()
	return nil
}

func opFinishStyle(ev *Evaluator) error {
	p, err := ev.styleAccum("finish_style")
	if err != nil {
		return err
	}
	if p.style.Font == nil {
		return errs.State("style requires a font")
	}
	if p.style.Size <= 0 {
		return errs.State("style requires a size")
	}
	s := p.style
	ev.accum = nil
	ev.push(&s)
	return nil
}

// --- column builder ---

func opStartColumn(ev *Evaluator) error {
	return ev.startAccum(&columnPartial{mode: columnInitial})
}

func opStartLine(ev *Evaluator) error {
	p, err := ev.columnAccum("start_line")
	if err != nil {
		return err
	}
	if p.mode != columnInitial {
		return errs.State("start_line inside an open line")
	}
	y, err := ev.popFixed()
	if err != nil {
		return err
	}
	x, err := ev.popFixed()
	if err != nil {
		return err
	}
	p.line = value.Line{X: x, Y: y}
	p.mode = columnLine
	return nil
}

func opLineSpan(ev *Evaluator) error {
	p, err := ev.columnAccum("line_span")
	if err != nil {
		return err
	}
	if p.mode != columnLine {
		return errs.State("line_span requires an open line")
	}
	style, err := ev.popStyle()
	if err != nil {
		return err
	}
	text, err := ev.popString()
	if err != nil {
		return err
	}
	p.line.Spans = append(p.line.Spans, value.Span{Text: text, Style: style})
	return nil
}

func opFinishLine(ev *Evaluator) error {
	p, err := ev.columnAccum("finish_line")
	if err != nil {
		return err
	}
	if p.mode != columnLine {
		return errs.State("finish_line requires an open line")
	}
	if len(p.line.Spans) == 0 {
		return errs.State("a line requires at least one span")
	}
	p.lines = append(p.lines, p.line)
	p.line = value.Line{}
	p.mode = columnInitial
	return nil
}

func opFinishColumn(ev *Evaluator) error {
	p, err := ev.columnAccum("finish_column")
	if err != nil {
		return err
	}
	if p.mode != columnInitial {
		return errs.State("finish_column inside an open line")
	}
	if len(p.lines) == 0 {
		return errs.State("a column requires at least one line")
	}
	col := &value.Column{Lines: p.lines}
	ev.accum = nil
	ev.push(col)
	return nil
}
