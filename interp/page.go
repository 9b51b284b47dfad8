package interp

import (
	"os"
	"strings"

	"github.com/scentlang/scent/assembly"
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/observability"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/value"
)

// --- page register ---

func opBeginPage(ev *Evaluator) error {
	if ev.embedded {
		return errs.State("embedded sources may not open pages")
	}
	if ev.page != nil {
		return errs.State("page already open")
	}
	if ev.accum != nil {
		return errs.State("begin_page while a %s is being built", ev.accum.what())
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	ream, ok := v.(*value.Ream)
	if !ok {
		return errs.Type("begin_page expects a ream, got %s", v.Kind())
	}
	m := ev.machine
	if err := m.BeginPage(); err != nil {
		return err
	}
	if err := m.Dim(ream.Width, ream.Height); err != nil {
		return err
	}
	for _, kind := range []value.BoxKind{value.ArtBox, value.TrimBox, value.BleedBox} {
		box, ok := ream.Boxes[kind]
		if !ok {
			continue
		}
		// margins to absolute corners
		if err := m.Box(kind.String(), box.Left, box.Bottom, ream.Width-box.Right, ream.Height-box.Top); err != nil {
			return err
		}
	}
	if ream.Rotation != 0 {
		if err := m.ViewRotate(ream.Rotation); err != nil {
			return err
		}
	}
	if err := m.Body(); err != nil {
		return err
	}
	ev.page = &pageState{ream: ream}
	ev.log.Debug("page opened", observability.String("size", ream.Width.Format()+"x"+ream.Height.Format()))
	return nil
}

func opEndPage(ev *Evaluator) error {
	if ev.embedded {
		return errs.State("embedded sources may not close pages")
	}
	if ev.page == nil {
		return errs.State("no open page")
	}
	if err := ev.machine.EndPage(); err != nil {
		return err
	}
	ev.page = nil
	return nil
}

// requirePage admits drawing: embedded evaluators draw on the page
// their host opened.
func (ev *Evaluator) requirePage(op string) error {
	if ev.embedded {
		return nil
	}
	if ev.page == nil {
		return errs.State("%s requires an open page", op)
	}
	return nil
}

// --- lowering helpers ---

func colorBytes(c *value.Color) assembly.Color {
	b := func(f fixnum.Fixed) uint8 {
		v := (int64(f) + fixnum.Scale/2) / fixnum.Scale
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return assembly.Color{b(c.C), b(c.M), b(c.Y), b(c.K)}
}

func matrix6(t *value.Transform) ([6]fixnum.Fixed, error) {
	var out [6]fixnum.Fixed
	for i, f := range t.M {
		v, err := fixnum.FromFloat(f)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

func capName(c value.CapStyle) string {
	switch c {
	case value.CapRound:
		return "round"
	case value.CapSquare:
		return "square"
	}
	return "butt"
}

func (ev *Evaluator) emitStroke(s *value.Stroke) error {
	m := ev.machine
	if err := m.LineWidth(s.Width); err != nil {
		return err
	}
	if err := m.LineCap(capName(s.Cap)); err != nil {
		return err
	}
	switch s.Join {
	case value.JoinMiter:
		limit := s.MiterLimit
		if err := m.LineJoin("miter", &limit); err != nil {
			return err
		}
	case value.JoinRound:
		if err := m.LineJoin("round", nil); err != nil {
			return err
		}
	case value.JoinBevel:
		if err := m.LineJoin("bevel", nil); err != nil {
			return err
		}
	}
	if s.Dash != nil && len(s.Dash.Dashes) > 0 {
		dashes := s.Dash.Dashes
		if len(dashes) == 1 {
			// single-element form: equal dash and gap
			dashes = []fixnum.Fixed{dashes[0], dashes[0]}
		}
		if err := m.LineDash(s.Dash.Phase, dashes); err != nil {
			return err
		}
	} else {
		if err := m.LineUndash(); err != nil {
			return err
		}
	}
	return m.StrokeColor(colorBytes(s.Color))
}

func fillRuleOf(p *value.Path) assembly.Rule {
	if p.Rule == value.RuleEvenOdd {
		return assembly.RuleEvenOdd
	}
	return assembly.RuleNonzero
}

func (ev *Evaluator) emitSubpaths(p *value.Path) error {
	m := ev.machine
	for _, sp := range p.Subpaths {
		switch s := sp.(type) {
		case value.Rect:
			if err := m.Rect(s.Corner.X, s.Corner.Y, s.W, s.H); err != nil {
				return err
			}
		case value.Motion:
			if err := m.Move(s.Start.X, s.Start.Y); err != nil {
				return err
			}
			for _, seg := range s.Segs {
				if seg.Kind == value.SegLine {
					if err := m.Line(seg.P.X, seg.P.Y); err != nil {
						return err
					}
				} else {
					if err := m.Curve(seg.C1.X, seg.C1.Y, seg.C2.X, seg.C2.Y, seg.P.X, seg.P.Y); err != nil {
						return err
					}
				}
			}
			if s.Closed {
				if err := m.Close(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// emitClipping installs each component's region. Per-component
// transforms are bracketed by their inverse so the CTM is left intact
// while the clip, which lives in device space, persists.
func (ev *Evaluator) emitClipping(clip *value.Clipping) error {
	m := ev.machine
	for _, comp := range clip.Components {
		identity := comp.Tx == nil || comp.Tx.M == value.Identity().M
		if !identity {
			mat, err := matrix6(comp.Tx)
			if err != nil {
				return err
			}
			if err := m.Matrix(mat); err != nil {
				return err
			}
		}
		switch shape := comp.Shape.(type) {
		case *value.Path:
			rule := assembly.RuleNonzero
			if shape.Rule == value.RuleEvenOdd {
				rule = assembly.RuleEvenOdd
			}
			if err := m.BeginPath(false, assembly.RuleNone, rule); err != nil {
				return err
			}
			if err := ev.emitSubpaths(shape); err != nil {
				return err
			}
			if err := m.EndPath(); err != nil {
				return err
			}
		case *value.Column:
			if err := ev.emitColumn(shape, true); err != nil {
				return err
			}
		}
		if !identity {
			inv, err := invert(comp.Tx)
			if err != nil {
				return err
			}
			mat, err := matrix6(inv)
			if err != nil {
				return err
			}
			if err := m.Matrix(mat); err != nil {
				return err
			}
		}
	}
	return nil
}

// spanState is a span's fully resolved text-painting state, with
// synthetic-font alterations folded in.
type spanState struct {
	res       string
	size      fixnum.Fixed
	cspace    fixnum.Fixed
	wspace    fixnum.Fixed
	hscale    fixnum.Fixed
	rise      fixnum.Fixed
	text      string
	render    int
	boldWidth fixnum.Fixed
	stroke    *value.Color
	fill      *value.Color
}

func resolveSpan(span value.Span) (spanState, error) {
	st := span.Style
	root := st.Font.Root()
	out := spanState{
		res:    root.Res,
		size:   st.Size,
		cspace: st.CharSpace,
		wspace: st.WordSpace,
		hscale: st.HScale,
		rise:   st.Rise,
		text:   span.Text,
		fill:   st.Fill,
	}
	if st.Stroke != nil {
		out.stroke = st.Stroke.Color
	}
	hasStroke := st.Stroke != nil
	alter := st.Font.EffectiveAlterations()
	if alter.HScale != nil {
		scaled, err := fixnum.Mul(out.hscale, *alter.HScale)
		if err != nil {
			return out, err
		}
		out.hscale = scaled
	}
	if alter.CharSpacing != nil {
		out.cspace += *alter.CharSpacing
	}
	if alter.SmallCaps != nil && *alter.SmallCaps {
		out.text = strings.ToUpper(out.text)
	}
	if alter.Boldness != nil && *alter.Boldness > 0 {
		out.boldWidth = *alter.Boldness
		hasStroke = true
		if out.stroke == nil {
			out.stroke = st.Fill
		}
	}
	mode := 3
	switch {
	case st.Fill != nil && hasStroke:
		mode = 2
	case st.Fill != nil:
		mode = 0
	case hasStroke:
		mode = 1
	}
	out.render = mode
	if out.res == "" {
		return out, errs.State("font was never registered as a resource")
	}
	return out, nil
}

// emitColumn lowers a text column to per-line text blocks. The stroke
// and fill colors for a line come from its first span that defines
// them; the instruction set keeps color operators outside text blocks.
func (ev *Evaluator) emitColumn(col *value.Column, clip bool) error {
	m := ev.machine
	for _, line := range col.Lines {
		states := make([]spanState, len(line.Spans))
		for i, span := range line.Spans {
			st, err := resolveSpan(span)
			if err != nil {
				return err
			}
			states[i] = st
		}
		var strokeColor, fillColor *value.Color
		var boldWidth fixnum.Fixed
		for _, st := range states {
			if strokeColor == nil && st.stroke != nil {
				strokeColor = st.stroke
			}
			if fillColor == nil && st.fill != nil {
				fillColor = st.fill
			}
			if boldWidth == 0 && st.boldWidth > 0 {
				boldWidth = st.boldWidth
			}
		}
		if !clip {
			if strokeColor != nil {
				if err := m.StrokeColor(colorBytes(strokeColor)); err != nil {
					return err
				}
			}
			if fillColor != nil {
				if err := m.FillColor(colorBytes(fillColor)); err != nil {
					return err
				}
			}
			if boldWidth > 0 {
				if err := m.LineWidth(boldWidth); err != nil {
					return err
				}
			}
		}
		if err := m.BeginText(clip); err != nil {
			return err
		}
		if err := m.AdvanceTo(line.X, line.Y); err != nil {
			return err
		}
		for _, st := range states {
			if err := m.Font(st.res, st.size); err != nil {
				return err
			}
			if err := m.CSpace(st.cspace); err != nil {
				return err
			}
			if err := m.WSpace(st.wspace); err != nil {
				return err
			}
			if err := m.HScale(st.hscale); err != nil {
				return err
			}
			if err := m.Rise(st.rise); err != nil {
				return err
			}
			if !clip {
				if err := m.TextRender(st.render); err != nil {
					return err
				}
			}
			if err := m.Write(st.text); err != nil {
				return err
			}
		}
		if err := m.EndText(); err != nil {
			return err
		}
	}
	return nil
}

// popDrawTail pops the shared clip and transform arguments of the
// drawing operations (clip on top).
func (ev *Evaluator) popDrawTail(op string) (*value.Clipping, *value.Transform, error) {
	v, err := ev.pop()
	if err != nil {
		return nil, nil, err
	}
	var clip *value.Clipping
	switch c := v.(type) {
	case *value.Clipping:
		clip = c
	case value.Null:
	default:
		return nil, nil, errs.Type("%s expects a clipping or null, got %s", op, v.Kind())
	}
	v, err = ev.pop()
	if err != nil {
		return nil, nil, err
	}
	var tx *value.Transform
	switch t := v.(type) {
	case *value.Transform:
		tx = t
	case value.Null:
	default:
		return nil, nil, errs.Type("%s expects a transform or null, got %s", op, v.Kind())
	}
	return clip, tx, nil
}

func (ev *Evaluator) beginDrawing(clip *value.Clipping, tx *value.Transform) error {
	if err := ev.machine.Save(); err != nil {
		return err
	}
	if clip != nil {
		if err := ev.emitClipping(clip); err != nil {
			return err
		}
	}
	if tx != nil {
		mat, err := matrix6(tx)
		if err != nil {
			return err
		}
		if err := ev.machine.Matrix(mat); err != nil {
			return err
		}
	}
	return nil
}

// --- drawing operations ---

func opDrawPath(ev *Evaluator) error {
	if err := ev.requirePage("draw_path"); err != nil {
		return err
	}
	clip, tx, err := ev.popDrawTail("draw_path")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	var fill *value.Color
	switch c := v.(type) {
	case *value.Color:
		fill = c
	case value.Null:
	default:
		return errs.Type("draw_path expects a fill color or null, got %s", v.Kind())
	}
	v, err = ev.pop()
	if err != nil {
		return err
	}
	var stroke *value.Stroke
	switch s := v.(type) {
	case *value.Stroke:
		stroke = s
	case value.Null:
	default:
		return errs.Type("draw_path expects a stroke or null, got %s", v.Kind())
	}
	v, err = ev.pop()
	if err != nil {
		return err
	}
	path, ok := v.(*value.Path)
	if !ok {
		return errs.Type("draw_path expects a path, got %s", v.Kind())
	}
	if stroke == nil && fill == nil {
		return errs.Domain("draw_path requires a stroke or a fill")
	}
	if fill != nil && path.Rule == value.RuleNull {
		return errs.Domain("a path with the null rule cannot be filled")
	}

	if err := ev.beginDrawing(clip, tx); err != nil {
		return err
	}
	m := ev.machine
	if stroke != nil {
		if err := ev.emitStroke(stroke); err != nil {
			return err
		}
	}
	if fill != nil {
		if err := m.FillColor(colorBytes(fill)); err != nil {
			return err
		}
	}
	fillRule := assembly.RuleNone
	if fill != nil {
		fillRule = fillRuleOf(path)
	}
	if err := m.BeginPath(stroke != nil, fillRule, assembly.RuleNone); err != nil {
		return err
	}
	if err := ev.emitSubpaths(path); err != nil {
		return err
	}
	if err := m.EndPath(); err != nil {
		return err
	}
	return m.Restore()
}

func opDrawText(ev *Evaluator) error {
	if err := ev.requirePage("draw_text"); err != nil {
		return err
	}
	clip, tx, err := ev.popDrawTail("draw_text")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	col, ok := v.(*value.Column)
	if !ok {
		return errs.Type("draw_text expects a column, got %s", v.Kind())
	}
	if err := ev.beginDrawing(clip, tx); err != nil {
		return err
	}
	if err := ev.emitColumn(col, false); err != nil {
		return err
	}
	return ev.machine.Restore()
}

func opDrawImage(ev *Evaluator) error {
	if err := ev.requirePage("draw_image"); err != nil {
		return err
	}
	clip, tx, err := ev.popDrawTail("draw_image")
	if err != nil {
		return err
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	img, ok := v.(*value.Image)
	if !ok {
		return errs.Type("draw_image expects an image, got %s", v.Kind())
	}
	if err := ev.beginDrawing(clip, tx); err != nil {
		return err
	}
	if err := ev.machine.Image(img.Name); err != nil {
		return err
	}
	return ev.machine.Restore()
}

// opDrawEmbed compiles a scent-embed source into drawing operations on
// the open page, clipped to the declared bounds.
func opDrawEmbed(ev *Evaluator) error {
	if err := ev.requirePage("draw_embed"); err != nil {
		return err
	}
	clip, tx, err := ev.popDrawTail("draw_embed")
	if err != nil {
		return err
	}
	path, err := ev.popString()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Resource("embed %s: %v", path, err)
	}
	sc := scanner.New(string(data))
	header, err := sc.ReadHeader()
	if err != nil {
		return err
	}
	if header.Bounds == nil {
		return errs.State("embed %s is not a scent-embed source", path)
	}
	b := header.Bounds

	if err := ev.beginDrawing(clip, tx); err != nil {
		return err
	}
	m := ev.machine
	shift := translate(-b.X.Float(), -b.Y.Float())
	mat, err := matrix6(shift)
	if err != nil {
		return err
	}
	if err := m.Matrix(mat); err != nil {
		return err
	}
	if err := m.BeginPath(false, assembly.RuleNone, assembly.RuleNonzero); err != nil {
		return err
	}
	if err := m.Rect(b.X, b.Y, b.W, b.H); err != nil {
		return err
	}
	if err := m.EndPath(); err != nil {
		return err
	}

	child := New(scanner.DialectB, m, Options{
		FontLoader:  ev.loaders().fontLoader,
		ImageLoader: ev.loaders().imgLoader,
		Logger:      ev.log,
	})
	child.embedded = true
	child.host = ev.loaders()
	if err := child.Run(sc); err != nil {
		return err
	}
	return m.Restore()
}
