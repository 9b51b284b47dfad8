package interp

import (
	"fmt"
	"strings"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/fonts"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/validate"
	"github.com/scentlang/scent/value"
)

// sharedOps are available in both dialects.
var sharedOps = map[string]opFunc{
	"pop":  opPop,
	"dup":  opDup,
	"null": opNull,
	"dict": opDict,

	"begin_page": opBeginPage,
	"end_page":   opEndPage,

	"gray":  opGray,
	"cmyk":  opCMYK,
	"fgray": opFGray,
	"fcmyk": opFCMYK,

	"miter_angle": opMiterAngle,
	"font_get":    opFontGet,
	"font_load":   opFontLoad,
	"image_load":  opImageLoad,

	"start_path":    opStartPath,
	"start_motion":  opStartMotion,
	"motion_line":   opMotionLine,
	"motion_curve":  opMotionCurve,
	"finish_motion": opFinishMotion,
	"close_motion":  opCloseMotion,
	"path_rect":     opPathRect,
	"path_include":  opPathInclude,
	"finish_path":   opFinishPath,

	"tx_identity":  opTxIdentity,
	"tx_translate": opTxTranslate,
	"tx_rotate":    opTxRotate,
	"tx_scale":     opTxScale,
	"tx_seq":       opTxSeq,

	"start_style":  opStartStyle,
	"style_font":   opStyleFont,
	"style_size":   opStyleSize,
	"style_stroke": opStyleStroke,
	"style_fill":   opStyleFill,
	"style_cspace": opStyleCSpace,
	"style_wspace": opStyleWSpace,
	"style_hscale": opStyleHScale,
	"style_rise":   opStyleRise,
	"style_derive": opStyleDerive,
	"finish_style": opFinishStyle,
	"style_setw":   opStyleSetW,
	"style_setwc":  opStyleSetWC,

	"start_column":  opStartColumn,
	"start_line":    opStartLine,
	"line_span":     opLineSpan,
	"finish_line":   opFinishLine,
	"finish_column": opFinishColumn,

	"clip": opClip,

	"draw_path":  opDrawPath,
	"draw_text":  opDrawText,
	"draw_image": opDrawImage,
}

// dialectAOps: single-operation constructors over dictionaries, plus
// synthetic fonts (handled inside font_get).
var dialectAOps = map[string]opFunc{
	"ream":          opReamDict,
	"stroke_style":  opStrokeStyle,
	"stroke_derive": opStrokeDerive,
	"dash_pattern":  opDashPattern,
}

// dialectBOps: accumulator constructors plus the embed family.
//
// Built by a function rather than a package-level var: opDrawEmbed's call
// chain reaches isOtherDialectOp, which reads this table, so a direct var
// initializer would create an initialization cycle.
func dialectBOpsTable() map[string]opFunc {
	return map[string]opFunc{
		"sep":    opSep,
		"concat": opConcat,

		"start_ream":   opStartReam,
		"ream_dim":     opReamDim,
		"ream_rotate":  opReamRotate,
		"ream_bound":   opReamBound,
		"ream_unbound": opReamUnbound,
		"ream_derive":  opReamDerive,
		"finish_ream":  opFinishReam,

		"start_stroke":  opStartStroke,
		"stroke_width":  opStrokeWidth,
		"stroke_color":  opStrokeColor,
		"stroke_cap":    opStrokeCap,
		"stroke_join":   opStrokeJoin,
		"stroke_join_r": opStrokeJoinR,
		"stroke_dash":   opStrokeDash,
		"stroke_undash": opStrokeUndash,
		"finish_stroke": opFinishStroke,

		"draw_embed": opDrawEmbed,
	}
}

func buildOpTable(d scanner.Dialect) map[string]opFunc {
	dialectBOps := dialectBOpsTable()
	ops := make(map[string]opFunc, len(sharedOps)+len(dialectAOps)+len(dialectBOps))
	for name, f := range sharedOps {
		ops[name] = f
	}
	extra := dialectAOps
	if d == scanner.DialectB {
		extra = dialectBOps
	}
	for name, f := range extra {
		ops[name] = f
	}
	return ops
}

func isOtherDialectOp(name string, d scanner.Dialect) bool {
	if d == scanner.DialectA {
		_, ok := dialectBOpsTable()[name]
		return ok
	}
	_, ok := dialectAOps[name]
	return ok
}

// --- basics ---

func opPop(ev *Evaluator) error {
	_, err := ev.pop()
	return err
}

func opDup(ev *Evaluator) error {
	v, err := ev.pop()
	if err != nil {
		return err
	}
	ev.push(v)
	ev.push(v)
	return nil
}

func opNull(ev *Evaluator) error {
	ev.push(value.Null{})
	return nil
}

func opDict(ev *Evaluator) error {
	n, err := ev.popInteger()
	if err != nil {
		return err
	}
	if n < 0 || n%2 != 0 {
		return errs.Domain("dict requires an even entry count, got %d", n)
	}
	pairs := make([]value.Value, n)
	for i := int(n) - 1; i >= 0; i-- {
		v, err := ev.pop()
		if err != nil {
			return err
		}
		pairs[i] = v
	}
	d := make(value.Dict, n/2)
	for i := 0; i < int(n); i += 2 {
		a, ok := pairs[i].(value.Atom)
		if !ok {
			return errs.Type("dict keys must be atoms, got %s", pairs[i].Kind())
		}
		if !value.KnownAtom(a) {
			return errs.Domain("unknown atom %q", string(a))
		}
		if _, dup := d[a]; dup {
			return errs.Domain("duplicate dict key %q", string(a))
		}
		d[a] = pairs[i+1]
	}
	ev.push(d)
	return nil
}

func opSep(ev *Evaluator) error {
	sep, err := ev.popString()
	if err != nil {
		return err
	}
	parts, err := ev.popStringRun()
	if err != nil {
		return err
	}
	return ev.pushContent(strings.Join(parts, sep))
}

func opConcat(ev *Evaluator) error {
	parts, err := ev.popStringRun()
	if err != nil {
		return err
	}
	return ev.pushContent(strings.Join(parts, ""))
}

func (ev *Evaluator) popStringRun() ([]string, error) {
	n, err := ev.popInteger()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errs.Domain("negative count %d", n)
	}
	parts := make([]string, n)
	for i := int(n) - 1; i >= 0; i-- {
		s, err := ev.popString()
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func (ev *Evaluator) pushContent(s string) error {
	if !validate.ContentString(s) {
		return errs.Domain("result is not a valid content string")
	}
	ev.push(value.String(s))
	return nil
}

// --- colors ---

func opGray(ev *Evaluator) error {
	level, err := ev.popInteger()
	if err != nil {
		return err
	}
	if level < 0 || level > 255 {
		return errs.Domain("gray level %d not in 0..255", level)
	}
	k := fixnum.Fixed(int64(255-level) * fixnum.Scale)
	ev.push(&value.Color{K: k})
	return nil
}

func opCMYK(ev *Evaluator) error {
	var ch [4]fixnum.Fixed
	for i := 3; i >= 0; i-- {
		n, err := ev.popInteger()
		if err != nil {
			return err
		}
		if n < 0 || n > 255 {
			return errs.Domain("CMYK channel %d not in 0..255", n)
		}
		ch[i] = fixnum.Fixed(int64(n) * fixnum.Scale)
	}
	ev.push(&value.Color{C: ch[0], M: ch[1], Y: ch[2], K: ch[3]})
	return nil
}

func opFGray(ev *Evaluator) error {
	f, err := ev.popFixed()
	if err != nil {
		return err
	}
	if f < 0 || f > fixnum.Scale {
		return errs.Domain("fractional gray %s not in [0,1]", f)
	}
	k := fixnum.Fixed((int64(fixnum.Scale) - int64(f)) * 255)
	ev.push(&value.Color{K: k})
	return nil
}

func opFCMYK(ev *Evaluator) error {
	var ch [4]fixnum.Fixed
	for i := 3; i >= 0; i-- {
		f, err := ev.popFixed()
		if err != nil {
			return err
		}
		if f < 0 || f > fixnum.Scale {
			return errs.Domain("fractional channel %s not in [0,1]", f)
		}
		ch[i] = fixnum.Fixed(int64(f) * 255)
	}
	ev.push(&value.Color{C: ch[0], M: ch[1], Y: ch[2], K: ch[3]})
	return nil
}

func opMiterAngle(ev *Evaluator) error {
	angle, err := ev.popFixed()
	if err != nil {
		return err
	}
	limit, err := fixnum.MiterAngle(angle)
	if err != nil {
		return err
	}
	ev.push(value.Fixed(limit))
	return nil
}

// --- fonts and images ---

func opFontGet(ev *Evaluator) error {
	v, err := ev.pop()
	if err != nil {
		return err
	}
	switch arg := v.(type) {
	case value.Atom:
		if !value.KnownAtom(arg) {
			return errs.Domain("unknown atom %q", string(arg))
		}
		name, err := fonts.Builtin(string(arg))
		if err != nil {
			return err
		}
		f := &value.Font{Variant: value.FontBuiltIn, Name: name}
		if err := ev.registerFont(f); err != nil {
			return err
		}
		ev.push(f)
		return nil
	case value.Dict:
		if ev.dialect != scanner.DialectA {
			return errs.State("synthetic fonts belong to the scent dialect")
		}
		f, err := syntheticFont(arg)
		if err != nil {
			return err
		}
		ev.push(f)
		return nil
	}
	return errs.Type("font_get expects an atom or a dictionary, got %s", v.Kind())
}

// syntheticFont collapses chains: a synthetic base contributes its own
// base and any alterations the new dictionary leaves undefined.
func syntheticFont(d value.Dict) (*value.Font, error) {
	baseVal, ok := d["Base"]
	if !ok {
		return nil, errs.Domain("synthetic font requires a Base entry")
	}
	base, ok := baseVal.(*value.Font)
	if !ok {
		return nil, errs.Type("synthetic font Base must be a font, got %s", baseVal.Kind())
	}
	alter := base.EffectiveAlterations()
	root := base.Root()
	for key, v := range d {
		switch key {
		case "Base":
		case "HScale", "Oblique", "Boldness", "CharSpacing":
			f, err := fixedFromValue(v)
			if err != nil {
				return nil, err
			}
			switch key {
			case "HScale":
				if f <= 0 {
					return nil, errs.Domain("synthetic HScale must be positive")
				}
				alter.HScale = &f
			case "Oblique":
				alter.Oblique = &f
			case "Boldness":
				if f < 0 {
					return nil, errs.Domain("synthetic Boldness must not be negative")
				}
				alter.Boldness = &f
			case "CharSpacing":
				alter.CharSpacing = &f
			}
		case "SmallCaps":
			n, ok := v.(value.Integer)
			if !ok {
				return nil, errs.Type("SmallCaps must be an integer flag")
			}
			flag := n != 0
			alter.SmallCaps = &flag
		default:
			return nil, errs.Domain("unknown synthetic font key %q", string(key))
		}
	}
	return &value.Font{Variant: value.FontSynthetic, Base: root, Alter: alter}, nil
}

func opFontLoad(ev *Evaluator) error {
	format, err := ev.popAtom()
	if err != nil {
		return err
	}
	if format != "truetype" {
		return errs.Domain("unknown font format %q", string(format))
	}
	path, err := ev.popString()
	if err != nil {
		return err
	}
	m, err := ev.loaders().fontLoader.LoadTrueType(path)
	if err != nil {
		return err
	}
	f := &value.Font{Variant: value.FontFile, Path: path, Resource: m}
	if err := ev.registerFont(f); err != nil {
		return err
	}
	ev.push(f)
	return nil
}

func opImageLoad(ev *Evaluator) error {
	format, err := ev.popAtom()
	if err != nil {
		return err
	}
	var vf value.ImageFormat
	switch format {
	case "JPEG":
		vf = value.ImageJPEG
	case "PNG":
		vf = value.ImagePNG
	default:
		return errs.Domain("unknown image format %q", string(format))
	}
	path, err := ev.popString()
	if err != nil {
		return err
	}
	h, err := ev.loaders().imgLoader.Load(path, vf)
	if err != nil {
		return err
	}
	img := &value.Image{
		Path:     path,
		Format:   vf,
		Width:    h.Width,
		Height:   h.Height,
		Model:    h.Model,
		Resource: h,
	}
	if err := ev.registerImage(img); err != nil {
		return err
	}
	ev.push(img)
	return nil
}

// loaders resolves to the host evaluator so embeds share resources.
func (ev *Evaluator) loaders() *Evaluator {
	if ev.host != nil {
		return ev.host
	}
	return ev
}

// registerFont assigns the resource name and declares the resource on
// the machine at the declaration operation.
func (ev *Evaluator) registerFont(f *value.Font) error {
	root := ev.loaders()
	root.fontSeq++
	res := fmt.Sprintf("F%d", root.fontSeq)
	switch f.Variant {
	case value.FontBuiltIn:
		if err := root.machine.FontStandard(res, f.Name); err != nil {
			return err
		}
	case value.FontFile:
		if err := root.machine.FontFile(res, f.Path, "truetype"); err != nil {
			return err
		}
	}
	f.Res = res
	return nil
}

func (ev *Evaluator) registerImage(img *value.Image) error {
	root := ev.loaders()
	root.imageSeq++
	res := fmt.Sprintf("I%d", root.imageSeq)
	var err error
	if img.Format == value.ImageJPEG {
		err = root.machine.ImageJPEG(res, img.Path)
	} else {
		err = root.machine.ImagePNG(res, img.Path)
	}
	if err != nil {
		return err
	}
	img.Name = res
	return nil
}

// --- transforms ---

func opTxIdentity(ev *Evaluator) error {
	ev.push(value.Identity())
	return nil
}

func opTxTranslate(ev *Evaluator) error {
	y, err := ev.popFixed()
	if err != nil {
		return err
	}
	x, err := ev.popFixed()
	if err != nil {
		return err
	}
	ev.push(translate(x.Float(), y.Float()))
	return nil
}

func opTxRotate(ev *Evaluator) error {
	deg, err := ev.popFixed()
	if err != nil {
		return err
	}
	ev.push(rotate(deg.Float()))
	return nil
}

func opTxScale(ev *Evaluator) error {
	sy, err := ev.popFixed()
	if err != nil {
		return err
	}
	sx, err := ev.popFixed()
	if err != nil {
		return err
	}
	ev.push(scale(sx.Float(), sy.Float()))
	return nil
}

// tx_seq composes either an array-counted run of transforms (first
// pushed applied first) or a single dictionary built in the fixed order
// translate, rotate, scale, skew.
func opTxSeq(ev *Evaluator) error {
	v, err := ev.pop()
	if err != nil {
		return err
	}
	switch arg := v.(type) {
	case value.Integer:
		n := int(arg)
		if n < 0 {
			return errs.Domain("negative transform count")
		}
		ts := make([]*value.Transform, n)
		for i := n - 1; i >= 0; i-- {
			tv, err := ev.pop()
			if err != nil {
				return err
			}
			t, ok := tv.(*value.Transform)
			if !ok {
				return errs.Type("tx_seq expects transforms, got %s", tv.Kind())
			}
			ts[i] = t
		}
		acc := value.Identity()
		for _, t := range ts {
			acc = value.Concat(t, acc)
		}
		ev.push(acc)
		return nil
	case value.Dict:
		t, err := transformFromDict(arg)
		if err != nil {
			return err
		}
		ev.push(t)
		return nil
	}
	return errs.Type("tx_seq expects a count or a dictionary, got %s", v.Kind())
}

// --- derivation helpers on finished styles ---

func opStyleSetW(ev *Evaluator) error {
	w, err := ev.popFixed()
	if err != nil {
		return err
	}
	if w < 0 {
		return errs.Domain("word spacing must not be negative")
	}
	s, err := ev.popStyle()
	if err != nil {
		return err
	}
	out := s.Clone()
	out.WordSpace = w
	ev.push(out)
	return nil
}

func opStyleSetWC(ev *Evaluator) error {
	c, err := ev.popFixed()
	if err != nil {
		return err
	}
	w, err := ev.popFixed()
	if err != nil {
		return err
	}
	if w < 0 || c < 0 {
		return errs.Domain("spacing must not be negative")
	}
	s, err := ev.popStyle()
	if err != nil {
		return err
	}
	out := s.Clone()
	out.WordSpace = w
	out.CharSpace = c
	ev.push(out)
	return nil
}

func (ev *Evaluator) popStyle() (*value.Style, error) {
	v, err := ev.pop()
	if err != nil {
		return nil, err
	}
	s, ok := v.(*value.Style)
	if !ok {
		return nil, errs.Type("expected style, got %s", v.Kind())
	}
	return s, nil
}

// --- clipping ---

func opClip(ev *Evaluator) error {
	n, err := ev.popInteger()
	if err != nil {
		return err
	}
	if n < 0 || n%2 != 0 {
		return errs.Domain("clip requires shape/transform pairs, got %d values", n)
	}
	if n == 0 {
		return errs.Domain("clip requires at least one component")
	}
	items := make([]value.Value, n)
	for i := int(n) - 1; i >= 0; i-- {
		v, err := ev.pop()
		if err != nil {
			return err
		}
		items[i] = v
	}
	comps := make([]value.ClipComponent, 0, n/2)
	for i := 0; i < int(n); i += 2 {
		shape := items[i]
		switch s := shape.(type) {
		case *value.Path:
			if s.Rule == value.RuleNull {
				return errs.Domain("a path with the null rule cannot clip")
			}
		case *value.Column:
		default:
			return errs.Type("clip shapes must be paths or columns, got %s", shape.Kind())
		}
		var tx *value.Transform
		switch t := items[i+1].(type) {
		case *value.Transform:
			tx = t
		case value.Null:
			tx = value.Identity()
		default:
			return errs.Type("clip transforms must be transforms or null, got %s", items[i+1].Kind())
		}
		comps = append(comps, value.ClipComponent{Shape: shape, Tx: tx})
	}
	ev.push(&value.Clipping{Components: comps})
	return nil
}
