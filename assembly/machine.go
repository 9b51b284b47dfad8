package assembly

import (
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/observability"
	"github.com/scentlang/scent/validate"
)

type mode int

const (
	modeTop mode = iota
	modeHeader
	modeInitial
	modePath
	modeText
)

func (m mode) String() string {
	switch m {
	case modeTop:
		return "top level"
	case modeHeader:
		return "page header"
	case modeInitial:
		return "page body"
	case modePath:
		return "path"
	case modeText:
		return "text"
	}
	return "?"
}

type pathStep int

const (
	stepNone pathStep = iota
	stepMove
	stepLine
	stepCurve
	stepClose
	stepRect
)

// Machine enforces the layered state invariants and forwards validated
// instructions to its strategy. The lowering layer and the text parser
// both drive it through the same typed methods.
type Machine struct {
	asm Assembler
	log observability.Logger

	mode         mode
	pagesDefined int

	fonts  map[string]bool
	images map[string]bool

	// header state
	dimSet        bool
	width, height fixnum.Fixed
	boxes         map[string][4]fixnum.Fixed
	rotateSet     bool

	// body state
	saveDepth int
	fontSel   []bool // font-selected flag per graphics frame

	// path state
	lastStep  pathStep
	pathSteps int

	// text state
	textWrites int

	instructions int
	finished     bool
}

func NewMachine(asm Assembler, log observability.Logger) *Machine {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Machine{
		asm:    asm,
		log:    log,
		fonts:  make(map[string]bool),
		images: make(map[string]bool),
	}
}

// CanStop reports whether the stream may legally end here.
func (m *Machine) CanStop() bool {
	return m.mode == modeTop && m.pagesDefined > 0 && !m.finished
}

func (m *Machine) requireMode(want mode, op string) error {
	if m.finished {
		return errs.State("%s after finish", op)
	}
	if m.mode != want {
		return errs.State("%s not allowed in %s", op, m.mode)
	}
	return nil
}

func (m *Machine) count() { m.instructions++ }

// Instructions reports how many instructions have been executed.
func (m *Machine) Instructions() int { return m.instructions }

func (m *Machine) defineFont(name string) error {
	if !validate.Name(name) {
		return errs.Syntax("invalid resource name %q", name)
	}
	if m.fonts[name] {
		return errs.NameErr("font resource %q already defined", name)
	}
	m.fonts[name] = true
	return nil
}

func (m *Machine) defineImage(name string) error {
	if !validate.Name(name) {
		return errs.Syntax("invalid resource name %q", name)
	}
	if m.images[name] {
		return errs.NameErr("image resource %q already defined", name)
	}
	m.images[name] = true
	return nil
}

// requireResourceMode admits loader instructions at top level and in
// the page body, but not inside headers, paths, or text blocks.
func (m *Machine) requireResourceMode(op string) error {
	if m.finished {
		return errs.State("%s after finish", op)
	}
	if m.mode != modeTop && m.mode != modeInitial {
		return errs.State("%s not allowed in %s", op, m.mode)
	}
	return nil
}

func (m *Machine) FontStandard(name, baseFont string) error {
	if err := m.requireResourceMode("font_standard"); err != nil {
		return err
	}
	if !validate.BuiltinFont(baseFont) {
		return errs.Domain("unknown builtin font %q", baseFont)
	}
	if err := m.defineFont(name); err != nil {
		return err
	}
	m.count()
	return m.asm.FontStandard(name, baseFont)
}

func (m *Machine) FontFile(name, path, format string) error {
	if err := m.requireResourceMode("font_file"); err != nil {
		return err
	}
	if format != "truetype" {
		return errs.Domain("unknown font format %q", format)
	}
	if err := m.defineFont(name); err != nil {
		return err
	}
	m.count()
	return m.asm.FontFile(name, path, format)
}

func (m *Machine) ImageJPEG(name, path string) error {
	if err := m.requireResourceMode("image_jpeg"); err != nil {
		return err
	}
	if err := m.defineImage(name); err != nil {
		return err
	}
	m.count()
	return m.asm.ImageJPEG(name, path)
}

func (m *Machine) ImagePNG(name, path string) error {
	if err := m.requireResourceMode("image_png"); err != nil {
		return err
	}
	if err := m.defineImage(name); err != nil {
		return err
	}
	m.count()
	return m.asm.ImagePNG(name, path)
}

func (m *Machine) BeginPage() error {
	if err := m.requireMode(modeTop, "begin page"); err != nil {
		return err
	}
	m.mode = modeHeader
	m.dimSet = false
	m.rotateSet = false
	m.boxes = make(map[string][4]fixnum.Fixed)
	m.count()
	return m.asm.BeginPage()
}

func (m *Machine) Dim(w, h fixnum.Fixed) error {
	if err := m.requireMode(modeHeader, "dim"); err != nil {
		return err
	}
	if m.dimSet {
		return errs.State("dim already set")
	}
	if w <= 0 || h <= 0 {
		return errs.Domain("page dimensions must be positive")
	}
	m.dimSet = true
	m.width, m.height = w, h
	m.count()
	return m.asm.Dim(w, h)
}

func (m *Machine) Box(box string, llx, lly, urx, ury fixnum.Fixed) error {
	if err := m.requireMode(modeHeader, box); err != nil {
		return err
	}
	if _, dup := m.boxes[box]; dup {
		return errs.State("%s already set", box)
	}
	if llx < 0 || lly < 0 || llx >= urx || lly >= ury {
		return errs.Domain("%s corners are not ordered", box)
	}
	m.boxes[box] = [4]fixnum.Fixed{llx, lly, urx, ury}
	m.count()
	return m.asm.Box(box, llx, lly, urx, ury)
}

func (m *Machine) ViewRotate(deg int) error {
	if err := m.requireMode(modeHeader, "view_rotate"); err != nil {
		return err
	}
	if m.rotateSet {
		return errs.State("view_rotate already set")
	}
	switch deg {
	case 0, 90, 180, 270:
	default:
		return errs.Domain("view_rotate %d not in {0,90,180,270}", deg)
	}
	m.rotateSet = true
	m.count()
	return m.asm.ViewRotate(deg)
}

func (m *Machine) Body() error {
	if err := m.requireMode(modeHeader, "body"); err != nil {
		return err
	}
	if !m.dimSet {
		return errs.State("body requires dim")
	}
	for box, v := range m.boxes {
		if v[2] >= m.width {
			return errs.Domain("%s exceeds page width", box)
		}
		if v[3] >= m.height {
			return errs.Domain("%s exceeds page height", box)
		}
	}
	m.mode = modeInitial
	m.saveDepth = 0
	m.fontSel = []bool{false}
	m.count()
	return m.asm.Body()
}

func (m *Machine) EndPage() error {
	if err := m.requireMode(modeInitial, "end page"); err != nil {
		return err
	}
	if m.saveDepth != 0 {
		return errs.State("end page with %d unmatched save", m.saveDepth)
	}
	m.mode = modeTop
	m.pagesDefined++
	m.count()
	m.log.Debug("page assembled", observability.Int(observability.MetricPageCount, m.pagesDefined))
	return m.asm.EndPage()
}

func (m *Machine) inBody() bool { return m.mode == modeInitial || m.mode == modeText }

func (m *Machine) Save() error {
	if m.finished || !m.inBody() {
		return errs.State("save not allowed in %s", m.mode)
	}
	m.saveDepth++
	m.fontSel = append(m.fontSel, m.fontSel[len(m.fontSel)-1])
	m.count()
	return m.asm.Save()
}

func (m *Machine) Restore() error {
	if m.finished || !m.inBody() {
		return errs.State("restore not allowed in %s", m.mode)
	}
	if m.saveDepth == 0 {
		return errs.State("restore without save")
	}
	m.saveDepth--
	m.fontSel = m.fontSel[:len(m.fontSel)-1]
	m.count()
	return m.asm.Restore()
}

func (m *Machine) LineWidth(w fixnum.Fixed) error {
	if err := m.requireMode(modeInitial, "line_width"); err != nil {
		return err
	}
	if w <= 0 {
		return errs.Domain("line width must be positive")
	}
	m.count()
	return m.asm.LineWidth(w)
}

func (m *Machine) LineCap(cap string) error {
	if err := m.requireMode(modeInitial, "line_cap"); err != nil {
		return err
	}
	switch cap {
	case "butt", "round", "square":
	default:
		return errs.Domain("unknown line cap %q", cap)
	}
	m.count()
	return m.asm.LineCap(cap)
}

func (m *Machine) LineJoin(join string, miter *fixnum.Fixed) error {
	if err := m.requireMode(modeInitial, "line_join"); err != nil {
		return err
	}
	switch join {
	case "miter":
		if miter == nil {
			return errs.Syntax("line_join miter requires a limit argument")
		}
		if *miter <= 0 {
			return errs.Domain("miter limit must be positive")
		}
	case "round", "bevel":
		if miter != nil {
			return errs.Syntax("line_join %s takes no limit argument", join)
		}
	default:
		return errs.Domain("unknown line join %q", join)
	}
	m.count()
	return m.asm.LineJoin(join, miter)
}

func (m *Machine) LineDash(phase fixnum.Fixed, dashes []fixnum.Fixed) error {
	if err := m.requireMode(modeInitial, "line_dash"); err != nil {
		return err
	}
	if len(dashes) == 0 || len(dashes)%2 != 0 {
		return errs.Syntax("line_dash requires a phase and dash/gap pairs")
	}
	if phase < 0 {
		return errs.Domain("dash phase must not be negative")
	}
	for _, d := range dashes {
		if d <= 0 {
			return errs.Domain("dash lengths must be positive")
		}
	}
	m.count()
	return m.asm.LineDash(phase, dashes)
}

func (m *Machine) LineUndash() error {
	if err := m.requireMode(modeInitial, "line_undash"); err != nil {
		return err
	}
	m.count()
	return m.asm.LineUndash()
}

func (m *Machine) StrokeColor(c Color) error {
	if err := m.requireMode(modeInitial, "stroke_color"); err != nil {
		return err
	}
	m.count()
	return m.asm.StrokeColor(c)
}

func (m *Machine) FillColor(c Color) error {
	if err := m.requireMode(modeInitial, "fill_color"); err != nil {
		return err
	}
	m.count()
	return m.asm.FillColor(c)
}

func (m *Machine) Matrix(mat [6]fixnum.Fixed) error {
	if err := m.requireMode(modeInitial, "matrix"); err != nil {
		return err
	}
	m.count()
	return m.asm.Matrix(mat)
}

func (m *Machine) Image(name string) error {
	if err := m.requireMode(modeInitial, "image"); err != nil {
		return err
	}
	if !m.images[name] {
		return errs.NameErr("image resource %q not defined", name)
	}
	m.count()
	return m.asm.Image(name)
}

func (m *Machine) BeginPath(stroke bool, fill, clip Rule) error {
	if err := m.requireMode(modeInitial, "begin path"); err != nil {
		return err
	}
	if !stroke && fill == RuleNone && clip == RuleNone {
		return errs.State("begin path requires stroke, fill, or clip")
	}
	m.mode = modePath
	m.lastStep = stepNone
	m.pathSteps = 0
	m.count()
	return m.asm.BeginPath(stroke, fill, clip)
}

func (m *Machine) Move(x, y fixnum.Fixed) error {
	if err := m.requireMode(modePath, "move"); err != nil {
		return err
	}
	if m.lastStep == stepMove {
		return errs.State("move may not follow move")
	}
	m.lastStep = stepMove
	m.pathSteps++
	m.count()
	return m.asm.Move(x, y)
}

func (m *Machine) Line(x, y fixnum.Fixed) error {
	if err := m.requireMode(modePath, "line"); err != nil {
		return err
	}
	if m.lastStep != stepMove && m.lastStep != stepLine && m.lastStep != stepCurve {
		return errs.State("line requires a preceding move, line, or curve")
	}
	m.lastStep = stepLine
	m.pathSteps++
	m.count()
	return m.asm.Line(x, y)
}

func (m *Machine) Curve(x2, y2, x3, y3, x4, y4 fixnum.Fixed) error {
	if err := m.requireMode(modePath, "curve"); err != nil {
		return err
	}
	if m.lastStep != stepMove && m.lastStep != stepLine && m.lastStep != stepCurve {
		return errs.State("curve requires a preceding move, line, or curve")
	}
	m.lastStep = stepCurve
	m.pathSteps++
	m.count()
	return m.asm.Curve(x2, y2, x3, y3, x4, y4)
}

func (m *Machine) Close() error {
	if err := m.requireMode(modePath, "close"); err != nil {
		return err
	}
	if m.lastStep != stepLine && m.lastStep != stepCurve {
		return errs.State("close requires a preceding line or curve")
	}
	m.lastStep = stepClose
	m.pathSteps++
	m.count()
	return m.asm.Close()
}

func (m *Machine) Rect(x, y, w, h fixnum.Fixed) error {
	if err := m.requireMode(modePath, "rect"); err != nil {
		return err
	}
	if m.lastStep == stepMove {
		return errs.State("rect may not follow move")
	}
	if w <= 0 || h <= 0 {
		return errs.Domain("rect extent must be positive")
	}
	m.lastStep = stepRect
	m.pathSteps++
	m.count()
	return m.asm.Rect(x, y, w, h)
}

func (m *Machine) EndPath() error {
	if err := m.requireMode(modePath, "end path"); err != nil {
		return err
	}
	if m.pathSteps == 0 {
		return errs.State("end path on empty path")
	}
	if m.lastStep == stepMove {
		return errs.State("path may not end on move")
	}
	m.mode = modeInitial
	m.count()
	return m.asm.EndPath()
}

func (m *Machine) BeginText(clip bool) error {
	if err := m.requireMode(modeInitial, "begin text"); err != nil {
		return err
	}
	m.mode = modeText
	m.textWrites = 0
	m.count()
	return m.asm.BeginText(clip)
}

func (m *Machine) textOp(op string) error {
	return m.requireMode(modeText, op)
}

func (m *Machine) CSpace(v fixnum.Fixed) error {
	if err := m.textOp("cspace"); err != nil {
		return err
	}
	if v < 0 {
		return errs.Domain("character spacing must not be negative")
	}
	m.count()
	return m.asm.CSpace(v)
}

func (m *Machine) WSpace(v fixnum.Fixed) error {
	if err := m.textOp("wspace"); err != nil {
		return err
	}
	if v < 0 {
		return errs.Domain("word spacing must not be negative")
	}
	m.count()
	return m.asm.WSpace(v)
}

func (m *Machine) HScale(v fixnum.Fixed) error {
	if err := m.textOp("hscale"); err != nil {
		return err
	}
	if v <= 0 {
		return errs.Domain("horizontal scale must be positive")
	}
	m.count()
	return m.asm.HScale(v)
}

func (m *Machine) Lead(v fixnum.Fixed) error {
	if err := m.textOp("lead"); err != nil {
		return err
	}
	m.count()
	return m.asm.Lead(v)
}

func (m *Machine) Font(name string, size fixnum.Fixed) error {
	if err := m.textOp("font"); err != nil {
		return err
	}
	if !m.fonts[name] {
		return errs.NameErr("font resource %q not defined", name)
	}
	if size <= 0 {
		return errs.Domain("font size must be positive")
	}
	m.fontSel[len(m.fontSel)-1] = true
	m.count()
	return m.asm.Font(name, size)
}

func (m *Machine) TextRender(mode int) error {
	if err := m.textOp("text_render"); err != nil {
		return err
	}
	if mode < 0 || mode > 7 {
		return errs.Domain("text render mode %d not in 0..7", mode)
	}
	m.count()
	return m.asm.TextRender(mode)
}

func (m *Machine) Rise(v fixnum.Fixed) error {
	if err := m.textOp("rise"); err != nil {
		return err
	}
	m.count()
	return m.asm.Rise(v)
}

func (m *Machine) AdvanceTo(x, y fixnum.Fixed) error {
	if err := m.textOp("advance"); err != nil {
		return err
	}
	m.count()
	return m.asm.AdvanceTo(x, y)
}

func (m *Machine) AdvanceNext() error {
	if err := m.textOp("advance"); err != nil {
		return err
	}
	m.count()
	return m.asm.AdvanceNext()
}

func (m *Machine) Write(text string) error {
	if err := m.textOp("write"); err != nil {
		return err
	}
	if !m.fontSel[len(m.fontSel)-1] {
		return errs.State("write requires an active font")
	}
	if !validate.ContentString(text) {
		return errs.Domain("write argument is not a valid content string")
	}
	m.textWrites++
	m.count()
	return m.asm.Write(text)
}

func (m *Machine) EndText() error {
	if err := m.requireMode(modeText, "end text"); err != nil {
		return err
	}
	if m.textWrites == 0 {
		return errs.State("text block contains no write")
	}
	m.mode = modeInitial
	m.count()
	return m.asm.EndText()
}

// Finish closes the stream: no page may be open and at least one page
// must have been defined.
func (m *Machine) Finish() error {
	if m.finished {
		return errs.State("finish after finish")
	}
	if !m.CanStop() {
		if m.mode != modeTop {
			return errs.State("finish inside %s", m.mode)
		}
		return errs.State("finish with no pages defined")
	}
	m.finished = true
	m.log.Info("assembly finished",
		observability.Int(observability.MetricInstructionCount, m.instructions),
		observability.Int(observability.MetricPageCount, m.pagesDefined))
	return m.asm.Finish()
}
