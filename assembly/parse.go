package assembly

import (
	"bufio"
	"io"
	"strings"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/validate"
)

// token classes of the instruction language
type argKind int

const (
	argName argKind = iota
	argNumber
	argString
	argColor
	argDash // '-', "absent"
)

type arg struct {
	kind argKind
	str  string
	num  fixnum.Fixed
}

// Parser reads instruction text and drives a Machine. Errors are
// annotated with the 1-based source line.
type Parser struct {
	m *Machine
}

func NewParser(m *Machine) *Parser { return &Parser{m: m} }

// Run processes the whole stream and issues the final finish.
func (p *Parser) Run(r io.Reader) error {
	br := bufio.NewReader(r)
	lineNo := 0
	sawHeader := false
	for {
		line, err := br.ReadString('\n')
		eof := err == io.EOF
		if err != nil && !eof {
			return errs.Resource("reading assembly: %v", err)
		}
		if line == "" && eof {
			break
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if perr := p.processLine(line, &sawHeader); perr != nil {
			return errs.WithLine(perr, lineNo)
		}
		if eof {
			break
		}
	}
	if !sawHeader {
		return errs.Syntax("missing scent-assembly header")
	}
	return p.m.Finish()
}

func (p *Parser) processLine(line string, sawHeader *bool) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if strings.HasPrefix(line, "'") {
		return nil
	}
	if line[0] == ' ' || line[0] == '\t' {
		return errs.Syntax("leading whitespace before instruction")
	}
	if !*sawHeader {
		fields := splitFields(line)
		if len(fields) != 2 || fields[0] != "scent-assembly" {
			return errs.Syntax("expected scent-assembly header")
		}
		if fields[1] != "1.0" {
			return errs.Syntax("unsupported assembly version %q", fields[1])
		}
		*sawHeader = true
		return nil
	}
	return p.instruction(line)
}

// splitFields splits on runs of spaces/tabs outside quoted strings,
// keeping quotes attached to their field.
func splitFields(line string) []string {
	var fields []string
	var b strings.Builder
	inStr := false
	flush := func() {
		if b.Len() > 0 {
			fields = append(fields, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inStr:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(line) {
				i++
				b.WriteByte(line[i])
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			b.WriteByte(c)
			inStr = true
		case c == ' ' || c == '\t':
			flush()
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return fields
}

func parseArg(tok string) (arg, error) {
	switch {
	case tok == "-":
		return arg{kind: argDash}, nil
	case tok[0] == '"':
		if len(tok) < 2 || tok[len(tok)-1] != '"' {
			return arg{}, errs.Syntax("unclosed string %s", tok)
		}
		body := tok[1 : len(tok)-1]
		var b strings.Builder
		for i := 0; i < len(body); i++ {
			c := body[i]
			if c == '\\' {
				i++
				if i >= len(body) {
					return arg{}, errs.Syntax("dangling escape in string")
				}
				switch body[i] {
				case '\\':
					b.WriteByte('\\')
				case '\'':
					b.WriteByte('"')
				default:
					return arg{}, errs.Syntax("invalid string escape \\%s", string(body[i]))
				}
				continue
			}
			if c == '"' {
				return arg{}, errs.Syntax("unescaped quote inside string")
			}
			b.WriteByte(c)
		}
		return arg{kind: argString, str: b.String()}, nil
	case tok[0] == '%':
		if !validate.CMYK(tok) {
			return arg{}, errs.Syntax("invalid color literal %s", tok)
		}
		return arg{kind: argColor, str: tok}, nil
	case tok[0] == '+' || tok[0] == '-' || tok[0] == '.' || tok[0] >= '0' && tok[0] <= '9':
		f, err := fixnum.Parse(tok)
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argNumber, num: f}, nil
	default:
		return arg{kind: argName, str: tok}, nil
	}
}

func hexByte(s string) uint8 {
	v := uint8(0)
	for i := 0; i < 2; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | (c - '0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | (c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | (c - 'A' + 10)
		}
	}
	return v
}

func colorOf(a arg) Color {
	s := a.str
	return Color{hexByte(s[1:3]), hexByte(s[3:5]), hexByte(s[5:7]), hexByte(s[7:9])}
}

func (p *Parser) instruction(line string) error {
	fields := splitFields(line)
	verb := fields[0]
	rest := fields[1:]

	// begin/end take a selector token
	if verb == "begin" || verb == "end" {
		if len(rest) == 0 {
			return errs.Syntax("%s requires a selector", verb)
		}
		sel := rest[0]
		rest = rest[1:]
		switch verb + " " + sel {
		case "begin page":
			return expectNone(rest, "begin page", p.m.BeginPage)
		case "end page":
			return expectNone(rest, "end page", p.m.EndPage)
		case "begin path":
			return p.beginPath(rest)
		case "end path":
			return expectNone(rest, "end path", p.m.EndPath)
		case "begin text":
			return p.beginText(rest)
		case "end text":
			return expectNone(rest, "end text", p.m.EndText)
		}
		return errs.Syntax("unknown instruction %q", verb+" "+sel)
	}

	args := make([]arg, len(rest))
	for i, tok := range rest {
		a, err := parseArg(tok)
		if err != nil {
			return err
		}
		args[i] = a
	}

	switch verb {
	case "font_standard":
		name, err := nameArgs(args, 2, verb)
		if err != nil {
			return err
		}
		if args[1].kind != argString {
			return errs.Type("font_standard requires a quoted base font")
		}
		return p.m.FontStandard(name, args[1].str)
	case "font_file":
		if len(args) != 3 || args[0].kind != argName || args[1].kind != argString || args[2].kind != argName {
			return errs.Syntax("font_file requires name, path string, and format")
		}
		return p.m.FontFile(args[0].str, args[1].str, args[2].str)
	case "image_jpeg", "image_png":
		if len(args) != 2 || args[0].kind != argName || args[1].kind != argString {
			return errs.Syntax("%s requires a name and a path string", verb)
		}
		if verb == "image_jpeg" {
			return p.m.ImageJPEG(args[0].str, args[1].str)
		}
		return p.m.ImagePNG(args[0].str, args[1].str)
	case "dim":
		n, err := numArgs(args, 2, verb)
		if err != nil {
			return err
		}
		return p.m.Dim(n[0], n[1])
	case "art_box", "trim_box", "bleed_box":
		n, err := numArgs(args, 4, verb)
		if err != nil {
			return err
		}
		box := map[string]string{"art_box": "ArtBox", "trim_box": "TrimBox", "bleed_box": "BleedBox"}[verb]
		return p.m.Box(box, n[0], n[1], n[2], n[3])
	case "view_rotate":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		if !n[0].IsIntegral() {
			return errs.Type("view_rotate requires an integer")
		}
		return p.m.ViewRotate(int(n[0] / fixnum.Scale))
	case "body":
		return expectNone(argTokens(args), verb, p.m.Body)
	case "save":
		return expectNone(argTokens(args), verb, p.m.Save)
	case "restore":
		return expectNone(argTokens(args), verb, p.m.Restore)
	case "line_width":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.LineWidth(n[0])
	case "line_cap":
		name, err := nameArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.LineCap(name)
	case "line_join":
		if len(args) == 0 || args[0].kind != argName {
			return errs.Syntax("line_join requires a join name")
		}
		var miter *fixnum.Fixed
		if len(args) == 2 {
			if args[1].kind != argNumber {
				return errs.Type("line_join limit must be numeric")
			}
			miter = &args[1].num
		} else if len(args) > 2 {
			return errs.Syntax("line_join takes at most two arguments")
		}
		return p.m.LineJoin(args[0].str, miter)
	case "line_dash":
		if len(args) < 3 || len(args)%2 == 0 {
			return errs.Syntax("line_dash requires an odd argument count of at least 3")
		}
		nums := make([]fixnum.Fixed, len(args))
		for i, a := range args {
			if a.kind != argNumber {
				return errs.Type("line_dash arguments must be numeric")
			}
			nums[i] = a.num
		}
		return p.m.LineDash(nums[0], nums[1:])
	case "line_undash":
		return expectNone(argTokens(args), verb, p.m.LineUndash)
	case "stroke_color", "fill_color":
		if len(args) != 1 || args[0].kind != argColor {
			return errs.Syntax("%s requires a color literal", verb)
		}
		if verb == "stroke_color" {
			return p.m.StrokeColor(colorOf(args[0]))
		}
		return p.m.FillColor(colorOf(args[0]))
	case "matrix":
		n, err := numArgs(args, 6, verb)
		if err != nil {
			return err
		}
		return p.m.Matrix([6]fixnum.Fixed{n[0], n[1], n[2], n[3], n[4], n[5]})
	case "image":
		name, err := nameArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.Image(name)
	case "move":
		n, err := numArgs(args, 2, verb)
		if err != nil {
			return err
		}
		return p.m.Move(n[0], n[1])
	case "line":
		n, err := numArgs(args, 2, verb)
		if err != nil {
			return err
		}
		return p.m.Line(n[0], n[1])
	case "curve":
		n, err := numArgs(args, 6, verb)
		if err != nil {
			return err
		}
		return p.m.Curve(n[0], n[1], n[2], n[3], n[4], n[5])
	case "close":
		return expectNone(argTokens(args), verb, p.m.Close)
	case "rect":
		n, err := numArgs(args, 4, verb)
		if err != nil {
			return err
		}
		return p.m.Rect(n[0], n[1], n[2], n[3])
	case "cspace":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.CSpace(n[0])
	case "wspace":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.WSpace(n[0])
	case "hscale":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.HScale(n[0])
	case "lead":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.Lead(n[0])
	case "font":
		if len(args) != 2 || args[0].kind != argName || args[1].kind != argNumber {
			return errs.Syntax("font requires a name and a size")
		}
		return p.m.Font(args[0].str, args[1].num)
	case "text_render":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		if !n[0].IsIntegral() {
			return errs.Type("text_render requires an integer")
		}
		return p.m.TextRender(int(n[0] / fixnum.Scale))
	case "rise":
		n, err := numArgs(args, 1, verb)
		if err != nil {
			return err
		}
		return p.m.Rise(n[0])
	case "advance":
		switch len(args) {
		case 0:
			return p.m.AdvanceNext()
		case 2:
			n, err := numArgs(args, 2, verb)
			if err != nil {
				return err
			}
			return p.m.AdvanceTo(n[0], n[1])
		}
		return errs.Syntax("advance takes zero or two arguments")
	case "write":
		if len(args) != 1 || args[0].kind != argString {
			return errs.Syntax("write requires a string argument")
		}
		return p.m.Write(args[0].str)
	}
	return errs.Syntax("unknown instruction %q", verb)
}

func (p *Parser) beginPath(rest []string) error {
	if len(rest) != 3 {
		return errs.Syntax("begin path requires stroke, fill, and clip arguments")
	}
	stroke := false
	switch rest[0] {
	case "stroke":
		stroke = true
	case "-":
	default:
		return errs.Syntax("begin path stroke argument must be 'stroke' or '-'")
	}
	fill, err := ruleArg(rest[1], "fill")
	if err != nil {
		return err
	}
	clip, err := ruleArg(rest[2], "clip")
	if err != nil {
		return err
	}
	return p.m.BeginPath(stroke, fill, clip)
}

func (p *Parser) beginText(rest []string) error {
	if len(rest) != 1 {
		return errs.Syntax("begin text requires a clip argument")
	}
	switch rest[0] {
	case "clip":
		return p.m.BeginText(true)
	case "-":
		return p.m.BeginText(false)
	}
	return errs.Syntax("begin text argument must be 'clip' or '-'")
}

func ruleArg(tok, what string) (Rule, error) {
	switch tok {
	case "nonzero":
		return RuleNonzero, nil
	case "evenodd":
		return RuleEvenOdd, nil
	case "-":
		return RuleNone, nil
	}
	return RuleNone, errs.Syntax("%s argument must be 'nonzero', 'evenodd', or '-'", what)
}

func expectNone(rest []string, verb string, f func() error) error {
	if len(rest) != 0 {
		return errs.Syntax("%s takes no arguments", verb)
	}
	return f()
}

func argTokens(args []arg) []string {
	toks := make([]string, len(args))
	for i := range args {
		toks[i] = "x"
	}
	return toks
}

func numArgs(args []arg, n int, verb string) ([]fixnum.Fixed, error) {
	if len(args) != n {
		return nil, errs.Syntax("%s requires %d numeric arguments", verb, n)
	}
	out := make([]fixnum.Fixed, n)
	for i, a := range args {
		if a.kind != argNumber {
			return nil, errs.Type("%s arguments must be numeric", verb)
		}
		out[i] = a.num
	}
	return out, nil
}

func nameArgs(args []arg, n int, verb string) (string, error) {
	if len(args) != n {
		return "", errs.Syntax("%s requires %d arguments", verb, n)
	}
	if args[0].kind != argName {
		return "", errs.Type("%s first argument must be a name", verb)
	}
	return args[0].str, nil
}
