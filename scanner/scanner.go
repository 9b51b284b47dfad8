// Package scanner tokenizes document-language source into entities:
// meta marks and tokens, curly strings, atoms, numerics, grouping and
// array marks, name sigils, and the end-of-source mark.
package scanner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/validate"
)

type EntityType int

const (
	EntityBeginMeta EntityType = iota // '<<'
	EntityEndMeta                     // '>>'
	EntityMetaToken                   // bare token between meta marks
	EntityString                      // '{…}' decoded
	EntityAtom                        // '"…"'
	EntityInteger                     // integer numeric
	EntityFixed                       // decimal numeric
	EntityBeginGroup                  // '('
	EntityEndGroup                    // ')'
	EntityBeginArray                  // '['
	EntityEndArray                    // ']'
	EntityVarDecl                     // '$name'
	EntityConstDecl                   // '@name'
	EntityAssign                      // '=name'
	EntityName                        // bare identifier
	EntityEnd                         // solitary '.'
)

func (t EntityType) String() string {
	switch t {
	case EntityBeginMeta:
		return "begin-meta"
	case EntityEndMeta:
		return "end-meta"
	case EntityMetaToken:
		return "meta token"
	case EntityString:
		return "string"
	case EntityAtom:
		return "atom"
	case EntityInteger:
		return "integer"
	case EntityFixed:
		return "fixed"
	case EntityBeginGroup:
		return "begin-group"
	case EntityEndGroup:
		return "end-group"
	case EntityBeginArray:
		return "begin-array"
	case EntityEndArray:
		return "end-array"
	case EntityVarDecl:
		return "variable declaration"
	case EntityConstDecl:
		return "constant declaration"
	case EntityAssign:
		return "assignment"
	case EntityName:
		return "name"
	case EntityEnd:
		return "end mark"
	}
	return "?"
}

// maxNumeric bounds integer numerics at scan time (2^53-1).
const maxNumeric = 1<<53 - 1

// Entity is one scanned token.
type Entity struct {
	Type  EntityType
	Str   string // string/atom/meta/name payload
	Int   int64  // integer payload
	Fixed fixnum.Fixed
	Line  int // 1-based source line
}

// Scanner walks a source buffer entity by entity.
type Scanner struct {
	src    string
	pos    int
	line   int
	inMeta bool
	done   bool
}

func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Next returns the next entity; the second result is true at end of
// input (or past the end-of-source mark).
func (s *Scanner) Next() (Entity, bool, error) {
	if s.done {
		return Entity{}, true, nil
	}
	s.skipSpace()
	if s.pos >= len(s.src) {
		return Entity{}, true, nil
	}
	start := s.line
	c := s.src[s.pos]
	switch {
	case c == '<' && s.peek(1) == '<':
		s.pos += 2
		s.inMeta = true
		return Entity{Type: EntityBeginMeta, Line: start}, false, nil
	case c == '>' && s.peek(1) == '>':
		s.pos += 2
		s.inMeta = false
		return Entity{Type: EntityEndMeta, Line: start}, false, nil
	}
	if s.inMeta {
		return s.scanMetaToken(start)
	}
	switch c {
	case '{':
		return s.scanCurly(start)
	case '"':
		return s.scanAtom(start)
	case '(':
		s.pos++
		return Entity{Type: EntityBeginGroup, Line: start}, false, nil
	case ')':
		s.pos++
		return Entity{Type: EntityEndGroup, Line: start}, false, nil
	case '[':
		s.pos++
		return Entity{Type: EntityBeginArray, Line: start}, false, nil
	case ']':
		s.pos++
		return Entity{Type: EntityEndArray, Line: start}, false, nil
	case '$':
		return s.scanSigil(EntityVarDecl, start)
	case '@':
		return s.scanSigil(EntityConstDecl, start)
	case '=':
		return s.scanSigil(EntityAssign, start)
	}
	if c == '.' && !isDigit(s.peek(1)) {
		s.pos++
		s.done = true
		return Entity{Type: EntityEnd, Line: start}, false, nil
	}
	if c == '+' || c == '-' || c == '.' || isDigit(c) {
		return s.scanNumeric(start)
	}
	if isNameStart(c) {
		return s.scanName(start)
	}
	return Entity{}, false, errs.WithLine(errs.Syntax("unexpected character %q", string(c)), start)
}

func (s *Scanner) peek(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r':
			s.pos++
		case '\n':
			s.line++
			s.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) }

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '(', ')', '[', ']', '{', '}', '"', '<', '>':
		return true
	}
	return false
}

func (s *Scanner) bareToken() string {
	start := s.pos
	for s.pos < len(s.src) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *Scanner) scanMetaToken(line int) (Entity, bool, error) {
	tok := s.bareToken()
	if tok == "" {
		return Entity{}, false, errs.WithLine(errs.Syntax("empty meta token"), line)
	}
	return Entity{Type: EntityMetaToken, Str: tok, Line: line}, false, nil
}

func (s *Scanner) scanSigil(t EntityType, line int) (Entity, bool, error) {
	s.pos++
	name := s.bareToken()
	if !validate.Name(name) {
		return Entity{}, false, errs.WithLine(errs.Syntax("invalid identifier %q", name), line)
	}
	return Entity{Type: t, Str: name, Line: line}, false, nil
}

func (s *Scanner) scanName(line int) (Entity, bool, error) {
	name := s.bareToken()
	if !validate.Name(name) {
		return Entity{}, false, errs.WithLine(errs.Syntax("invalid identifier %q", name), line)
	}
	return Entity{Type: EntityName, Str: name, Line: line}, false, nil
}

func (s *Scanner) scanNumeric(line int) (Entity, bool, error) {
	tok := s.bareToken()
	if !strings.Contains(tok, ".") {
		neg := false
		t := tok
		if len(t) > 0 && (t[0] == '+' || t[0] == '-') {
			neg = t[0] == '-'
			t = t[1:]
		}
		if t == "" {
			return Entity{}, false, errs.WithLine(errs.Syntax("invalid numeric %q", tok), line)
		}
		var v int64
		for i := 0; i < len(t); i++ {
			if !isDigit(t[i]) {
				return Entity{}, false, errs.WithLine(errs.Syntax("invalid numeric %q", tok), line)
			}
			v = v*10 + int64(t[i]-'0')
			if v > maxNumeric {
				return Entity{}, false, errs.WithLine(errs.Domain("numeric %q out of range", tok), line)
			}
		}
		if neg {
			v = -v
		}
		return Entity{Type: EntityInteger, Int: v, Line: line}, false, nil
	}
	f, err := fixnum.Parse(tok)
	if err != nil {
		return Entity{}, false, errs.WithLine(err, line)
	}
	return Entity{Type: EntityFixed, Fixed: f, Line: line}, false, nil
}

func (s *Scanner) scanAtom(line int) (Entity, bool, error) {
	s.pos++ // opening quote
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '"' {
			atom := s.src[start:s.pos]
			s.pos++
			return Entity{Type: EntityAtom, Str: atom, Line: line}, false, nil
		}
		if c == '\n' {
			break
		}
		s.pos++
	}
	return Entity{}, false, errs.WithLine(errs.Syntax("unclosed atom"), line)
}

func (s *Scanner) scanCurly(line int) (Entity, bool, error) {
	s.pos++ // opening brace
	var b strings.Builder
	depth := 1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '\\':
			if err := s.scanEscape(&b); err != nil {
				return Entity{}, false, errs.WithLine(err, s.line)
			}
		case '{':
			depth++
			b.WriteByte('{')
			s.pos++
		case '}':
			depth--
			s.pos++
			if depth == 0 {
				return Entity{Type: EntityString, Str: b.String(), Line: line}, false, nil
			}
			b.WriteByte('}')
		case '\n':
			s.line++
			b.WriteByte('\n')
			s.pos++
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return Entity{}, false, errs.WithLine(errs.Syntax("unclosed string"), line)
}

func (s *Scanner) scanEscape(b *strings.Builder) error {
	s.pos++ // backslash
	if s.pos >= len(s.src) {
		return errs.Syntax("dangling escape at end of input")
	}
	c := s.src[s.pos]
	s.pos++
	switch c {
	case '\\':
		b.WriteByte('\\')
	case '{':
		b.WriteByte('{')
	case '}':
		b.WriteByte('}')
	case 'n':
		b.WriteByte('\n')
	case 'u':
		return s.scanHexEscape(b, 4)
	case 'U':
		return s.scanHexEscape(b, 6)
	case '.':
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.pos++
		}
		if s.pos < len(s.src) {
			s.line++
			s.pos++ // consume the LF as well
		}
	default:
		return errs.Syntax("invalid escape \\%s", string(c))
	}
	return nil
}

func (s *Scanner) scanHexEscape(b *strings.Builder, digits int) error {
	if s.pos+digits > len(s.src) {
		return errs.Syntax("truncated hex escape")
	}
	var v rune
	for i := 0; i < digits; i++ {
		c := s.src[s.pos+i]
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return errs.Syntax("hex escape requires exactly %d hex digits", digits)
		}
		v = v<<4 | d
	}
	s.pos += digits
	if v > utf8.MaxRune || (v >= 0xD800 && v <= 0xDFFF) {
		return errs.Syntax("hex escape U+%04X is not a scalar value", v)
	}
	b.WriteRune(v)
	return nil
}

// Dialect selects the active operation family.
type Dialect int

const (
	DialectA Dialect = iota // 'scent'
	DialectB                // 'scent-embed'
)

func (d Dialect) String() string {
	if d == DialectA {
		return "scent"
	}
	return "scent-embed"
}

// Bounds is the embed placement rectangle from a scent-embed header.
type Bounds struct {
	X, Y, W, H fixnum.Fixed
}

// Header is the parsed meta header.
type Header struct {
	Dialect Dialect
	Bounds  *Bounds // non-nil only for scent-embed
}

// ReadHeader consumes and validates the mandatory header from s.
func (s *Scanner) ReadHeader() (*Header, error) {
	next := func() (Entity, error) {
		e, eof, err := s.Next()
		if err != nil {
			return Entity{}, err
		}
		if eof {
			return Entity{}, errs.Syntax("truncated header")
		}
		return e, nil
	}
	e, err := next()
	if err != nil {
		return nil, err
	}
	if e.Type != EntityBeginMeta {
		return nil, errs.WithLine(errs.Syntax("source must start with a meta header"), e.Line)
	}
	name, err := next()
	if err != nil {
		return nil, err
	}
	if name.Type != EntityMetaToken || (name.Str != "scent" && name.Str != "scent-embed") {
		return nil, errs.WithLine(errs.Syntax("unknown source format %q", name.Str), name.Line)
	}
	version, err := next()
	if err != nil {
		return nil, err
	}
	if version.Type != EntityMetaToken || version.Str != "1.0" {
		return nil, errs.WithLine(errs.Syntax("unsupported version %q", version.Str), version.Line)
	}
	h := &Header{Dialect: DialectA}
	if name.Str == "scent-embed" {
		h.Dialect = DialectB
		b, err := s.readBounds(next)
		if err != nil {
			return nil, err
		}
		h.Bounds = b
	}
	end, err := next()
	if err != nil {
		return nil, err
	}
	if end.Type != EntityEndMeta {
		return nil, errs.WithLine(errs.Syntax("unterminated meta header"), end.Line)
	}
	return h, nil
}

func (s *Scanner) readBounds(next func() (Entity, error)) (*Bounds, error) {
	var b Bounds
	slots := []struct {
		key string
		dst *fixnum.Fixed
	}{
		{"bound-x", &b.X},
		{"bound-y", &b.Y},
		{"bound-w", &b.W},
		{"bound-h", &b.H},
	}
	for _, slot := range slots {
		key, err := next()
		if err != nil {
			return nil, err
		}
		if key.Type != EntityMetaToken || key.Str != slot.key {
			return nil, errs.WithLine(errs.Syntax("expected %s meta, got %q", slot.key, key.Str), key.Line)
		}
		val, err := next()
		if err != nil {
			return nil, err
		}
		if val.Type != EntityMetaToken {
			return nil, errs.WithLine(errs.Syntax("expected %s value", slot.key), val.Line)
		}
		f, err := fixnum.Parse(val.Str)
		if err != nil {
			return nil, errs.WithLine(err, val.Line)
		}
		*slot.dst = f
	}
	body, err := next()
	if err != nil {
		return nil, err
	}
	if body.Type != EntityMetaToken || body.Str != "body" {
		return nil, errs.WithLine(errs.Syntax("expected body meta after bounds"), body.Line)
	}
	if b.W <= 0 || b.H <= 0 {
		return nil, errs.Domain("embed bounds must have positive extent")
	}
	return &b, nil
}

// String renders an entity for diagnostics.
func (e Entity) String() string {
	switch e.Type {
	case EntityString, EntityAtom, EntityMetaToken, EntityName, EntityVarDecl, EntityConstDecl, EntityAssign:
		return fmt.Sprintf("%s %q", e.Type, e.Str)
	case EntityInteger:
		return fmt.Sprintf("integer %d", e.Int)
	case EntityFixed:
		return fmt.Sprintf("fixed %s", e.Fixed)
	}
	return e.Type.String()
}
