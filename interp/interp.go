// Package interp evaluates document-language entity streams: a typed
// stack with group visibility frames, array counting, a single
// namespace of variables and constants, an accumulator register for
// incremental object construction, and a page register driving the
// assembly machine.
package interp

import (
	"math"

	"github.com/scentlang/scent/assembly"
	"github.com/scentlang/scent/errs"
	"github.com/scentlang/scent/fixnum"
	"github.com/scentlang/scent/fonts"
	"github.com/scentlang/scent/images"
	"github.com/scentlang/scent/observability"
	"github.com/scentlang/scent/scanner"
	"github.com/scentlang/scent/validate"
	"github.com/scentlang/scent/value"
)

type cell struct {
	v        value.Value
	constant bool
}

// Evaluator owns all interpreter state. One instance per compilation;
// never shared across goroutines.
type Evaluator struct {
	dialect scanner.Dialect
	machine *assembly.Machine
	log     observability.Logger

	fontLoader fonts.Loader
	imgLoader  images.Loader

	stack  []value.Value
	marks  []int // group frames: stack depth at begin-group
	arrays []int // array frames: stack depth at begin-array
	ns     map[string]cell

	accum accumulator
	page  *pageState

	ops map[string]opFunc

	fontSeq  int
	imageSeq int

	// embedded evaluators draw on the host page and may not touch the
	// page register
	embedded bool
	host     *Evaluator
}

type pageState struct {
	ream *value.Ream
}

type opFunc func(ev *Evaluator) error

// Options configures an evaluator.
type Options struct {
	FontLoader  fonts.Loader
	ImageLoader images.Loader
	Logger      observability.Logger
}

// New builds an evaluator for the given dialect targeting m.
func New(dialect scanner.Dialect, m *assembly.Machine, opts Options) *Evaluator {
	if opts.FontLoader == nil {
		opts.FontLoader = fonts.NewLoader()
	}
	if opts.ImageLoader == nil {
		opts.ImageLoader = images.NewLoader()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	ev := &Evaluator{
		dialect:    dialect,
		machine:    m,
		log:        opts.Logger,
		fontLoader: opts.FontLoader,
		imgLoader:  opts.ImageLoader,
		ns:         make(map[string]cell),
	}
	ev.ops = buildOpTable(dialect)
	return ev
}

// Run consumes the remaining entity stream (the header must already be
// read) and performs the end-of-input validation.
func (ev *Evaluator) Run(sc *scanner.Scanner) error {
	entities := 0
	for {
		e, eof, err := sc.Next()
		if err != nil {
			return err
		}
		if eof {
			break
		}
		if e.Type == scanner.EntityEnd {
			break
		}
		entities++
		if err := ev.dispatch(e); err != nil {
			return errs.WithLine(err, e.Line)
		}
	}
	ev.log.Debug("evaluation complete", observability.Int(observability.MetricEntityCount, entities))
	return ev.validateEnd()
}

func (ev *Evaluator) validateEnd() error {
	if len(ev.marks) > 0 {
		return errs.State("unterminated group")
	}
	if len(ev.arrays) > 0 {
		return errs.State("unterminated array")
	}
	if len(ev.stack) != 0 {
		return errs.State("%d values left on the stack at end of input", len(ev.stack))
	}
	if ev.page != nil {
		return errs.State("page still open at end of input")
	}
	if ev.accum != nil {
		return errs.State("unfinished %s at end of input", ev.accum.what())
	}
	return nil
}

func (ev *Evaluator) dispatch(e scanner.Entity) error {
	switch e.Type {
	case scanner.EntityString:
		if !validate.ContentString(e.Str) {
			return errs.Domain("invalid content string")
		}
		ev.push(value.String(e.Str))
		return nil
	case scanner.EntityAtom:
		ev.push(value.Atom(e.Str))
		return nil
	case scanner.EntityInteger:
		if e.Int < math.MinInt32 || e.Int > math.MaxInt32 {
			return errs.Domain("integer %d exceeds 32-bit range", e.Int)
		}
		ev.push(value.Integer(e.Int))
		return nil
	case scanner.EntityFixed:
		ev.push(value.Fixed(e.Fixed))
		return nil
	case scanner.EntityBeginGroup:
		ev.marks = append(ev.marks, len(ev.stack))
		return nil
	case scanner.EntityEndGroup:
		return ev.endGroup()
	case scanner.EntityBeginArray:
		ev.arrays = append(ev.arrays, len(ev.stack))
		return nil
	case scanner.EntityEndArray:
		return ev.endArray()
	case scanner.EntityVarDecl:
		return ev.declare(e.Str, false)
	case scanner.EntityConstDecl:
		return ev.declare(e.Str, true)
	case scanner.EntityAssign:
		return ev.assign(e.Str)
	case scanner.EntityName:
		return ev.resolve(e.Str)
	case scanner.EntityBeginMeta, scanner.EntityEndMeta, scanner.EntityMetaToken:
		return errs.Syntax("meta entity outside the header")
	}
	return errs.Syntax("unexpected entity %s", e)
}

func (ev *Evaluator) endGroup() error {
	if len(ev.marks) == 0 {
		return errs.State("end-group without begin-group")
	}
	mark := ev.marks[len(ev.marks)-1]
	if len(ev.stack)-mark != 1 {
		return errs.State("group must end with exactly one value, has %d", len(ev.stack)-mark)
	}
	ev.marks = ev.marks[:len(ev.marks)-1]
	return nil
}

func (ev *Evaluator) endArray() error {
	if len(ev.arrays) == 0 {
		return errs.State("end-array without begin-array")
	}
	depth := ev.arrays[len(ev.arrays)-1]
	ev.arrays = ev.arrays[:len(ev.arrays)-1]
	count := len(ev.stack) - depth
	ev.push(value.Integer(count))
	return nil
}

func (ev *Evaluator) declare(name string, constant bool) error {
	if _, exists := ev.ns[name]; exists {
		return errs.NameErr("name %q already declared", name)
	}
	if _, isOp := ev.ops[name]; isOp {
		return errs.NameErr("name %q is an operation", name)
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	ev.ns[name] = cell{v: v, constant: constant}
	return nil
}

func (ev *Evaluator) assign(name string) error {
	c, exists := ev.ns[name]
	if !exists {
		return errs.NameErr("assignment to undeclared name %q", name)
	}
	if c.constant {
		return errs.NameErr("assignment to constant %q", name)
	}
	v, err := ev.pop()
	if err != nil {
		return err
	}
	ev.ns[name] = cell{v: v}
	return nil
}

func (ev *Evaluator) resolve(name string) error {
	if c, ok := ev.ns[name]; ok {
		ev.push(c.v)
		return nil
	}
	if op, ok := ev.ops[name]; ok {
		return op(ev)
	}
	if isOtherDialectOp(name, ev.dialect) {
		return errs.State("operation %q belongs to the %s dialect", name, otherDialect(ev.dialect))
	}
	return errs.NameErr("unknown name %q", name)
}

func otherDialect(d scanner.Dialect) scanner.Dialect {
	if d == scanner.DialectA {
		return scanner.DialectB
	}
	return scanner.DialectA
}

// floor is the lowest stack index the current frame may pop into.
func (ev *Evaluator) floor() int {
	f := 0
	if n := len(ev.marks); n > 0 && ev.marks[n-1] > f {
		f = ev.marks[n-1]
	}
	if n := len(ev.arrays); n > 0 && ev.arrays[n-1] > f {
		f = ev.arrays[n-1]
	}
	return f
}

func (ev *Evaluator) push(v value.Value) {
	ev.stack = append(ev.stack, v)
}

func (ev *Evaluator) pop() (value.Value, error) {
	if len(ev.stack) <= ev.floor() {
		return nil, errs.Type("stack underflow")
	}
	v := ev.stack[len(ev.stack)-1]
	ev.stack = ev.stack[:len(ev.stack)-1]
	return v, nil
}

// typed pops

func (ev *Evaluator) popInteger() (int32, error) {
	v, err := ev.pop()
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Integer)
	if !ok {
		return 0, errs.Type("expected integer, got %s", v.Kind())
	}
	return int32(n), nil
}

// popFixed accepts a fixed value or promotes an in-range integer.
func (ev *Evaluator) popFixed() (fixnum.Fixed, error) {
	v, err := ev.pop()
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case value.Fixed:
		return n.Num(), nil
	case value.Integer:
		return fixnum.FromInt(int32(n))
	}
	return 0, errs.Type("expected fixed-point value, got %s", v.Kind())
}

func (ev *Evaluator) popString() (string, error) {
	v, err := ev.pop()
	if err != nil {
		return "", err
	}
	s, ok := v.(value.String)
	if !ok {
		return "", errs.Type("expected string, got %s", v.Kind())
	}
	return string(s), nil
}

// popAtom checks set membership: an unknown atom is a domain error at
// its use site.
func (ev *Evaluator) popAtom() (value.Atom, error) {
	v, err := ev.pop()
	if err != nil {
		return "", err
	}
	a, ok := v.(value.Atom)
	if !ok {
		return "", errs.Type("expected atom, got %s", v.Kind())
	}
	if !value.KnownAtom(a) {
		return "", errs.Domain("unknown atom %q", string(a))
	}
	return a, nil
}

func (ev *Evaluator) popDict() (value.Dict, error) {
	v, err := ev.pop()
	if err != nil {
		return nil, err
	}
	d, ok := v.(value.Dict)
	if !ok {
		return nil, errs.Type("expected dictionary, got %s", v.Kind())
	}
	return d, nil
}

// fixedFromValue promotes dictionary entries the same way stack pops do.
func fixedFromValue(v value.Value) (fixnum.Fixed, error) {
	switch n := v.(type) {
	case value.Fixed:
		return n.Num(), nil
	case value.Integer:
		return fixnum.FromInt(int32(n))
	}
	return 0, errs.Type("expected fixed-point value, got %s", v.Kind())
}

