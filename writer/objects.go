package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// ObjectRef identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the closed set of raw PDF objects the writer emits.
type Object interface {
	writeTo(b *bytes.Buffer)
}

type NameObj struct{ Val string }

func (n NameObj) writeTo(b *bytes.Buffer) {
	b.WriteByte('/')
	b.WriteString(n.Val)
}

type NumberObj struct {
	I     int64
	F     float64
	IsInt bool
}

func (n NumberObj) writeTo(b *bytes.Buffer) {
	if n.IsInt {
		b.WriteString(strconv.FormatInt(n.I, 10))
		return
	}
	b.WriteString(formatFloat(n.F))
}

// formatFloat renders a PDF numeric: plain decimal, at most five
// fractional digits, no exponent.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 5, 64)
	// strip trailing zeros and a bare point
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	if i == 0 {
		return "0"
	}
	return s[:i]
}

type StringObj struct{ Bytes []byte }

func (s StringObj) writeTo(b *bytes.Buffer) {
	b.WriteByte('(')
	for _, c := range s.Bytes {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
}

type BoolObj struct{ V bool }

func (o BoolObj) writeTo(b *bytes.Buffer) {
	if o.V {
		b.WriteString("true")
	} else {
		b.WriteString("false")
	}
}

type NullObj struct{}

func (NullObj) writeTo(b *bytes.Buffer) { b.WriteString("null") }

type RefObj struct{ R ObjectRef }

func (r RefObj) writeTo(b *bytes.Buffer) { b.WriteString(r.R.String()) }

type ArrayObj struct{ Items []Object }

func (a *ArrayObj) writeTo(b *bytes.Buffer) {
	b.WriteByte('[')
	for i, it := range a.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		it.writeTo(b)
	}
	b.WriteByte(']')
}

func (a *ArrayObj) Append(o Object) { a.Items = append(a.Items, o) }

// DictObj is a dictionary with deterministic (sorted) key emission.
type DictObj struct{ KV map[string]Object }

func (d *DictObj) Set(key string, v Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	d.KV[key] = v
}

func (d *DictObj) writeTo(b *bytes.Buffer) {
	keys := make([]string, 0, len(d.KV))
	for k := range d.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("<<")
	for _, k := range keys {
		b.WriteByte(' ')
		NameObj{Val: k}.writeTo(b)
		b.WriteByte(' ')
		d.KV[k].writeTo(b)
	}
	b.WriteString(" >>")
}

type StreamObj struct {
	Dict *DictObj
	Data []byte
}

func (s *StreamObj) writeTo(b *bytes.Buffer) {
	s.Dict.Set("Length", Int(int64(len(s.Data))))
	s.Dict.writeTo(b)
	b.WriteString("\nstream\n")
	b.Write(s.Data)
	b.WriteString("\nendstream")
}

// Literal helpers.
func Name(v string) NameObj               { return NameObj{Val: v} }
func Int(i int64) NumberObj               { return NumberObj{I: i, IsInt: true} }
func Float(f float64) NumberObj           { return NumberObj{F: f} }
func Str(b []byte) StringObj              { return StringObj{Bytes: b} }
func Bool(v bool) BoolObj                 { return BoolObj{V: v} }
func Ref(r ObjectRef) RefObj              { return RefObj{R: r} }
func Dict() *DictObj                      { return &DictObj{KV: make(map[string]Object)} }
func Array(items ...Object) *ArrayObj     { return &ArrayObj{Items: items} }
func Stream(d *DictObj, data []byte) *StreamObj { return &StreamObj{Dict: d, Data: data} }

// FloatArray builds a numeric array.
func FloatArray(vals ...float64) *ArrayObj {
	a := &ArrayObj{}
	for _, v := range vals {
		a.Append(Float(v))
	}
	return a
}
