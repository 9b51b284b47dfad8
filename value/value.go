// Package value defines the tagged value model of the document language:
// the primitive kinds, the object kinds produced by builders, and the
// closed atom set. All values are immutable once constructed.
package value

import (
	"github.com/scentlang/scent/fixnum"
)

// Kind discriminates the value sum.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFixed
	KindAtom
	KindString
	KindDict
	KindReam
	KindColor
	KindDash
	KindStroke
	KindFont
	KindImage
	KindPath
	KindTransform
	KindColumn
	KindStyle
	KindClipping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFixed:
		return "fixed"
	case KindAtom:
		return "atom"
	case KindString:
		return "string"
	case KindDict:
		return "dictionary"
	case KindReam:
		return "ream"
	case KindColor:
		return "color"
	case KindDash:
		return "dash pattern"
	case KindStroke:
		return "stroke"
	case KindFont:
		return "font"
	case KindImage:
		return "image"
	case KindPath:
		return "path"
	case KindTransform:
		return "transform"
	case KindColumn:
		return "column"
	case KindStyle:
		return "style"
	case KindClipping:
		return "clipping"
	}
	return "unknown"
}

// Value is the closed sum of document-language values.
type Value interface {
	Kind() Kind
}

type Null struct{}

func (Null) Kind() Kind { return KindNull }

type Integer int32

func (Integer) Kind() Kind { return KindInteger }

type Fixed fixnum.Fixed

func (Fixed) Kind() Kind        { return KindFixed }
func (f Fixed) Num() fixnum.Fixed { return fixnum.Fixed(f) }

// Atom is an interned identifier from the closed atom set.
type Atom string

func (Atom) Kind() Kind { return KindAtom }

// String is validated UTF-8 content text.
type String string

func (String) Kind() Kind { return KindString }

// Dict maps atoms to values, unordered, keys unique.
type Dict map[Atom]Value

func (Dict) Kind() Kind { return KindDict }

// IsNull reports whether v is the null value.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}
